package service

import "fmt"

// outlinePromptTemplate 大纲生成提示词模板
// 输出结构约定:5个标题、meta描述、大纲(开头钩子+5-7个小节+结尾CTA)、建议字数,
// 前端渲染和测试都依赖这个结构
const outlinePromptTemplate = `You are an expert SEO content strategist. Generate a comprehensive blog post outline for the following:

Topic: %s
Target Keyword: %s

Please provide:
1. 5 catchy, SEO-optimized title options (each incorporating the target keyword naturally)
2. A compelling meta description (150-160 characters)
3. A detailed blog post outline with:
   - Introduction hook
   - 5-7 main sections (H2 headings) with 3-4 bullet points each
   - Conclusion with call-to-action
4. Suggested word count

Make it actionable, engaging, and optimized for search engines. Use the target keyword naturally throughout.`

// BuildOutlinePrompt 构建大纲生成提示词
// 纯函数,相同输入产出相同结果
func BuildOutlinePrompt(topic, keyword string) string {
	return fmt.Sprintf(outlinePromptTemplate, topic, keyword)
}
