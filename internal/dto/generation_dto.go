package dto

import "time"

// GenerateRequest 大纲生成请求
// 生成接口的错误响应是纯文本格式,字段缺失的判定在handler中处理,
// 这里不加binding标签,避免绑定失败时返回JSON格式错误
type GenerateRequest struct {
	Topic   string `json:"topic"`
	Keyword string `json:"keyword"`
}

// CreateGenerationRequest 保存生成记录请求
// 客户端完整接收流式输出后调用,output不能为空
type CreateGenerationRequest struct {
	Topic   string `json:"topic" binding:"required"`
	Keyword string `json:"keyword" binding:"required"`
	Output  string `json:"output" binding:"required"`
}

// GenerationResponse 生成记录响应
type GenerationResponse struct {
	ID        uint      `json:"id"`
	Topic     string    `json:"topic"`
	Keyword   string    `json:"keyword"`
	Output    string    `json:"output"`
	CreatedAt time.Time `json:"created_at"`
}

// GenerationListResponse 生成记录列表响应
type GenerationListResponse struct {
	Generations []GenerationResponse `json:"generations"`
	Total       int64                `json:"total"`
}

// CreditsResponse 额度查询响应
// remaining由服务端根据记录数重新计算,客户端本地的扣减只是展示提示
type CreditsResponse struct {
	Used      int64 `json:"used"`
	Remaining int   `json:"remaining"`
	Ceiling   int   `json:"ceiling"`
}

// ProbeResponse 模型服务探活响应
type ProbeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
