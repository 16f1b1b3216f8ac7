package llm_client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"seogen/internal/config"

	openai "github.com/sashabaranov/go-openai"
)

// LLMClient 大模型调用客户端
// 每次请求时创建,API Key在创建时从环境变量读取,缺失则创建失败
type LLMClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewLLMClient 创建大模型调用客户端
func NewLLMClient(cfg *config.LLMConfig) (*LLMClient, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("环境变量 %s 未设置", cfg.APIKeyEnv)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &LLMClient{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// StreamCompletion 流式调用模型
// 每收到一个文本增量立即调用onDelta,不做缓冲和重排,保持上游产出顺序
// onDelta返回错误时中止流(通常是下游连接已断开)
func (c *LLMClient) StreamCompletion(ctx context.Context, prompt string, onDelta func(text string) error) error {
	req := openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream: true,
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return fmt.Errorf("创建流式请求失败: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("接收流式响应失败: %w", err)
		}

		if len(resp.Choices) == 0 {
			continue
		}

		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}

		if err := onDelta(delta); err != nil {
			return err
		}
	}
}

// Completion 非流式调用模型,用于探活等一次性请求
func (c *LLMClient) Completion(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("调用模型失败: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("模型返回为空")
	}

	return resp.Choices[0].Message.Content, nil
}
