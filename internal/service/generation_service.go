package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"seogen/internal/config"
	"seogen/pkg/redis_limiter"
)

// ErrStreamBusy 用户已有进行中的生成任务
var ErrStreamBusy = errors.New("已有进行中的生成任务")

// Streamer 大模型调用接口
// 由pkg/llm_client实现,测试中用假实现替换
type Streamer interface {
	StreamCompletion(ctx context.Context, prompt string, onDelta func(text string) error) error
	Completion(ctx context.Context, prompt string) (string, error)
}

// StreamerFactory 创建大模型客户端
// 每次请求时调用,API Key缺失等构造失败在这里暴露
type StreamerFactory func() (Streamer, error)

// GenerationService 大纲生成服务
type GenerationService struct {
	cfg         *config.Config
	newStreamer StreamerFactory
	limiter     *redis_limiter.RedisLimiter
}

// NewGenerationService 创建大纲生成服务
// limiter为nil时不做单用户并发限制(开发模式或未配置Redis)
func NewGenerationService(cfg *config.Config, newStreamer StreamerFactory, limiter *redis_limiter.RedisLimiter) *GenerationService {
	return &GenerationService{
		cfg:         cfg,
		newStreamer: newStreamer,
		limiter:     limiter,
	}
}

// AcquireStreamSlot 获取用户的流式生成槽位
// 槽位已满返回ErrStreamBusy;Redis故障等基础设施错误原样上抛,不能当成"生成中"
func (s *GenerationService) AcquireStreamSlot(ctx context.Context, userID uint) error {
	if s.limiter == nil {
		return nil
	}
	if err := s.limiter.Acquire(ctx, strconv.FormatUint(uint64(userID), 10)); err != nil {
		if errors.Is(err, redis_limiter.ErrLimitReached) {
			return ErrStreamBusy
		}
		return fmt.Errorf("获取生成槽位失败: %w", err)
	}
	return nil
}

// ReleaseStreamSlot 释放用户的流式生成槽位
func (s *GenerationService) ReleaseStreamSlot(ctx context.Context, userID uint) {
	if s.limiter == nil {
		return
	}
	s.limiter.Release(ctx, strconv.FormatUint(uint64(userID), 10))
}

// StreamOutline 流式生成大纲
// 构建提示词后调用模型流式接口,每个文本增量原样转发给onDelta,
// 上游挂起由超时兜底,超时后context取消会中断流
func (s *GenerationService) StreamOutline(ctx context.Context, topic, keyword string, onDelta func(text string) error) error {
	streamer, err := s.newStreamer()
	if err != nil {
		return fmt.Errorf("创建模型客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.LLM.GetStreamTimeout())
	defer cancel()

	prompt := BuildOutlinePrompt(topic, keyword)
	return streamer.StreamCompletion(ctx, prompt, onDelta)
}

// Probe 模型服务探活
// 发送固定消息做一次非流式调用,用于运维诊断
func (s *GenerationService) Probe(ctx context.Context) (string, error) {
	streamer, err := s.newStreamer()
	if err != nil {
		return "", fmt.Errorf("创建模型客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.LLM.GetProbeTimeout())
	defer cancel()

	return streamer.Completion(ctx, "Say hello!")
}
