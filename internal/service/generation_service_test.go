package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"seogen/internal/config"
	"seogen/pkg/redis_limiter"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStreamer 测试用的假模型客户端
type fakeStreamer struct {
	chunks     []string
	streamErr  error
	lastPrompt string
	probeReply string
}

func (f *fakeStreamer) StreamCompletion(ctx context.Context, prompt string, onDelta func(text string) error) error {
	f.lastPrompt = prompt
	for _, chunk := range f.chunks {
		if err := onDelta(chunk); err != nil {
			return err
		}
	}
	return f.streamErr
}

func (f *fakeStreamer) Completion(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.streamErr != nil {
		return "", f.streamErr
	}
	return f.probeReply, nil
}

func newTestConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{
			Model:                "test-model",
			MaxTokens:            2000,
			StreamTimeoutSeconds: 5,
			ProbeTimeoutSeconds:  5,
		},
	}
}

func TestStreamOutlineForwardsChunksInOrder(t *testing.T) {
	streamer := &fakeStreamer{chunks: []string{"## ", "标题", "建议"}}
	svc := NewGenerationService(newTestConfig(), func() (Streamer, error) { return streamer, nil }, nil)

	var received []string
	err := svc.StreamOutline(context.Background(), "topic", "keyword", func(text string) error {
		received = append(received, text)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"## ", "标题", "建议"}, received)
	assert.Contains(t, streamer.lastPrompt, "Topic: topic")
	assert.Contains(t, streamer.lastPrompt, "Target Keyword: keyword")
}

func TestStreamOutlineFactoryFailure(t *testing.T) {
	factoryErr := errors.New("环境变量 LLM_API_KEY 未设置")
	svc := NewGenerationService(newTestConfig(), func() (Streamer, error) { return nil, factoryErr }, nil)

	err := svc.StreamOutline(context.Background(), "topic", "keyword", func(string) error { return nil })

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "创建模型客户端失败"))
}

func TestStreamOutlineDeltaErrorStopsStream(t *testing.T) {
	// 下游写失败(连接断开)时中止转发
	streamer := &fakeStreamer{chunks: []string{"a", "b", "c"}}
	svc := NewGenerationService(newTestConfig(), func() (Streamer, error) { return streamer, nil }, nil)

	writeErr := errors.New("connection reset")
	count := 0
	err := svc.StreamOutline(context.Background(), "t", "k", func(string) error {
		count++
		if count == 2 {
			return writeErr
		}
		return nil
	})

	require.ErrorIs(t, err, writeErr)
	assert.Equal(t, 2, count)
}

func TestProbeUsesFixedMessage(t *testing.T) {
	streamer := &fakeStreamer{probeReply: "Hello!"}
	svc := NewGenerationService(newTestConfig(), func() (Streamer, error) { return streamer, nil }, nil)

	reply, err := svc.Probe(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Hello!", reply)
	assert.Equal(t, "Say hello!", streamer.lastPrompt)
}

func TestAcquireStreamSlotWithoutLimiter(t *testing.T) {
	// 未配置Redis时不做并发限制
	svc := NewGenerationService(newTestConfig(), func() (Streamer, error) { return nil, nil }, nil)

	assert.NoError(t, svc.AcquireStreamSlot(context.Background(), 1))
	svc.ReleaseStreamSlot(context.Background(), 1)
}

func TestAcquireStreamSlotRedisUnavailable(t *testing.T) {
	// Redis不可用属于基础设施错误,不能映射成"已有进行中的生成任务"
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
	})
	limiter := redis_limiter.NewRedisLimiter(client, 1, "generate:user:", time.Minute)
	svc := NewGenerationService(newTestConfig(), func() (Streamer, error) { return nil, nil }, limiter)

	err := svc.AcquireStreamSlot(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStreamBusy)
}
