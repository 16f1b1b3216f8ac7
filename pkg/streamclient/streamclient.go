package streamclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// 服务端生成接口的纯文本错误响应对应的错误
var (
	ErrUnauthorized  = errors.New("未认证或Token已失效")
	ErrInvalidInput  = errors.New("缺少topic或keyword")
	ErrQuotaExceeded = errors.New("免费额度已用完")
	ErrBusy          = errors.New("已有进行中的生成任务")
	ErrServer        = errors.New("服务端内部错误")
)

// Generation 生成记录
type Generation struct {
	ID        uint      `json:"id"`
	Topic     string    `json:"topic"`
	Keyword   string    `json:"keyword"`
	Output    string    `json:"output"`
	CreatedAt time.Time `json:"created_at"`
}

// GenerateResult 一次生成的结果
type GenerateResult struct {
	Output    string      // 完整接收到的文本
	Record    *Generation // 保存成功后的记录,输出为空时为nil
	Remaining int         // 本地扣减后的剩余额度,仅展示提示
}

// Credits 额度信息
type Credits struct {
	Used      int64 `json:"used"`
	Remaining int   `json:"remaining"`
	Ceiling   int   `json:"ceiling"`
}

// Client 生成服务客户端
// Generate增量消费服务端的分块文本流,完整接收后保存记录并扣减本地额度缓存。
// 本地额度只是展示提示,服务端每次都会重新校验
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string

	mu        sync.Mutex
	remaining int
	synced    bool
}

// NewClient 创建客户端
// httpClient为nil时使用不带超时的默认客户端(流式响应不能设整体超时)
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// SetToken 设置访问Token
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login 登录并保存Token
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("登录请求失败: %w", err)
	}
	defer resp.Body.Close()

	var env struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("解析登录响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK || env.Code != 200 {
		return fmt.Errorf("登录失败: %s", env.Message)
	}

	c.token = env.Data.AccessToken
	return nil
}

// Generate 请求一次流式生成
// 每读到一个分块立即回调onChunk并追加到缓冲,不等待整体完成。
// 流正常结束且缓冲非空时保存一条记录并扣减本地额度;
// 读取中途失败时丢弃已接收的部分,不保存任何记录
func (c *Client) Generate(ctx context.Context, topic, keyword string, onChunk func(text string)) (*GenerateResult, error) {
	body, _ := json.Marshal(map[string]string{
		"topic":   topic,
		"keyword": keyword,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("生成请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	// 增量读取,边收边渲染
	var builder strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			builder.WriteString(chunk)
			if onChunk != nil {
				onChunk(chunk)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			// 流中断,丢弃已接收的部分
			return nil, fmt.Errorf("读取生成流失败: %w", err)
		}
	}

	output := builder.String()
	result := &GenerateResult{Output: output}

	// 空输出视为完成但无内容,不保存记录
	if output == "" {
		result.Remaining = c.cachedRemaining()
		return result, nil
	}

	record, err := c.saveGeneration(ctx, topic, keyword, output)
	if err != nil {
		return nil, fmt.Errorf("保存生成记录失败: %w", err)
	}

	result.Record = record
	result.Remaining = c.decrementRemaining()
	return result, nil
}

// GetCredits 从服务端查询额度并刷新本地缓存
func (c *Client) GetCredits(ctx context.Context) (*Credits, error) {
	var credits Credits
	if err := c.getJSON(ctx, "/api/credits", &credits); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.remaining = credits.Remaining
	c.synced = true
	c.mu.Unlock()

	return &credits, nil
}

// ListGenerations 获取生成历史,按创建时间倒序
func (c *Client) ListGenerations(ctx context.Context) ([]Generation, error) {
	var data struct {
		Generations []Generation `json:"generations"`
		Total       int64        `json:"total"`
	}
	if err := c.getJSON(ctx, "/api/generations", &data); err != nil {
		return nil, err
	}
	return data.Generations, nil
}

// DeleteGeneration 删除一条生成记录
func (c *Client) DeleteGeneration(ctx context.Context, id uint) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/api/generations/%d", c.baseURL, id), nil)
	if err != nil {
		return err
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("删除请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode)
	}
	return nil
}

// FilterGenerations 按topic/keyword过滤生成记录
// 大小写不敏感的子串匹配,纯函数,每次输入变化时重新计算
func FilterGenerations(generations []Generation, query string) []Generation {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return generations
	}

	filtered := make([]Generation, 0, len(generations))
	for _, g := range generations {
		if strings.Contains(strings.ToLower(g.Topic), query) ||
			strings.Contains(strings.ToLower(g.Keyword), query) {
			filtered = append(filtered, g)
		}
	}
	return filtered
}

// saveGeneration 保存一条生成记录
func (c *Client) saveGeneration(ctx context.Context, topic, keyword, output string) (*Generation, error) {
	body, _ := json.Marshal(map[string]string{
		"topic":   topic,
		"keyword": keyword,
		"output":  output,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	var env struct {
		Code    int        `json:"code"`
		Message string     `json:"message"`
		Data    Generation `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("解析保存响应失败: %w", err)
	}
	if env.Code != 200 {
		return nil, fmt.Errorf("保存失败: %s", env.Message)
	}

	return &env.Data, nil
}

// getJSON 发起GET请求并解析统一响应格式中的data
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode)
	}

	var env struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	if env.Code != 200 {
		return fmt.Errorf("请求失败: %s", env.Message)
	}

	return json.Unmarshal(env.Data, out)
}

// setAuth 设置认证头
func (c *Client) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// cachedRemaining 读取本地额度缓存
func (c *Client) cachedRemaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// decrementRemaining 本地扣减额度,钳制在0以上
// 只是展示提示,下次GetCredits会用服务端数据覆盖
func (c *Client) decrementRemaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.synced && c.remaining > 0 {
		c.remaining--
	}
	return c.remaining
}

// statusError 将HTTP状态码映射为类型化错误
func statusError(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusBadRequest:
		return ErrInvalidInput
	case http.StatusForbidden:
		return ErrQuotaExceeded
	case http.StatusTooManyRequests:
		return ErrBusy
	case http.StatusInternalServerError:
		return ErrServer
	default:
		return fmt.Errorf("非预期的状态码: %d", code)
	}
}
