package config

import (
	"fmt"
	"time"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis_service"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Admin    AdminConfig    `mapstructure:"admin"`
	CORS     CORSConfig     `mapstructure:"cors"`
	LLM      LLMConfig      `mapstructure:"llm_service"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	ProductionMode bool   `mapstructure:"production_mode"`
}

// GetAddress 获取服务器地址
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig Redis配置
// Host 为空时不启用Redis,生成接口的单用户并发限制退化为不限制
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

// GetAddress 获取Redis地址
func (r *RedisConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	Algorithm     string `mapstructure:"algorithm"`
	ExpireMinutes int    `mapstructure:"expire_minutes"`
}

// GetExpireDuration 获取过期时间
func (j *JWTConfig) GetExpireDuration() time.Duration {
	return time.Duration(j.ExpireMinutes) * time.Minute
}

// AdminConfig 管理员配置
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CORSConfig CORS配置
type CORSConfig struct {
	Origins          []string `mapstructure:"origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
}

// LLMConfig 大模型服务配置
// API Key不写入配置文件,每次请求时从APIKeyEnv指定的环境变量读取
type LLMConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	Model                string `mapstructure:"model"`
	MaxTokens            int    `mapstructure:"max_tokens"`
	APIKeyEnv            string `mapstructure:"api_key_env"`
	StreamTimeoutSeconds int    `mapstructure:"stream_timeout_seconds"`
	ProbeTimeoutSeconds  int    `mapstructure:"probe_timeout_seconds"`
}

// GetStreamTimeout 获取流式生成超时时间
func (l *LLMConfig) GetStreamTimeout() time.Duration {
	return time.Duration(l.StreamTimeoutSeconds) * time.Second
}

// GetProbeTimeout 获取探活调用超时时间
func (l *LLMConfig) GetProbeTimeout() time.Duration {
	return time.Duration(l.ProbeTimeoutSeconds) * time.Second
}
