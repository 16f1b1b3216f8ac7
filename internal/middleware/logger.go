package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger 请求日志中间件
// 流式生成请求在整个流结束后才落一条日志,latency即为整次生成耗时;
// 中途断开的流不经过这里(panic直接抛给net/http),由handler单独记录
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    path,
			"ip":      c.ClientIP(),
			"latency": time.Since(start),
			"length":  c.Writer.Size(),
		})

		if query := c.Request.URL.RawQuery; query != "" {
			entry = entry.WithField("query", query)
		}
		if userID, exists := GetUserID(c); exists {
			entry = entry.WithField("user_id", userID)
		}

		switch {
		case c.Writer.Status() >= 500:
			entry.Error("HTTP请求")
		case c.Writer.Status() >= 400:
			entry.Warn("HTTP请求")
		default:
			entry.Info("HTTP请求")
		}
	}
}
