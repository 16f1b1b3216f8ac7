package middleware

import (
	"strings"

	"seogen/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware JWT认证中间件
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := resolveClaims(c, jwtManager)
		if !ok {
			utils.Unauthorized(c, "未认证")
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// StreamAuthMiddleware 流式接口的JWT认证中间件
// 生成接口的错误响应约定为纯文本,认证失败时返回固定的"Unauthorized"
func StreamAuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := resolveClaims(c, jwtManager)
		if !ok {
			c.String(401, "Unauthorized")
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// resolveClaims 从请求头解析并验证Bearer Token
func resolveClaims(c *gin.Context, jwtManager *utils.JWTManager) (*utils.JWTClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := jwtManager.ValidateToken(parts[1])
	if err != nil {
		return nil, false
	}

	return claims, true
}

// setClaims 将用户信息存入上下文
func setClaims(c *gin.Context, claims *utils.JWTClaims) {
	c.Set("user_id", claims.UserID)
	c.Set("username", claims.Username)
	c.Set("is_admin", claims.IsAdmin)
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetUsername 从上下文获取用户名
func GetUsername(c *gin.Context) (string, bool) {
	username, exists := c.Get("username")
	if !exists {
		return "", false
	}
	return username.(string), true
}

// IsAdmin 从上下文判断是否为管理员
func IsAdmin(c *gin.Context) bool {
	isAdmin, exists := c.Get("is_admin")
	if !exists {
		return false
	}
	return isAdmin.(bool)
}
