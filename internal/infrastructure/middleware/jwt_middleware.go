package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mood_chat_server/pkg/errorx"
	"mood_chat_server/pkg/util/jwt"
)

// ContextUserID 鉴权通过后 gin.Context 中的用户 ID 键
const ContextUserID = "user_id"

// JWTAuth JWT 认证中间件
// Token 优先取 Authorization: Bearer，浏览器建立 WebSocket 无法带 Header 时取 ?token=
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			abortUnauthorized(c, "请先登录")
			return
		}

		claims, err := jwt.ParseToken(tokenString)
		if err != nil {
			abortUnauthorized(c, "Token 已过期或无效，请重新登录")
			return
		}
		if !claims.IsAccessToken() {
			abortUnauthorized(c, "请使用 Access Token 访问此接口")
			return
		}
		if claims.UserID == "" {
			abortUnauthorized(c, "Token 中缺少用户信息")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Next()
	}
}

func extractToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code": errorx.CodeUnauthorized,
		"msg":  msg,
	})
}
