package middlewares

import (
	"net/http"

	"simonserver/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userIDKey = "UserID"

// AuthRequired はトークンを検証し、ユーザーIDをコンテキストにセットするミドルウェア
func AuthRequired(issuer *auth.TokenIssuer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaimsFromToken(c, issuer)
		if err != nil {
			logger.Warn("認証失敗", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status": "TOKEN_INVALID",
				"error":  "認証に失敗しました",
			})
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// UserID は AuthRequired がセットしたユーザーIDを返します。
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
