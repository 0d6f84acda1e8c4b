package middlewares

import (
	"strings"

	"simonserver/auth"

	"github.com/gin-gonic/gin"
)

// リクエストからJWTトークンを取得し、クレームを解析して返します。
func GetClaimsFromToken(c *gin.Context, issuer *auth.TokenIssuer) (*auth.Claims, error) {
	tokenString := c.GetHeader("Authorization")

	// Bearerトークンのプレフィックスがあれば削除
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, auth.ErrInvalidToken
	}
	return issuer.ParseToken(tokenString)
}
