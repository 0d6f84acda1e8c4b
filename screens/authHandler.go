package screens

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"simonserver/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type guestRequest struct {
	Nickname string `json:"nickname" binding:"max=50"`
}

// GuestLogin は匿名ユーザーを作成してトークンを発行します。ボディは省略できます。
func (h *Handler) GuestLogin(c *gin.Context) {
	var request guestRequest
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		h.Logger.Warn("Request binding error", zap.Error(err))
		badRequest(c, "invalid request body")
		return
	}

	user := &models.User{Nickname: strings.TrimSpace(request.Nickname)}
	if err := h.Users.CreateUser(c.Request.Context(), user); err != nil {
		h.respondError(c, err)
		return
	}

	token, expiresAt, err := h.Tokens.GenerateToken(user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.Logger.Info("ゲストユーザーを作成しました", zap.Uint("userID", user.ID))
	c.JSON(http.StatusCreated, gin.H{
		"status":    "success",
		"userId":    user.ID,
		"nickname":  user.Nickname,
		"token":     token,
		"expiresAt": expiresAt,
	})
}
