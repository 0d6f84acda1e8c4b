package screens

import (
	"net/http"

	"simonserver/services"
	"simonserver/simon"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MoveRequest はプレイヤーが再現した色の並び
type MoveRequest struct {
	Input []string `json:"input" binding:"required"`
}

// GetGame はゲーム状態を返します。まだ作成されていなければ初期状態で作成します。
func (h *Handler) GetGame(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	game, err := h.Games.Get(c.Request.Context(), roomID)
	h.writeGame(c, game, err, nil)
}

// UpdateGame は送られたフィールドだけを更新します。
func (h *Handler) UpdateGame(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var patch simon.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.Logger.Warn("Request binding error", zap.Error(err))
		badRequest(c, "invalid request body")
		return
	}
	game, err := h.Games.ApplyUpdate(c.Request.Context(), roomID, currentUser(c), patch)
	h.writeGame(c, game, err, nil)
}

func (h *Handler) StartGame(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	game, err := h.Games.Start(c.Request.Context(), roomID, currentUser(c))
	h.writeGame(c, game, err, nil)
}

func (h *Handler) RecordMove(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var request MoveRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.Logger.Warn("Request binding error", zap.Error(err))
		badRequest(c, "invalid request body")
		return
	}
	game, result, err := h.Games.RecordMove(c.Request.Context(), roomID, currentUser(c), request.Input)
	h.writeGame(c, game, err, &result)
}

func (h *Handler) LeaveGame(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	game, err := h.Games.Leave(c.Request.Context(), roomID, currentUser(c))
	h.writeGame(c, game, err, nil)
}

func (h *Handler) writeGame(c *gin.Context, game *services.Game, err error, result *simon.MoveResult) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	view, err := newGameView(game)
	if err != nil {
		h.respondError(c, err)
		return
	}
	body := gin.H{"status": "success", "game": view}
	if result != nil {
		body["result"] = result
	}
	c.JSON(http.StatusOK, body)
}
