package screens

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"simonserver/auth"
	"simonserver/middlewares"
	"simonserver/models"
	"simonserver/services"
	"simonserver/simon"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserStore はゲストユーザーの作成。database.Store が実装します。
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
}

// Handler は各HTTPリクエストを処理するハンドラーの集まり
type Handler struct {
	Users     UserStore
	Rooms     *services.RoomService
	Games     *services.GameService
	Resolver  *simon.Resolver
	Tokens    *auth.TokenIssuer
	PublicURL string // 招待QRコードに埋め込むURLのベース
	Logger    *zap.Logger
}

// Register はルーティングを登録します。/auth/guest, /colors, /healthz 以外は認証が必要です。
func (h *Handler) Register(router gin.IRouter) {
	router.GET("/healthz", h.Healthz)
	router.POST("/auth/guest", h.GuestLogin)
	router.GET("/colors", h.Colors)

	authed := router.Group("/", middlewares.AuthRequired(h.Tokens, h.Logger))
	authed.GET("/rooms", h.ListRooms)
	authed.POST("/rooms", h.CreateRoom)
	authed.GET("/rooms/:roomId", h.GetRoom)
	authed.POST("/rooms/:roomId/join", h.JoinRoom)
	authed.GET("/rooms/:roomId/invite.png", h.RoomInvite)

	authed.GET("/games/:roomId", h.GetGame)
	authed.PUT("/games/:roomId", h.UpdateGame)
	authed.POST("/games/:roomId/start", h.StartGame)
	authed.POST("/games/:roomId/move", h.RecordMove)
	authed.POST("/games/:roomId/leave", h.LeaveGame)
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// エラー種別ごとのHTTPステータス
var errorStatus = map[string]int{
	simon.ErrRoomNotFound.Code:         http.StatusNotFound,
	simon.ErrRoomUnavailable.Code:      http.StatusConflict,
	simon.ErrRoomFull.Code:             http.StatusConflict,
	simon.ErrSelfJoinForbidden.Code:    http.StatusBadRequest,
	simon.ErrInvalidColorSet.Code:      http.StatusBadRequest,
	simon.ErrColorCountMismatch.Code:   http.StatusBadRequest,
	simon.ErrInvalidConfiguration.Code: http.StatusBadRequest,
	simon.ErrGameNotFound.Code:         http.StatusNotFound,
	simon.ErrInvalidUpdate.Code:        http.StatusBadRequest,
	simon.ErrGameFinished.Code:         http.StatusConflict,
	simon.ErrGameNotPlaying.Code:       http.StatusConflict,
	simon.ErrNotYourTurn.Code:          http.StatusConflict,
	simon.ErrNotAPlayer.Code:           http.StatusForbidden,
}

// respondError はエラーを {"status": コード, "error": メッセージ} の形で返します。
func (h *Handler) respondError(c *gin.Context, err error) {
	var gameErr *simon.Error
	if errors.As(err, &gameErr) {
		status, ok := errorStatus[gameErr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		h.Logger.Info("リクエストを拒否しました",
			zap.String("path", c.Request.URL.Path), zap.String("code", gameErr.Code), zap.Error(err))
		c.JSON(status, gin.H{"status": gameErr.Code, "error": gameErr.Message})
		return
	}

	h.Logger.Error("リクエストの処理に失敗しました", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"status": "INTERNAL_ERROR", "error": "internal server error"})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"status": "INVALID_REQUEST", "error": message})
}

// roomIDParam は URL の :roomId を読み取ります。失敗した場合はレスポンスを書き込んで false を返します。
func roomIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("roomId"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid room id")
		return 0, false
	}
	return uint(id), true
}

func currentUser(c *gin.Context) uint {
	id, _ := middlewares.UserID(c)
	return id
}
