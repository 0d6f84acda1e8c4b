package screens

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"simonserver/models"
	"simonserver/services"
	"simonserver/simon"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const inviteQRSize = 256

// CreateRoomRequest はルーム作成リクエストのボディ
type CreateRoomRequest struct {
	Name           string   `json:"name"`
	ColorCount     *int     `json:"colorCount"`     // 省略時は selectedColors の数、どちらもなければ4
	SelectedColors []string `json:"selectedColors"` // 色名または #RRGGBB
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var request CreateRoomRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.Logger.Warn("Request binding error", zap.Error(err))
		badRequest(c, "invalid request body")
		return
	}

	room, err := h.Rooms.Create(c.Request.Context(), services.CreateRoomInput{
		HostID:         currentUser(c),
		Name:           request.Name,
		ColorCount:     request.ColorCount,
		SelectedColors: request.SelectedColors,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.writeRoom(c, http.StatusCreated, room)
}

// ListRooms は入室待ちのルーム一覧を返します。?limit= で件数を指定できます。
func (h *Handler) ListRooms(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "invalid limit")
			return
		}
		limit = n
	}

	rooms, err := h.Rooms.List(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]roomView, 0, len(rooms))
	for i := range rooms {
		view, err := newRoomView(&rooms[i])
		if err != nil {
			h.respondError(c, err)
			return
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "rooms": views})
}

func (h *Handler) GetRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	room, err := h.Rooms.Get(c.Request.Context(), roomID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.writeRoom(c, http.StatusOK, room)
}

func (h *Handler) JoinRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	room, err := h.Rooms.Join(c.Request.Context(), roomID, currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.writeRoom(c, http.StatusOK, room)
}

// RoomInvite はルームへの招待URLをQRコード(PNG)で返します。
func (h *Handler) RoomInvite(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	room, err := h.Rooms.Get(c.Request.Context(), roomID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	url := fmt.Sprintf("%s/rooms/%d", strings.TrimRight(h.PublicURL, "/"), room.ID)
	png, err := qrcode.Encode(url, qrcode.Medium, inviteQRSize)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// Colors は指定した色数の既定パレットを返します。
func (h *Handler) Colors(c *gin.Context) {
	count := simon.DefaultColorCount
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "invalid count")
			return
		}
		count = n
	}

	palette, err := h.Resolver.Resolve(nil, count)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "colors": palette})
}

func (h *Handler) writeRoom(c *gin.Context, status int, room *models.Room) {
	view, err := newRoomView(room)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(status, gin.H{"status": "success", "room": view})
}
