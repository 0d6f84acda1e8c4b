package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"simonserver/models"
	"simonserver/simon"

	"go.uber.org/zap"
)

const (
	maxRoomNameLength = 50
	DefaultListLimit  = 50
	MaxListLimit      = 100
)

// CreateRoomInput はルーム作成の入力。ColorCount と SelectedColors はどちらも省略できます。
type CreateRoomInput struct {
	HostID         uint
	Name           string
	ColorCount     *int
	SelectedColors []string
}

// RoomService はルームの作成、入室、一覧を扱います。
type RoomService struct {
	store    Store
	games    *GameService
	resolver *simon.Resolver
	logger   *zap.Logger
}

func NewRoomService(store Store, games *GameService, resolver *simon.Resolver, logger *zap.Logger) *RoomService {
	return &RoomService{store: store, games: games, resolver: resolver, logger: logger}
}

// Create はパレットを解決して入室待ちのルームを作成します。
func (s *RoomService) Create(ctx context.Context, in CreateRoomInput) (*models.Room, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || utf8.RuneCountInString(name) > maxRoomNameLength {
		return nil, fmt.Errorf("room name must be 1..%d characters: %w", maxRoomNameLength, simon.ErrInvalidConfiguration)
	}

	// 色リストと色数の両方が指定されて食い違うときだけエラー
	if len(in.SelectedColors) > 0 && in.ColorCount != nil && *in.ColorCount != len(in.SelectedColors) {
		return nil, fmt.Errorf("colorCount %d but %d colors selected: %w",
			*in.ColorCount, len(in.SelectedColors), simon.ErrColorCountMismatch)
	}

	count := simon.DefaultColorCount
	if in.ColorCount != nil {
		count = *in.ColorCount
	}
	palette, err := s.resolver.Resolve(in.SelectedColors, count)
	if err != nil {
		return nil, err
	}

	room := &models.Room{
		Name:      name,
		Player1ID: in.HostID,
		Status:    models.RoomStatusWaiting,
	}
	if err := room.SetColors(palette); err != nil {
		return nil, err
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	s.logger.Info("ルームを作成しました",
		zap.Uint("roomID", room.ID),
		zap.Uint("hostID", room.Player1ID),
		zap.Int("colorCount", room.ColorCount))
	return room, nil
}

// Join は対戦相手として入室し、ゲーム状態を初期化します。
func (s *RoomService) Join(ctx context.Context, roomID, joinerID uint) (*models.Room, error) {
	room, err := s.store.FindRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := checkJoinable(room, joinerID); err != nil {
		return nil, err
	}

	joined, err := s.store.JoinRoom(ctx, roomID, joinerID)
	if err != nil {
		return nil, fmt.Errorf("join room %d: %w", roomID, err)
	}
	if !joined {
		// 他のリクエストに先を越された。最新の状態で理由を判定し直す
		room, err = s.store.FindRoom(ctx, roomID)
		if err != nil {
			return nil, err
		}
		if err := checkJoinable(room, joinerID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("room %d changed during join: %w", roomID, simon.ErrRoomUnavailable)
	}

	if _, err := s.games.Initialize(ctx, roomID); err != nil {
		return nil, err
	}

	s.logger.Info("ルームに入室しました", zap.Uint("roomID", roomID), zap.Uint("userID", joinerID))
	return s.store.FindRoom(ctx, roomID)
}

func checkJoinable(room *models.Room, joinerID uint) error {
	switch {
	case room.Status != models.RoomStatusWaiting:
		return fmt.Errorf("room %d is %s: %w", room.ID, room.Status, simon.ErrRoomUnavailable)
	case room.Player2ID != nil:
		return fmt.Errorf("room %d: %w", room.ID, simon.ErrRoomFull)
	case room.Player1ID == joinerID:
		return fmt.Errorf("room %d: %w", room.ID, simon.ErrSelfJoinForbidden)
	}
	return nil
}

// List は入室待ちのルームを新しい順に返します。
func (s *RoomService) List(ctx context.Context, limit int) ([]models.Room, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.store.ListWaitingRooms(ctx, limit)
}

func (s *RoomService) Get(ctx context.Context, roomID uint) (*models.Room, error) {
	return s.store.FindRoom(ctx, roomID)
}
