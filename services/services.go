package services

import (
	"context"
	"fmt"

	"simonserver/models"
)

// Store はサービスが必要とする永続化操作。database.Store が実装します。
type Store interface {
	CreateRoom(ctx context.Context, room *models.Room) error
	FindRoom(ctx context.Context, id uint) (*models.Room, error)
	ListWaitingRooms(ctx context.Context, limit int) ([]models.Room, error)
	JoinRoom(ctx context.Context, id, joinerID uint) (bool, error)
	FindGameState(ctx context.Context, roomID uint) (*models.GameState, error)
	CreateGameStateIfAbsent(ctx context.Context, game *models.GameState) (*models.GameState, error)
	SaveGameState(ctx context.Context, game *models.GameState, finishRoom bool) error
}

// Locker はルーム単位の排他。database.RedisLocker と database.LocalLocker が実装します。
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func roomLockKey(roomID uint) string {
	return fmt.Sprintf("room:%d", roomID)
}
