package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"simonserver/models"
	"simonserver/simon"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store はルームとゲーム状態の永続化を担当します。
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *Store) CreateRoom(ctx context.Context, room *models.Room) error {
	return s.db.WithContext(ctx).Create(room).Error
}

func (s *Store) FindRoom(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := s.db.WithContext(ctx).First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("room %d: %w", id, simon.ErrRoomNotFound)
		}
		return nil, err
	}
	return &room, nil
}

// ListWaitingRooms は入室待ちのルームを新しい順に返します。
func (s *Store) ListWaitingRooms(ctx context.Context, limit int) ([]models.Room, error) {
	var rooms []models.Room
	err := s.db.WithContext(ctx).
		Where("status = ?", models.RoomStatusWaiting).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&rooms).Error
	return rooms, err
}

// JoinRoom は入室待ちで空きのあるルームにだけ対戦相手を設定します。
// 条件に合わず更新されなかった場合は false を返します。
func (s *Store) JoinRoom(ctx context.Context, id, joinerID uint) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.Room{}).
		Where("id = ? AND status = ? AND player2_id IS NULL AND player1_id <> ?", id, models.RoomStatusWaiting, joinerID).
		Updates(map[string]interface{}{
			"player2_id": joinerID,
			"status":     models.RoomStatusStarted,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *Store) FindGameState(ctx context.Context, roomID uint) (*models.GameState, error) {
	var game models.GameState
	if err := s.db.WithContext(ctx).Where("room_id = ?", roomID).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("game for room %d: %w", roomID, simon.ErrGameNotFound)
		}
		return nil, err
	}
	return &game, nil
}

// CreateGameStateIfAbsent は room_id のユニーク制約に任せて条件付きで挿入し、保存済みのレコードを返します。
// 同時に呼ばれても作成されるのは1件だけです。
func (s *Store) CreateGameStateIfAbsent(ctx context.Context, game *models.GameState) (*models.GameState, error) {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "room_id"}}, DoNothing: true}).
		Create(game).Error
	if err != nil {
		return nil, err
	}
	return s.FindGameState(ctx, game.RoomID)
}

// SaveGameState はゲーム状態を保存します。finishRoom が true ならルームも同じトランザクションで finished にします。
func (s *Store) SaveGameState(ctx context.Context, game *models.GameState, finishRoom bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(game).Error; err != nil {
			return err
		}
		if !finishRoom {
			return nil
		}
		return tx.Model(&models.Room{}).
			Where("id = ?", game.RoomID).
			Update("status", models.RoomStatusFinished).Error
	})
}

// PurgeFinishedRooms は before より前に終了したルームとそのゲーム状態を物理削除し、削除したルーム数を返します。
func (s *Store) PurgeFinishedRooms(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var roomIDs []uint
		if err := tx.Unscoped().Model(&models.Room{}).
			Where("status = ? AND updated_at <= ?", models.RoomStatusFinished, before).
			Pluck("id", &roomIDs).Error; err != nil {
			return err
		}
		if len(roomIDs) == 0 {
			return nil
		}
		if err := tx.Unscoped().Where("room_id IN ?", roomIDs).Delete(&models.GameState{}).Error; err != nil {
			return err
		}
		result := tx.Unscoped().Where("id IN ?", roomIDs).Delete(&models.Room{})
		deleted = result.RowsAffected
		return result.Error
	})
	return deleted, err
}
