package utils

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RoomPurger は終了済みルームの物理削除。database.Store が実装します。
type RoomPurger interface {
	PurgeFinishedRooms(ctx context.Context, before time.Time) (int64, error)
}

// PurgeFinishedRooms は retention より前に終了したルームを削除するジョブを1回実行します。
func PurgeFinishedRooms(ctx context.Context, purger RoomPurger, retention time.Duration, logger *zap.Logger) {
	logger.Info("終了済みルームを削除する処理を開始")
	deleted, err := purger.PurgeFinishedRooms(ctx, time.Now().Add(-retention))
	if err != nil {
		logger.Error("終了済みルームの削除に失敗しました", zap.Error(err))
		return
	}
	logger.Info("終了済みルームの削除完了", zap.Int64("rooms_deleted", deleted))
}

// CronCleaner は削除ジョブをスケジュールして開始します。停止には返された *cron.Cron の Stop を使います。
// スケジュールは "分 時 日 月 曜日" 形式です。
func CronCleaner(purger RoomPurger, schedule string, retention time.Duration, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		PurgeFinishedRooms(context.Background(), purger, retention, logger)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
