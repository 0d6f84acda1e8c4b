package models

import (
	"encoding/json"
	"fmt"

	"simonserver/simon"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RoomStatus はロビー上のルームの状態
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"
	RoomStatusFull     RoomStatus = "full" // 予約済み。入室フローでは使わない
	RoomStatusStarted  RoomStatus = "started"
	RoomStatusFinished RoomStatus = "finished"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomStatusWaiting, RoomStatusFull, RoomStatusStarted, RoomStatusFinished:
		return true
	}
	return false
}

// Room モデルの定義
type Room struct {
	gorm.Model
	Name       string         `gorm:"size:50;not null"`
	Player1ID  uint           `gorm:"not null;index"` // ホスト
	Player2ID  *uint          // 対戦相手。入室するまで NULL
	ColorCount int            `gorm:"not null"`
	Palette    datatypes.JSON // [{name, hex}]
	Status     RoomStatus     `gorm:"size:16;not null;default:'waiting';index"`
	GameState  *GameState     `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
}

// Players はゲームロジックに渡すための参加者情報を返します。
func (r *Room) Players() simon.Players {
	return simon.Players{Player1ID: r.Player1ID, Player2ID: r.Player2ID}
}

// Colors は保存されたパレットを復元します。
func (r *Room) Colors() (simon.Palette, error) {
	var palette simon.Palette
	if len(r.Palette) == 0 {
		return palette, nil
	}
	if err := json.Unmarshal(r.Palette, &palette); err != nil {
		return nil, fmt.Errorf("decode palette of room %d: %w", r.ID, err)
	}
	return palette, nil
}

func (r *Room) SetColors(palette simon.Palette) error {
	raw, err := json.Marshal(palette)
	if err != nil {
		return err
	}
	r.Palette = datatypes.JSON(raw)
	r.ColorCount = len(palette)
	return nil
}
