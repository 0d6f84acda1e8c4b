package models

import (
	"simonserver/simon"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GameState モデルの定義。ルームごとに最大1件（room_id はユニーク）
type GameState struct {
	gorm.Model
	RoomID            uint           `gorm:"not null;uniqueIndex"`
	Sequence          datatypes.JSON // ["red","blue",...]
	CurrentRound      int            `gorm:"not null"`
	CurrentPlayerTurn int            `gorm:"not null"`
	IsShowingSequence bool           `gorm:"not null"`
	Status            simon.Status   `gorm:"size:16;not null"`
	Player1Score      int            `gorm:"not null"`
	Player2Score      int            `gorm:"not null"`
	Player1Finished   bool           `gorm:"not null"`
	Player2Finished   bool           `gorm:"not null"`
	WinnerID          *uint
	PlayerLeft        *int // 1 or 2。途中退出したプレイヤー
}

// NewGameState は初期状態のレコードを作ります。
func NewGameState(roomID uint) *GameState {
	g := &GameState{RoomID: roomID}
	// 空シーケンスのエンコードは失敗しない
	_ = g.Assign(simon.NewState())
	return g
}

// State はレコードからゲームロジック用の値を作ります。
// シーケンスのJSONが壊れている場合はエラーと共に空シーケンスの状態を返します。
func (g *GameState) State() (simon.State, error) {
	seq, err := simon.DecodeSequence(g.Sequence)
	return simon.State{
		Sequence:          seq,
		CurrentRound:      g.CurrentRound,
		CurrentPlayerTurn: g.CurrentPlayerTurn,
		IsShowingSequence: g.IsShowingSequence,
		Status:            g.Status,
		Player1Score:      g.Player1Score,
		Player2Score:      g.Player2Score,
		Player1Finished:   g.Player1Finished,
		Player2Finished:   g.Player2Finished,
		WinnerID:          g.WinnerID,
		PlayerLeft:        g.PlayerLeft,
	}, err
}

// Assign はゲームロジックの状態をレコードに書き戻します。
func (g *GameState) Assign(s simon.State) error {
	raw, err := simon.EncodeSequence(s.Sequence)
	if err != nil {
		return err
	}
	g.Sequence = datatypes.JSON(raw)
	g.CurrentRound = s.CurrentRound
	g.CurrentPlayerTurn = s.CurrentPlayerTurn
	g.IsShowingSequence = s.IsShowingSequence
	g.Status = s.Status
	g.Player1Score = s.Player1Score
	g.Player2Score = s.Player2Score
	g.Player1Finished = s.Player1Finished
	g.Player2Finished = s.Player2Finished
	g.WinnerID = s.WinnerID
	g.PlayerLeft = s.PlayerLeft
	return nil
}
