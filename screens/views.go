package screens

import (
	"time"

	"simonserver/models"
	"simonserver/services"
	"simonserver/simon"
)

type roomView struct {
	ID             uint              `json:"id"`
	Name           string            `json:"name"`
	Player1ID      uint              `json:"player1Id"`
	Player2ID      *uint             `json:"player2Id"`
	ColorCount     int               `json:"colorCount"`
	Colors         simon.Palette     `json:"colors"`
	SelectedColors []string          `json:"selectedColors"`
	Status         models.RoomStatus `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
}

func newRoomView(room *models.Room) (roomView, error) {
	palette, err := room.Colors()
	if err != nil {
		return roomView{}, err
	}
	if palette == nil {
		palette = simon.Palette{}
	}
	return roomView{
		ID:             room.ID,
		Name:           room.Name,
		Player1ID:      room.Player1ID,
		Player2ID:      room.Player2ID,
		ColorCount:     room.ColorCount,
		Colors:         palette,
		SelectedColors: palette.Tokens(),
		Status:         room.Status,
		CreatedAt:      room.CreatedAt,
	}, nil
}

type gameView struct {
	ID                uint         `json:"id"`
	RoomID            uint         `json:"roomId"`
	Sequence          []string     `json:"sequence"`
	CurrentRound      int          `json:"currentRound"`
	CurrentPlayerTurn int          `json:"currentPlayerTurn"`
	IsShowingSequence bool         `json:"isShowingSequence"`
	Status            simon.Status `json:"status"`
	Player1Score      int          `json:"player1Score"`
	Player2Score      int          `json:"player2Score"`
	Player1Finished   bool         `json:"player1Finished"`
	Player2Finished   bool         `json:"player2Finished"`
	WinnerID          *uint        `json:"winnerId"`
	PlayerLeft        *int         `json:"playerLeft"`
	GameOver          bool         `json:"gameOver"`
	Room              roomView     `json:"room"`
}

func newGameView(game *services.Game) (gameView, error) {
	room, err := newRoomView(game.Room)
	if err != nil {
		return gameView{}, err
	}
	s := game.State
	seq := s.Sequence
	if seq == nil {
		seq = []string{}
	}
	return gameView{
		ID:                game.Record.ID,
		RoomID:            game.Record.RoomID,
		Sequence:          seq,
		CurrentRound:      s.CurrentRound,
		CurrentPlayerTurn: s.CurrentPlayerTurn,
		IsShowingSequence: s.IsShowingSequence,
		Status:            s.Status,
		Player1Score:      s.Player1Score,
		Player2Score:      s.Player2Score,
		Player1Finished:   s.Player1Finished,
		Player2Finished:   s.Player2Finished,
		WinnerID:          s.WinnerID,
		PlayerLeft:        s.PlayerLeft,
		GameOver:          s.Status == simon.StatusFinished,
		Room:              room,
	}, nil
}
