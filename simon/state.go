package simon

import (
	"encoding/json"
	"fmt"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusPlaying, StatusFinished:
		return true
	}
	return false
}

// 許可される状態遷移。同じ状態への更新は常に許可されます。
var transitions = map[Status][]Status{
	StatusWaiting: {StatusPlaying, StatusFinished},
	StatusPlaying: {StatusFinished},
}

func canTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// State は1試合の進行状況。ストレージ形式から独立した値として扱います。
type State struct {
	Sequence          []string
	CurrentRound      int
	CurrentPlayerTurn int
	IsShowingSequence bool
	Status            Status
	Player1Score      int
	Player2Score      int
	Player1Finished   bool
	Player2Finished   bool
	WinnerID          *uint
	PlayerLeft        *int
}

// NewState は初期化直後の状態（空シーケンス、ラウンド0、プレイヤー1の手番、waiting）を返します。
func NewState() State {
	return State{
		Sequence:          []string{},
		CurrentPlayerTurn: 1,
		Status:            StatusWaiting,
	}
}

func (s State) clone() State {
	next := s
	next.Sequence = append([]string{}, s.Sequence...)
	return next
}

func (s State) finished(slot int) bool {
	if slot == 1 {
		return s.Player1Finished
	}
	return s.Player2Finished
}

func (s *State) markFinished(slot int) {
	if slot == 1 {
		s.Player1Finished = true
	} else {
		s.Player2Finished = true
	}
}

func (s *State) addScore(slot, points int) {
	if slot == 1 {
		s.Player1Score += points
	} else {
		s.Player2Score += points
	}
}

// Players はルームの参加者。Player2ID は対戦相手が入室するまで nil です。
type Players struct {
	Player1ID uint
	Player2ID *uint
}

// IDFor はスロット番号(1 or 2)のユーザーIDを返します。
func (p Players) IDFor(slot int) *uint {
	switch slot {
	case 1:
		id := p.Player1ID
		return &id
	case 2:
		if p.Player2ID == nil {
			return nil
		}
		id := *p.Player2ID
		return &id
	}
	return nil
}

// SlotOf はユーザーIDのスロット番号を返します。
func (p Players) SlotOf(userID uint) (int, bool) {
	if userID == p.Player1ID {
		return 1, true
	}
	if p.Player2ID != nil && userID == *p.Player2ID {
		return 2, true
	}
	return 0, false
}

func otherSlot(slot int) int {
	if slot == 1 {
		return 2
	}
	return 1
}

func validSlot(slot int) bool { return slot == 1 || slot == 2 }

// winnerByScore は得点の高いプレイヤーのIDを返します。同点なら nil。
func winnerByScore(s State, players Players) *uint {
	switch {
	case s.Player1Score > s.Player2Score:
		return players.IDFor(1)
	case s.Player2Score > s.Player1Score:
		return players.IDFor(2)
	}
	return nil
}

// Optional はJSONでキーが存在したかどうかを区別するフィールド。
// キーがあり値が null の場合は Set=true, Value=nil になります。
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Some は値の入った Optional を返します。
func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: &v} }

// Patch は部分更新。nil / Set=false のフィールドは変更しません。
type Patch struct {
	Sequence          *[]string      `json:"sequence"`
	CurrentRound      *int           `json:"currentRound"`
	CurrentPlayerTurn *int           `json:"currentPlayerTurn"`
	IsShowingSequence *bool          `json:"isShowingSequence"`
	Status            *Status        `json:"status"`
	Player1Score      *int           `json:"player1Score"`
	Player2Score      *int           `json:"player2Score"`
	Player1Finished   *bool          `json:"player1Finished"`
	Player2Finished   *bool          `json:"player2Finished"`
	WinnerID          Optional[uint] `json:"winnerId"`
	PlayerLeft        Optional[int]  `json:"playerLeft"`
}

// touchesGameplay は isShowingSequence と status 以外のフィールドを含むかどうか
func (p Patch) touchesGameplay() bool {
	return p.Sequence != nil || p.CurrentRound != nil || p.CurrentPlayerTurn != nil ||
		p.Player1Score != nil || p.Player2Score != nil ||
		p.Player1Finished != nil || p.Player2Finished != nil || p.WinnerID.Set
}

// Apply は現在の状態に部分更新を適用した新しい状態を返します。
//
// ラウンドが進んだ場合は手番を直前の値から必ず1回だけ反転し、ラウンド途中の手番変更は拒否します。
// playerLeft が設定されると得点に関係なく finished になり、残ったプレイヤーが勝者になります。
func Apply(s State, p Patch, players Players) (State, error) {
	if s.Status == StatusFinished {
		return applyToFinished(s, p)
	}

	next := s.clone()

	if p.Sequence != nil {
		next.Sequence = append([]string{}, (*p.Sequence)...)
	}
	if p.Player1Score != nil {
		if *p.Player1Score < 0 {
			return s, fmt.Errorf("player1Score %d is negative: %w", *p.Player1Score, ErrInvalidUpdate)
		}
		next.Player1Score = *p.Player1Score
	}
	if p.Player2Score != nil {
		if *p.Player2Score < 0 {
			return s, fmt.Errorf("player2Score %d is negative: %w", *p.Player2Score, ErrInvalidUpdate)
		}
		next.Player2Score = *p.Player2Score
	}
	if p.Player1Finished != nil {
		next.Player1Finished = *p.Player1Finished
	}
	if p.Player2Finished != nil {
		next.Player2Finished = *p.Player2Finished
	}
	if p.IsShowingSequence != nil {
		next.IsShowingSequence = *p.IsShowingSequence
	}

	if p.CurrentPlayerTurn != nil && !validSlot(*p.CurrentPlayerTurn) {
		return s, fmt.Errorf("currentPlayerTurn %d: %w", *p.CurrentPlayerTurn, ErrInvalidUpdate)
	}
	roundAdvanced := false
	if p.CurrentRound != nil {
		if *p.CurrentRound < s.CurrentRound {
			return s, fmt.Errorf("currentRound %d is behind %d: %w", *p.CurrentRound, s.CurrentRound, ErrInvalidUpdate)
		}
		roundAdvanced = *p.CurrentRound > s.CurrentRound
		next.CurrentRound = *p.CurrentRound
	}
	if roundAdvanced {
		next.CurrentPlayerTurn = otherSlot(s.CurrentPlayerTurn)
	} else if p.CurrentPlayerTurn != nil && *p.CurrentPlayerTurn != s.CurrentPlayerTurn {
		return s, fmt.Errorf("turn changes only when the round advances: %w", ErrInvalidUpdate)
	}

	if p.Status != nil {
		if !p.Status.Valid() {
			return s, fmt.Errorf("unknown status %q: %w", *p.Status, ErrInvalidUpdate)
		}
		if !canTransition(s.Status, *p.Status) {
			return s, fmt.Errorf("status %s -> %s: %w", s.Status, *p.Status, ErrInvalidUpdate)
		}
		next.Status = *p.Status
	}

	if p.WinnerID.Set {
		next.WinnerID = p.WinnerID.Value
	}

	if p.PlayerLeft.Set {
		if p.PlayerLeft.Value == nil {
			next.PlayerLeft = nil
		} else {
			slot := *p.PlayerLeft.Value
			if !validSlot(slot) {
				return s, fmt.Errorf("playerLeft %d: %w", slot, ErrInvalidUpdate)
			}
			next.PlayerLeft = &slot
			next.Status = StatusFinished
			next.WinnerID = players.IDFor(otherSlot(slot))
			return next, nil
		}
	}

	if next.Status != StatusFinished {
		if next.WinnerID != nil {
			return s, fmt.Errorf("winner set on a %s game: %w", next.Status, ErrInvalidUpdate)
		}
		return next, nil
	}
	if !p.WinnerID.Set {
		next.WinnerID = winnerByScore(next, players)
	}
	return next, nil
}

// 終了済みの試合は表示用フラグ以外変更できません。playerLeft は無視します。
func applyToFinished(s State, p Patch) (State, error) {
	if p.touchesGameplay() || (p.Status != nil && *p.Status != StatusFinished) {
		return s, ErrGameFinished
	}
	next := s.clone()
	if p.IsShowingSequence != nil {
		next.IsShowingSequence = *p.IsShowingSequence
	}
	return next, nil
}
