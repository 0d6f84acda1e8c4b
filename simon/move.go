package simon

import "fmt"

// MoveResult は1回の再現入力の判定結果
type MoveResult struct {
	Correct bool `json:"correct"`
	// MismatchAt は最初に食い違った位置。正解時は -1。
	MismatchAt int `json:"mismatchAt"`
}

// Start は waiting の試合を playing にし、最初の1色を生成します。先手はプレイヤー1です。
func Start(s State, palette []string, gen *Generator) (State, error) {
	switch s.Status {
	case StatusFinished:
		return s, ErrGameFinished
	case StatusPlaying:
		return s, fmt.Errorf("game already started: %w", ErrInvalidUpdate)
	}

	seq, err := gen.GenerateInitial(palette, 1)
	if err != nil {
		return s, err
	}
	next := s.clone()
	next.Sequence = seq
	next.Status = StatusPlaying
	next.CurrentPlayerTurn = 1
	next.IsShowingSequence = true
	return next, nil
}

// RecordMove は slot のプレイヤーが入力した色の並びを保存済みシーケンスと位置ごとに比較します。
//
// 完全一致なら得点+1、ラウンド+1、シーケンスに1色追加し、相手がまだ脱落していなければ手番を渡します。
// 不一致ならそのプレイヤーを脱落させ、両者が脱落していれば得点の高い方を勝者として終了します。
func RecordMove(s State, slot int, input []string, palette []string, gen *Generator, players Players) (State, MoveResult, error) {
	if s.Status == StatusFinished {
		return s, MoveResult{}, ErrGameFinished
	}
	if s.Status != StatusPlaying {
		return s, MoveResult{}, ErrGameNotPlaying
	}
	if len(s.Sequence) == 0 {
		return s, MoveResult{}, fmt.Errorf("sequence is empty: %w", ErrGameNotPlaying)
	}
	if !validSlot(slot) {
		return s, MoveResult{}, ErrNotAPlayer
	}
	if slot != s.CurrentPlayerTurn || s.finished(slot) {
		return s, MoveResult{}, ErrNotYourTurn
	}

	next := s.clone()
	at := mismatchIndex(s.Sequence, input)
	if at < 0 {
		seq, err := gen.AppendStep(next.Sequence, palette)
		if err != nil {
			return s, MoveResult{}, err
		}
		next.Sequence = seq
		next.addScore(slot, 1)
		next.CurrentRound++
		if !next.finished(otherSlot(slot)) {
			next.CurrentPlayerTurn = otherSlot(slot)
		}
		return next, MoveResult{Correct: true, MismatchAt: -1}, nil
	}

	next.markFinished(slot)
	if next.Player1Finished && next.Player2Finished {
		next.Status = StatusFinished
		next.WinnerID = winnerByScore(next, players)
		return next, MoveResult{MismatchAt: at}, nil
	}
	next.CurrentRound++
	next.CurrentPlayerTurn = otherSlot(slot)
	return next, MoveResult{MismatchAt: at}, nil
}

// mismatchIndex は最初に異なる位置を返します。長さが違えば短い方の長さ、完全一致なら -1。
func mismatchIndex(want, got []string) int {
	n := min(len(want), len(got))
	for i := 0; i < n; i++ {
		if want[i] != got[i] {
			return i
		}
	}
	if len(want) != len(got) {
		return n
	}
	return -1
}
