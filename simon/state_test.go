package simon

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func testPlayers() Players {
	return Players{Player1ID: 10, Player2ID: ptr(uint(20))}
}

func playingState() State {
	s := NewState()
	s.Status = StatusPlaying
	s.Sequence = []string{"red", "blue", "green"}
	s.CurrentRound = 2
	s.CurrentPlayerTurn = 1
	s.Player1Score = 1
	s.Player2Score = 5
	return s
}

func TestNewState(t *testing.T) {
	s := NewState()
	assert.Empty(t, s.Sequence)
	assert.NotNil(t, s.Sequence)
	assert.Equal(t, 0, s.CurrentRound)
	assert.Equal(t, 1, s.CurrentPlayerTurn)
	assert.Equal(t, StatusWaiting, s.Status)
	assert.Nil(t, s.WinnerID)
	assert.Nil(t, s.PlayerLeft)
}

func TestApply_ScenarioF_SparsePatch(t *testing.T) {
	before := playingState()
	before.IsShowingSequence = true
	before.Player2Finished = true

	after, err := Apply(before, Patch{Player1Score: ptr(3)}, testPlayers())
	require.NoError(t, err)

	want := before
	want.Player1Score = 3
	assert.Equal(t, want, after)
}

func TestApply_RoundAdvanceFlipsTurnOnce(t *testing.T) {
	for _, prior := range []int{1, 2} {
		s := playingState()
		s.CurrentPlayerTurn = prior

		next, err := Apply(s, Patch{CurrentRound: ptr(s.CurrentRound + 1)}, testPlayers())
		require.NoError(t, err)
		assert.Equal(t, otherSlot(prior), next.CurrentPlayerTurn)

		// 手番を明示しても、反転は1回だけ
		next, err = Apply(s, Patch{CurrentRound: ptr(s.CurrentRound + 3), CurrentPlayerTurn: ptr(prior)}, testPlayers())
		require.NoError(t, err)
		assert.Equal(t, otherSlot(prior), next.CurrentPlayerTurn)
		assert.Equal(t, s.CurrentRound+3, next.CurrentRound)
	}
}

func TestApply_SameRoundKeepsTurn(t *testing.T) {
	s := playingState()

	next, err := Apply(s, Patch{CurrentRound: ptr(s.CurrentRound), CurrentPlayerTurn: ptr(1)}, testPlayers())
	require.NoError(t, err)
	assert.Equal(t, 1, next.CurrentPlayerTurn)

	_, err = Apply(s, Patch{CurrentPlayerTurn: ptr(2)}, testPlayers())
	assert.ErrorIs(t, err, ErrInvalidUpdate)
}

func TestApply_RejectsInvalidPatches(t *testing.T) {
	cases := []struct {
		name  string
		patch Patch
	}{
		{"round goes backwards", Patch{CurrentRound: ptr(1)}},
		{"turn out of range", Patch{CurrentPlayerTurn: ptr(3)}},
		{"negative score", Patch{Player2Score: ptr(-1)}},
		{"unknown status", Patch{Status: ptr(Status("paused"))}},
		{"back to waiting", Patch{Status: ptr(StatusWaiting)}},
		{"winner while playing", Patch{WinnerID: Some(uint(10))}},
		{"player left out of range", Patch{PlayerLeft: Some(0)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := playingState()
			got, err := Apply(s, tc.patch, testPlayers())
			assert.ErrorIs(t, err, ErrInvalidUpdate)
			assert.Equal(t, s, got)
		})
	}
}

func TestApply_ScenarioD_PlayerLeftFinishesGame(t *testing.T) {
	s := playingState() // プレイヤー2が5点でリード

	next, err := Apply(s, Patch{PlayerLeft: Some(1)}, testPlayers())
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, next.Status)
	require.NotNil(t, next.WinnerID)
	assert.Equal(t, uint(20), *next.WinnerID)
	require.NotNil(t, next.PlayerLeft)
	assert.Equal(t, 1, *next.PlayerLeft)

	// 得点で負けていても、残ったプレイヤーが勝者
	next, err = Apply(s, Patch{PlayerLeft: Some(2), WinnerID: Some(uint(20)), Status: ptr(StatusPlaying)}, testPlayers())
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, next.Status)
	assert.Equal(t, uint(10), *next.WinnerID)
}

func TestApply_PlayerLeftWhileWaiting(t *testing.T) {
	s := NewState()
	next, err := Apply(s, Patch{PlayerLeft: Some(1)}, Players{Player1ID: 10})
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, next.Status)
	assert.Nil(t, next.WinnerID)
}

func TestApply_FinishDerivesWinnerFromScores(t *testing.T) {
	s := playingState()

	next, err := Apply(s, Patch{Status: ptr(StatusFinished)}, testPlayers())
	require.NoError(t, err)
	require.NotNil(t, next.WinnerID)
	assert.Equal(t, uint(20), *next.WinnerID)

	next, err = Apply(s, Patch{Status: ptr(StatusFinished), Player1Score: ptr(5)}, testPlayers())
	require.NoError(t, err)
	assert.Nil(t, next.WinnerID, "tie has no winner")

	next, err = Apply(s, Patch{Status: ptr(StatusFinished), WinnerID: Some(uint(10))}, testPlayers())
	require.NoError(t, err)
	assert.Equal(t, uint(10), *next.WinnerID)
}

func TestApply_FinishedIsTerminal(t *testing.T) {
	s := playingState()
	s.Status = StatusFinished
	s.WinnerID = ptr(uint(20))

	_, err := Apply(s, Patch{Status: ptr(StatusPlaying)}, testPlayers())
	assert.ErrorIs(t, err, ErrGameFinished)

	_, err = Apply(s, Patch{Player1Score: ptr(9)}, testPlayers())
	assert.ErrorIs(t, err, ErrGameFinished)

	next, err := Apply(s, Patch{IsShowingSequence: ptr(true), PlayerLeft: Some(1)}, testPlayers())
	require.NoError(t, err)
	assert.True(t, next.IsShowingSequence)
	assert.Nil(t, next.PlayerLeft)
	assert.Equal(t, uint(20), *next.WinnerID)
}

func TestApply_SequenceReplacedWholesale(t *testing.T) {
	s := playingState()
	seq := []string{"yellow"}

	next, err := Apply(s, Patch{Sequence: &seq}, testPlayers())
	require.NoError(t, err)
	assert.Equal(t, []string{"yellow"}, next.Sequence)

	seq[0] = "mutated"
	assert.Equal(t, []string{"yellow"}, next.Sequence)
	assert.Equal(t, []string{"red", "blue", "green"}, s.Sequence)
}

func TestPatch_UnmarshalDistinguishesNullFromAbsent(t *testing.T) {
	var p Patch
	require.NoError(t, json.Unmarshal([]byte(`{"player1Score":3,"winnerId":null}`), &p))
	assert.Equal(t, 3, *p.Player1Score)
	assert.True(t, p.WinnerID.Set)
	assert.Nil(t, p.WinnerID.Value)
	assert.False(t, p.PlayerLeft.Set)
	assert.Nil(t, p.Sequence)
	assert.Nil(t, p.Status)

	p = Patch{}
	require.NoError(t, json.Unmarshal([]byte(`{"playerLeft":2,"sequence":["red"]}`), &p))
	assert.True(t, p.PlayerLeft.Set)
	assert.Equal(t, 2, *p.PlayerLeft.Value)
	assert.Equal(t, []string{"red"}, *p.Sequence)
}

func TestPlayers_SlotOf(t *testing.T) {
	p := testPlayers()

	slot, ok := p.SlotOf(10)
	assert.True(t, ok)
	assert.Equal(t, 1, slot)

	slot, ok = p.SlotOf(20)
	assert.True(t, ok)
	assert.Equal(t, 2, slot)

	_, ok = p.SlotOf(30)
	assert.False(t, ok)

	_, ok = Players{Player1ID: 10}.SlotOf(0)
	assert.False(t, ok)
}
