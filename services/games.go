package services

import (
	"context"
	"errors"
	"fmt"

	"simonserver/models"
	"simonserver/simon"

	"go.uber.org/zap"
)

// Game は保存済みレコードと、そこから復元した状態、所属するルームの組
type Game struct {
	Record *models.GameState
	State  simon.State
	Room   *models.Room
}

// GameService はゲーム状態の初期化と更新をルーム単位で直列化して行います。
type GameService struct {
	store  Store
	locker Locker
	gen    *simon.Generator
	logger *zap.Logger
}

func NewGameService(store Store, locker Locker, gen *simon.Generator, logger *zap.Logger) *GameService {
	return &GameService{store: store, locker: locker, gen: gen, logger: logger}
}

// Initialize はルームのゲーム状態を取得し、なければ初期状態で作成します。何度呼んでもレコードは1件です。
func (s *GameService) Initialize(ctx context.Context, roomID uint) (*Game, error) {
	room, err := s.store.FindRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, roomLockKey(roomID))
	if err != nil {
		return nil, fmt.Errorf("lock room %d: %w", roomID, err)
	}
	defer unlock()

	record, err := s.findOrCreate(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &Game{Record: record, State: s.decode(record), Room: room}, nil
}

// Get は Initialize と同じく、未作成なら初期状態を作ってから返します。
func (s *GameService) Get(ctx context.Context, roomID uint) (*Game, error) {
	return s.Initialize(ctx, roomID)
}

// ApplyUpdate は部分更新を適用します。呼び出し元はルームの参加者である必要があります。
func (s *GameService) ApplyUpdate(ctx context.Context, roomID, callerID uint, patch simon.Patch) (*Game, error) {
	return s.mutate(ctx, roomID, false, func(room *models.Room, state simon.State) (simon.State, error) {
		if _, ok := room.Players().SlotOf(callerID); !ok {
			return state, simon.ErrNotAPlayer
		}
		return simon.Apply(state, patch, room.Players())
	})
}

// Start は両者がそろったルームの試合を開始します。
func (s *GameService) Start(ctx context.Context, roomID, callerID uint) (*Game, error) {
	return s.mutate(ctx, roomID, true, func(room *models.Room, state simon.State) (simon.State, error) {
		if _, ok := room.Players().SlotOf(callerID); !ok {
			return state, simon.ErrNotAPlayer
		}
		if state.Status == simon.StatusFinished {
			return state, simon.ErrGameFinished
		}
		if room.Status != models.RoomStatusStarted || room.Player2ID == nil {
			return state, fmt.Errorf("room %d is %s: %w", room.ID, room.Status, simon.ErrRoomUnavailable)
		}
		palette, err := room.Colors()
		if err != nil {
			return state, err
		}
		return simon.Start(state, palette.Tokens(), s.gen)
	})
}

// RecordMove は手番のプレイヤーの入力を判定して状態を進めます。
func (s *GameService) RecordMove(ctx context.Context, roomID, callerID uint, input []string) (*Game, simon.MoveResult, error) {
	var result simon.MoveResult
	game, err := s.mutate(ctx, roomID, false, func(room *models.Room, state simon.State) (simon.State, error) {
		slot, ok := room.Players().SlotOf(callerID)
		if !ok {
			return state, simon.ErrNotAPlayer
		}
		palette, err := room.Colors()
		if err != nil {
			return state, err
		}
		next, res, err := simon.RecordMove(state, slot, input, palette.Tokens(), s.gen, room.Players())
		result = res
		return next, err
	})
	if err != nil {
		return nil, simon.MoveResult{}, err
	}
	return game, result, nil
}

// Leave は呼び出し元を途中退出として扱い、相手を勝者にして終了します。
func (s *GameService) Leave(ctx context.Context, roomID, callerID uint) (*Game, error) {
	return s.mutate(ctx, roomID, true, func(room *models.Room, state simon.State) (simon.State, error) {
		slot, ok := room.Players().SlotOf(callerID)
		if !ok {
			return state, simon.ErrNotAPlayer
		}
		return simon.Apply(state, simon.Patch{PlayerLeft: simon.Some(slot)}, room.Players())
	})
}

// mutate はロックを取って状態を読み込み、fn の結果を保存します。
// 試合が終了した場合はルームも同じトランザクションで finished にします。
func (s *GameService) mutate(ctx context.Context, roomID uint, lazy bool, fn func(*models.Room, simon.State) (simon.State, error)) (*Game, error) {
	unlock, err := s.locker.Lock(ctx, roomLockKey(roomID))
	if err != nil {
		return nil, fmt.Errorf("lock room %d: %w", roomID, err)
	}
	defer unlock()

	room, err := s.store.FindRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	var record *models.GameState
	if lazy {
		record, err = s.findOrCreate(ctx, roomID)
	} else {
		record, err = s.store.FindGameState(ctx, roomID)
	}
	if err != nil {
		return nil, err
	}

	next, err := fn(room, s.decode(record))
	if err != nil {
		return nil, err
	}
	if err := record.Assign(next); err != nil {
		return nil, err
	}

	finishRoom := next.Status == simon.StatusFinished && room.Status != models.RoomStatusFinished
	if err := s.store.SaveGameState(ctx, record, finishRoom); err != nil {
		return nil, fmt.Errorf("save game of room %d: %w", roomID, err)
	}
	if finishRoom {
		room.Status = models.RoomStatusFinished
		s.logger.Info("試合が終了しました", zap.Uint("roomID", roomID), zap.Uintp("winnerID", next.WinnerID))
	}
	return &Game{Record: record, State: next, Room: room}, nil
}

func (s *GameService) findOrCreate(ctx context.Context, roomID uint) (*models.GameState, error) {
	record, err := s.store.FindGameState(ctx, roomID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, simon.ErrGameNotFound) {
		return nil, err
	}
	record, err = s.store.CreateGameStateIfAbsent(ctx, models.NewGameState(roomID))
	if err != nil {
		return nil, fmt.Errorf("initialize game of room %d: %w", roomID, err)
	}
	s.logger.Info("ゲーム状態を初期化しました", zap.Uint("roomID", roomID))
	return record, nil
}

// decode は保存された状態を復元します。シーケンスのJSONが壊れている場合は空として扱います。
func (s *GameService) decode(record *models.GameState) simon.State {
	state, err := record.State()
	if err != nil {
		s.logger.Warn("シーケンスを読み込めないため空として扱います",
			zap.Uint("roomID", record.RoomID), zap.Error(err))
	}
	return state
}
