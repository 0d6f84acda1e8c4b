package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"simonserver/models"
	"simonserver/simon"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: は接続ごとに別のDBになるため1本に固定
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return NewStore(db)
}

func createRoom(t *testing.T, s *Store, hostID uint, status models.RoomStatus, createdAt time.Time) *models.Room {
	t.Helper()
	room := &models.Room{Name: "room", Player1ID: hostID, Status: status}
	room.CreatedAt = createdAt
	require.NoError(t, room.SetColors(simon.Palette{{Name: "red"}, {Name: "blue"}}))
	if status != models.RoomStatusWaiting {
		opponent := hostID + 100
		room.Player2ID = &opponent
	}
	require.NoError(t, s.CreateRoom(context.Background(), room))
	return room
}

func TestStore_FindRoom(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	room := createRoom(t, s, 1, models.RoomStatusWaiting, time.Now())

	got, err := s.FindRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), got.Player1ID)
	assert.Nil(t, got.Player2ID)
	assert.Equal(t, 2, got.ColorCount)

	palette, err := got.Colors()
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "blue"}, palette.Tokens())

	_, err = s.FindRoom(ctx, room.ID+99)
	assert.ErrorIs(t, err, simon.ErrRoomNotFound)
}

func TestStore_ListWaitingRooms_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().Add(-time.Hour)

	older := createRoom(t, s, 1, models.RoomStatusWaiting, base)
	createRoom(t, s, 2, models.RoomStatusStarted, base.Add(time.Minute))
	newer := createRoom(t, s, 3, models.RoomStatusWaiting, base.Add(2*time.Minute))
	createRoom(t, s, 4, models.RoomStatusFinished, base.Add(3*time.Minute))

	rooms, err := s.ListWaitingRooms(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, newer.ID, rooms[0].ID)
	assert.Equal(t, older.ID, rooms[1].ID)

	rooms, err = s.ListWaitingRooms(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, newer.ID, rooms[0].ID)
}

func TestStore_JoinRoom_Conditional(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	room := createRoom(t, s, 1, models.RoomStatusWaiting, time.Now())

	ok, err := s.JoinRoom(ctx, room.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok, "host cannot take the opponent seat")

	ok, err = s.JoinRoom(ctx, room.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.JoinRoom(ctx, room.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.FindRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusStarted, got.Status)
	require.NotNil(t, got.Player2ID)
	assert.Equal(t, uint(2), *got.Player2ID)
}

func TestStore_CreateGameStateIfAbsent_SingleRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	room := createRoom(t, s, 1, models.RoomStatusStarted, time.Now())

	var wg sync.WaitGroup
	ids := make([]uint, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			game, err := s.CreateGameStateIfAbsent(ctx, models.NewGameState(room.ID))
			errs[i] = err
			if err == nil {
				ids[i] = game.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var count int64
	require.NoError(t, s.db.Model(&models.GameState{}).Where("room_id = ?", room.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	game, err := s.FindGameState(ctx, room.ID)
	require.NoError(t, err)
	state, err := game.State()
	require.NoError(t, err)
	assert.Equal(t, simon.NewState(), state)
}

func TestStore_FindGameState_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.FindGameState(context.Background(), 42)
	assert.ErrorIs(t, err, simon.ErrGameNotFound)
}

func TestStore_SaveGameState_FinishesRoom(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	room := createRoom(t, s, 1, models.RoomStatusStarted, time.Now())
	game, err := s.CreateGameStateIfAbsent(ctx, models.NewGameState(room.ID))
	require.NoError(t, err)

	game.Player1Score = 3
	require.NoError(t, s.SaveGameState(ctx, game, false))
	got, err := s.FindRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusStarted, got.Status)

	game.Status = simon.StatusFinished
	require.NoError(t, s.SaveGameState(ctx, game, true))
	got, err = s.FindRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusFinished, got.Status)

	saved, err := s.FindGameState(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, saved.Player1Score)
	assert.Equal(t, simon.StatusFinished, saved.Status)
}

func TestStore_PurgeFinishedRooms(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	finished := createRoom(t, s, 1, models.RoomStatusFinished, time.Now())
	active := createRoom(t, s, 2, models.RoomStatusStarted, time.Now())
	for _, room := range []*models.Room{finished, active} {
		_, err := s.CreateGameStateIfAbsent(ctx, models.NewGameState(room.ID))
		require.NoError(t, err)
	}

	n, err := s.PurgeFinishedRooms(ctx, time.Date(2000, 1, 1, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = s.PurgeFinishedRooms(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.FindRoom(ctx, finished.ID)
	assert.ErrorIs(t, err, simon.ErrRoomNotFound)
	_, err = s.FindGameState(ctx, finished.ID)
	assert.ErrorIs(t, err, simon.ErrGameNotFound)

	_, err = s.FindRoom(ctx, active.ID)
	assert.NoError(t, err)
	_, err = s.FindGameState(ctx, active.ID)
	assert.NoError(t, err)
}
