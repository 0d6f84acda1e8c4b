package services

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"simonserver/database"
	"simonserver/models"
	"simonserver/simon"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore は Store のメモリ実装。返す値は常にコピーです。
type fakeStore struct {
	mu         sync.Mutex
	nextRoomID uint
	nextGameID uint
	rooms      map[uint]models.Room
	games      map[uint]models.GameState // room_id ごと
	inserts    int

	// beforeJoin は条件付き更新の直前に呼ばれます。競合の再現に使います。
	beforeJoin func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms: make(map[uint]models.Room),
		games: make(map[uint]models.GameState),
	}
}

func copyGame(g models.GameState) *models.GameState {
	g.Sequence = append([]byte(nil), g.Sequence...)
	return &g
}

func (f *fakeStore) CreateRoom(_ context.Context, room *models.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextRoomID++
	room.ID = f.nextRoomID
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now()
	}
	room.UpdatedAt = room.CreatedAt
	f.rooms[room.ID] = *room
	return nil
}

func (f *fakeStore) FindRoom(_ context.Context, id uint) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return nil, simon.ErrRoomNotFound
	}
	return &room, nil
}

func (f *fakeStore) ListWaitingRooms(_ context.Context, limit int) ([]models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rooms []models.Room
	for _, room := range f.rooms {
		if room.Status == models.RoomStatusWaiting {
			rooms = append(rooms, room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		if !rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
		}
		return rooms[i].ID > rooms[j].ID
	})
	if len(rooms) > limit {
		rooms = rooms[:limit]
	}
	return rooms, nil
}

func (f *fakeStore) JoinRoom(_ context.Context, id, joinerID uint) (bool, error) {
	if f.beforeJoin != nil {
		f.beforeJoin()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok || room.Status != models.RoomStatusWaiting || room.Player2ID != nil || room.Player1ID == joinerID {
		return false, nil
	}
	room.Player2ID = &joinerID
	room.Status = models.RoomStatusStarted
	f.rooms[id] = room
	return true, nil
}

func (f *fakeStore) FindGameState(_ context.Context, roomID uint) (*models.GameState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	game, ok := f.games[roomID]
	if !ok {
		return nil, simon.ErrGameNotFound
	}
	return copyGame(game), nil
}

func (f *fakeStore) CreateGameStateIfAbsent(_ context.Context, game *models.GameState) (*models.GameState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.games[game.RoomID]; ok {
		return copyGame(existing), nil
	}
	f.nextGameID++
	f.inserts++
	game.ID = f.nextGameID
	f.games[game.RoomID] = *copyGame(*game)
	return copyGame(*game), nil
}

func (f *fakeStore) SaveGameState(_ context.Context, game *models.GameState, finishRoom bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.games[game.RoomID] = *copyGame(*game)
	if finishRoom {
		room := f.rooms[game.RoomID]
		room.Status = models.RoomStatusFinished
		f.rooms[game.RoomID] = room
	}
	return nil
}

// putRoom はテスト用にルームを直接登録します。
func (f *fakeStore) putRoom(t *testing.T, hostID uint, opponentID *uint, status models.RoomStatus) *models.Room {
	t.Helper()
	room := &models.Room{Name: "test room", Player1ID: hostID, Player2ID: opponentID, Status: status}
	require.NoError(t, room.SetColors(simon.Palette{
		{Name: "red", Hex: "#FF4444"},
		{Name: "blue", Hex: "#4444FF"},
		{Name: "green", Hex: "#44FF44"},
		{Name: "yellow", Hex: "#FFFF44"},
	}))
	require.NoError(t, f.CreateRoom(context.Background(), room))
	return room
}

// putGame はテスト用にゲーム状態を直接登録します。
func (f *fakeStore) putGame(t *testing.T, roomID uint, state simon.State) {
	t.Helper()
	game := models.NewGameState(roomID)
	require.NoError(t, game.Assign(state))
	_, err := f.CreateGameStateIfAbsent(context.Background(), game)
	require.NoError(t, err)
}

func (f *fakeStore) game(t *testing.T, roomID uint) simon.State {
	t.Helper()
	record, err := f.FindGameState(context.Background(), roomID)
	require.NoError(t, err)
	state, err := record.State()
	require.NoError(t, err)
	return state
}

func (f *fakeStore) room(t *testing.T, roomID uint) models.Room {
	t.Helper()
	room, err := f.FindRoom(context.Background(), roomID)
	require.NoError(t, err)
	return *room
}

const (
	hostID     uint = 10
	opponentID uint = 20
)

func newTestServices(t *testing.T, logger *zap.Logger) (*fakeStore, *RoomService, *GameService) {
	t.Helper()
	if logger == nil {
		logger = zap.NewNop()
	}
	store := newFakeStore()
	rnd := rand.New(rand.NewSource(1))
	games := NewGameService(store, database.NewLocalLocker(), simon.NewGenerator(rnd), logger)
	rooms := NewRoomService(store, games, simon.NewResolver(simon.DefaultBaseColors(), rnd), logger)
	return store, rooms, games
}

func uintPtr(v uint) *uint { return &v }
