package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/xoxo-backend/internal/apperror"
	"github.com/rocketscienceinc/xoxo-backend/internal/entity"
	"github.com/rocketscienceinc/xoxo-backend/internal/matchmaking"
	"github.com/rocketscienceinc/xoxo-backend/internal/room"
	"github.com/rocketscienceinc/xoxo-backend/internal/session"
)

// fakeGate admits everyone except the IDs in blocked.
type fakeGate struct {
	mu      sync.Mutex
	blocked map[string]bool
}

func (that *fakeGate) IsAdmitted(_ context.Context, playerID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()
	return !that.blocked[playerID]
}

func (that *fakeGate) block(playerID string) {
	that.mu.Lock()
	defer that.mu.Unlock()
	if that.blocked == nil {
		that.blocked = make(map[string]bool)
	}
	that.blocked[playerID] = true
}

// fakeSink records every reported game.
type fakeSink struct {
	mu    sync.Mutex
	games []*entity.Game
}

func (that *fakeSink) Report(game *entity.Game) {
	that.mu.Lock()
	that.games = append(that.games, game)
	that.mu.Unlock()
}

func (that *fakeSink) reported() []*entity.Game {
	that.mu.Lock()
	defer that.mu.Unlock()
	return append([]*entity.Game(nil), that.games...)
}

type engineFixture struct {
	engine *Engine
	gate   *fakeGate
	sink   *fakeSink
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := &fakeGate{}
	sink := &fakeSink{}
	rooms := room.NewRegistry(logger)
	queue := matchmaking.NewQueue(logger, rooms, matchmaking.PolicyRequeue)
	engine := NewEngine(logger, session.NewRegistry(), rooms, queue, gate, sink, []int{3, 5})

	return &engineFixture{engine: engine, gate: gate, sink: sink}
}

// pair joins two sessions and matches them on a 3x3 room.
func (that *engineFixture) pair(t *testing.T, first, second string) *entity.Game {
	t.Helper()
	ctx := context.Background()

	for _, sessionID := range []string{first, second} {
		_, err := that.engine.Join(ctx, sessionID, "name-"+sessionID)
		require.NoError(t, err)
	}

	result, err := that.engine.FindMatch(ctx, first, 3)
	require.NoError(t, err)
	require.False(t, result.Matched)

	result, err = that.engine.FindMatch(ctx, second, 3)
	require.NoError(t, err)
	require.True(t, result.Matched)

	return result.Game
}

func TestEngine_Join(t *testing.T) {
	t.Run("Registers an admitted player", func(t *testing.T) {
		fixture := newEngineFixture(t)

		player, err := fixture.engine.Join(context.Background(), "s1", "  alice  ")

		require.NoError(t, err)
		assert.Equal(t, "s1", player.ID)
		assert.Equal(t, "alice", player.Name)
	})

	t.Run("Rejects a limited player before registering", func(t *testing.T) {
		fixture := newEngineFixture(t)
		fixture.gate.block("s1")

		_, err := fixture.engine.Join(context.Background(), "s1", "alice")

		assert.ErrorIs(t, err, apperror.ErrLimitReached)
	})

	t.Run("Rejects an empty name", func(t *testing.T) {
		fixture := newEngineFixture(t)

		_, err := fixture.engine.Join(context.Background(), "s1", "   ")

		assert.ErrorIs(t, err, apperror.ErrNameRequired)
	})
}

func TestEngine_FindMatch(t *testing.T) {
	t.Run("Pairs two joined players into a room", func(t *testing.T) {
		fixture := newEngineFixture(t)

		game := fixture.pair(t, "s1", "s2")

		assert.True(t, game.IsActive())
		assert.Equal(t, "s1", game.Players[entity.PlayerX].ID)
		assert.Equal(t, "name-s2", game.Players[entity.PlayerO].Name)
	})

	t.Run("Rejects an unknown session", func(t *testing.T) {
		fixture := newEngineFixture(t)

		_, err := fixture.engine.FindMatch(context.Background(), "ghost", 3)

		assert.ErrorIs(t, err, apperror.ErrSessionNotFound)
	})

	t.Run("Rejects a grid size outside the whitelist", func(t *testing.T) {
		fixture := newEngineFixture(t)

		_, err := fixture.engine.Join(context.Background(), "s1", "alice")
		require.NoError(t, err)

		_, err = fixture.engine.FindMatch(context.Background(), "s1", 4)

		assert.ErrorIs(t, err, apperror.ErrInvalidGridSize)
	})

	t.Run("Rejects a player who hit their limit after joining", func(t *testing.T) {
		fixture := newEngineFixture(t)

		_, err := fixture.engine.Join(context.Background(), "s1", "alice")
		require.NoError(t, err)
		fixture.gate.block("s1")

		_, err = fixture.engine.FindMatch(context.Background(), "s1", 3)

		assert.ErrorIs(t, err, apperror.ErrLimitReached)
	})

	t.Run("Rejects a player already waiting", func(t *testing.T) {
		fixture := newEngineFixture(t)

		_, err := fixture.engine.Join(context.Background(), "s1", "alice")
		require.NoError(t, err)
		_, err = fixture.engine.FindMatch(context.Background(), "s1", 3)
		require.NoError(t, err)

		_, err = fixture.engine.FindMatch(context.Background(), "s1", 5)

		assert.ErrorIs(t, err, apperror.ErrAlreadyQueued)
	})

	t.Run("Rejects a player already in an active room", func(t *testing.T) {
		fixture := newEngineFixture(t)
		fixture.pair(t, "s1", "s2")

		_, err := fixture.engine.FindMatch(context.Background(), "s1", 3)

		assert.ErrorIs(t, err, apperror.ErrAlreadyInRoom)
	})

	t.Run("Abandons a finished room so the player can search again", func(t *testing.T) {
		fixture := newEngineFixture(t)
		game := fixture.pair(t, "s1", "s2")
		playOutTopRowWin(t, fixture.engine, game.ID, "s1", "s2")

		// When: the winner searches for a new match
		result, err := fixture.engine.FindMatch(context.Background(), "s1", 3)

		// Then: the finished room no longer blocks the search
		require.NoError(t, err)
		assert.False(t, result.Matched)

		_, err = fixture.engine.CurrentRoom("s1")
		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestEngine_CancelSearch(t *testing.T) {
	t.Run("Removes the waiting entry and reports whether one existed", func(t *testing.T) {
		fixture := newEngineFixture(t)

		_, err := fixture.engine.Join(context.Background(), "s1", "alice")
		require.NoError(t, err)
		_, err = fixture.engine.FindMatch(context.Background(), "s1", 3)
		require.NoError(t, err)

		removed, err := fixture.engine.CancelSearch("s1")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = fixture.engine.CancelSearch("s1")
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestEngine_MakeTurn(t *testing.T) {
	t.Run("Applies a move and reports nothing before the end", func(t *testing.T) {
		fixture := newEngineFixture(t)
		game := fixture.pair(t, "s1", "s2")

		result, err := fixture.engine.MakeTurn(context.Background(), "s1", game.ID, 0)

		require.NoError(t, err)
		assert.False(t, result.Terminal)
		assert.Empty(t, fixture.sink.reported())
	})

	t.Run("Reports a terminal result to the sink exactly once", func(t *testing.T) {
		fixture := newEngineFixture(t)
		game := fixture.pair(t, "s1", "s2")

		playOutTopRowWin(t, fixture.engine, game.ID, "s1", "s2")

		reported := fixture.sink.reported()
		require.Len(t, reported, 1)
		assert.Equal(t, entity.ResultWin, reported[0].Outcome.Result)
		assert.Equal(t, entity.PlayerX, reported[0].Outcome.Winner)
	})
}

func TestEngine_Restart(t *testing.T) {
	t.Run("Resets a finished room for the same pair", func(t *testing.T) {
		fixture := newEngineFixture(t)
		game := fixture.pair(t, "s1", "s2")
		playOutTopRowWin(t, fixture.engine, game.ID, "s1", "s2")

		restarted, err := fixture.engine.Restart("s2", game.ID)

		require.NoError(t, err)
		assert.True(t, restarted.IsActive())
		assert.Equal(t, "s1", restarted.Players[entity.PlayerX].ID)
	})

	t.Run("Refuses a restart while the match is running", func(t *testing.T) {
		fixture := newEngineFixture(t)
		game := fixture.pair(t, "s1", "s2")

		_, err := fixture.engine.Restart("s1", game.ID)

		assert.ErrorIs(t, err, apperror.ErrRoomStillActive)
	})
}

func TestEngine_Leave(t *testing.T) {
	t.Run("Forfeits an active room and reports the result", func(t *testing.T) {
		fixture := newEngineFixture(t)
		game := fixture.pair(t, "s1", "s2")

		departure, err := fixture.engine.Leave(context.Background(), "s1", game.ID)

		require.NoError(t, err)
		assert.True(t, departure.Forfeited)
		assert.Equal(t, entity.PlayerO, departure.Game.Outcome.Winner)

		reported := fixture.sink.reported()
		require.Len(t, reported, 1)
		assert.Equal(t, entity.ResultForfeit, reported[0].Outcome.Result)
	})

	t.Run("Leaving a finished room reports nothing further", func(t *testing.T) {
		fixture := newEngineFixture(t)
		game := fixture.pair(t, "s1", "s2")
		playOutTopRowWin(t, fixture.engine, game.ID, "s1", "s2")

		departure, err := fixture.engine.Leave(context.Background(), "s2", game.ID)

		require.NoError(t, err)
		assert.False(t, departure.Forfeited)
		// Only the win itself was reported.
		assert.Len(t, fixture.sink.reported(), 1)
	})
}

func TestEngine_Disconnect(t *testing.T) {
	t.Run("Cleans up a waiting player without touching any room", func(t *testing.T) {
		fixture := newEngineFixture(t)

		_, err := fixture.engine.Join(context.Background(), "s1", "alice")
		require.NoError(t, err)
		_, err = fixture.engine.FindMatch(context.Background(), "s1", 3)
		require.NoError(t, err)

		departure, err := fixture.engine.Disconnect(context.Background(), "s1")

		require.NoError(t, err)
		assert.Nil(t, departure)
		assert.Empty(t, fixture.sink.reported())

		// The session is gone.
		_, err = fixture.engine.FindMatch(context.Background(), "s1", 3)
		assert.ErrorIs(t, err, apperror.ErrSessionNotFound)
	})

	t.Run("Forfeits the active room and reports it once", func(t *testing.T) {
		fixture := newEngineFixture(t)
		fixture.pair(t, "s1", "s2")

		departure, err := fixture.engine.Disconnect(context.Background(), "s2")

		require.NoError(t, err)
		require.NotNil(t, departure)
		assert.True(t, departure.Forfeited)
		assert.Equal(t, entity.PlayerO, departure.Game.Outcome.ForfeitedBy)
		assert.Len(t, fixture.sink.reported(), 1)

		_, err = fixture.engine.CurrentRoom("s1")
		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Both players disconnecting produces a single report", func(t *testing.T) {
		fixture := newEngineFixture(t)
		fixture.pair(t, "s1", "s2")

		var wg sync.WaitGroup
		for _, sessionID := range []string{"s1", "s2"} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := fixture.engine.Disconnect(context.Background(), id)
				assert.NoError(t, err)
			}(sessionID)
		}
		wg.Wait()

		assert.Len(t, fixture.sink.reported(), 1)
	})
}

// playOutTopRowWin drives the room to an X win on the top row.
func playOutTopRowWin(t *testing.T, engine *Engine, roomID, xSession, oSession string) {
	t.Helper()
	ctx := context.Background()

	for _, move := range []struct {
		sessionID string
		cell      int
	}{
		{xSession, 0}, {oSession, 4}, {xSession, 1}, {oSession, 5}, {xSession, 2},
	} {
		_, err := engine.MakeTurn(ctx, move.sessionID, roomID, move.cell)
		require.NoError(t, err)
	}
}
