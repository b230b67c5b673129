package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/xoxo-backend/internal/repository/storage/sqlite"
)

func newTestHistory(t *testing.T) (context.Context, HistoryRepository) {
	t.Helper()

	ctx := context.Background()

	storage, err := sqlite.New(filepath.Join(t.TempDir(), "xoxo-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = storage.Close()
	})

	require.NoError(t, storage.Init(ctx))

	return ctx, NewHistoryRepository(storage.Connection)
}

func record(playerID, result string, finishedAt time.Time) *Record {
	return &Record{
		PlayerID:     playerID,
		PlayerName:   "name-" + playerID,
		OpponentName: "rival",
		GridSize:     3,
		Result:       result,
		FinishedAt:   finishedAt,
	}
}

func TestHistoryRepository(t *testing.T) {
	t.Run("Saves and lists records for one player", func(t *testing.T) {
		ctx, repo := newTestHistory(t)

		now := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, repo.Save(ctx, record("p1", "win", now)))
		require.NoError(t, repo.Save(ctx, record("p2", "loss", now)))

		records, err := repo.ListByPlayer(ctx, "p1", 10)

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "p1", records[0].PlayerID)
		assert.Equal(t, "name-p1", records[0].PlayerName)
		assert.Equal(t, "rival", records[0].OpponentName)
		assert.Equal(t, 3, records[0].GridSize)
		assert.Equal(t, "win", records[0].Result)
	})

	t.Run("Lists newest records first and honors the limit", func(t *testing.T) {
		ctx, repo := newTestHistory(t)

		base := time.Now().UTC().Truncate(time.Second)
		for i, result := range []string{"loss", "draw", "win"} {
			require.NoError(t, repo.Save(ctx, record("p1", result, base.Add(time.Duration(i)*time.Minute))))
		}

		records, err := repo.ListByPlayer(ctx, "p1", 2)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "win", records[0].Result)
		assert.Equal(t, "draw", records[1].Result)
	})

	t.Run("Returns nothing for an unknown player", func(t *testing.T) {
		ctx, repo := newTestHistory(t)

		records, err := repo.ListByPlayer(ctx, "ghost", 10)

		require.NoError(t, err)
		assert.Empty(t, records)
	})
}
