package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/xoxo-backend/internal/repository"
)

type fakeLister struct {
	records   []*repository.Record
	err       error
	lastLimit int
}

func (that *fakeLister) ListByPlayer(_ context.Context, _ string, limit int) ([]*repository.Record, error) {
	that.lastLimit = limit
	return that.records, that.err
}

func TestHistoryHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Returns the player's records as JSON", func(t *testing.T) {
		lister := &fakeLister{records: []*repository.Record{{
			PlayerID:     "p1",
			PlayerName:   "alice",
			OpponentName: "bob",
			GridSize:     3,
			Result:       "win",
			FinishedAt:   time.Now().UTC(),
		}}}
		handler := historyHandler(logger, lister)

		recorder := httptest.NewRecorder()
		handler(recorder, httptest.NewRequest(http.MethodGet, "/history?player_id=p1", nil))

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

		var records []*repository.Record
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &records))
		require.Len(t, records, 1)
		assert.Equal(t, "alice", records[0].PlayerName)
		assert.Equal(t, "win", records[0].Result)
		assert.Equal(t, defaultHistoryLimit, lister.lastLimit)
	})

	t.Run("Requires a player_id", func(t *testing.T) {
		handler := historyHandler(logger, &fakeLister{})

		recorder := httptest.NewRecorder()
		handler(recorder, httptest.NewRequest(http.MethodGet, "/history", nil))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Rejects a non-numeric or non-positive limit", func(t *testing.T) {
		handler := historyHandler(logger, &fakeLister{})

		for _, raw := range []string{"abc", "0", "-5"} {
			recorder := httptest.NewRecorder()
			handler(recorder, httptest.NewRequest(http.MethodGet, "/history?player_id=p1&limit="+raw, nil))

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		}
	})

	t.Run("Caps the limit", func(t *testing.T) {
		lister := &fakeLister{}
		handler := historyHandler(logger, lister)

		recorder := httptest.NewRecorder()
		handler(recorder, httptest.NewRequest(http.MethodGet, "/history?player_id=p1&limit=9000", nil))

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, maxHistoryLimit, lister.lastLimit)
	})

	t.Run("A player without records gets an empty list, not null", func(t *testing.T) {
		handler := historyHandler(logger, &fakeLister{})

		recorder := httptest.NewRecorder()
		handler(recorder, httptest.NewRequest(http.MethodGet, "/history?player_id=ghost", nil))

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "[]\n", recorder.Body.String())
	})

	t.Run("Storage failures surface as a 500", func(t *testing.T) {
		handler := historyHandler(logger, &fakeLister{err: errors.New("database is locked")})

		recorder := httptest.NewRecorder()
		handler(recorder, httptest.NewRequest(http.MethodGet, "/history?player_id=p1", nil))

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}
