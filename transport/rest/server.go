package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rocketscienceinc/xoxo-backend/internal/repository"
	"github.com/rocketscienceinc/xoxo-backend/pkg/handlers"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type historyLister interface {
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]*repository.Record, error)
}

func Start(logger *slog.Logger, port string, history historyLister) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", handlers.PingHandler)
	mux.HandleFunc("/history", historyHandler(logger.With("component", "rest"), history))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// historyHandler serves a player's recent match records, newest first.
func historyHandler(logger *slog.Logger, history historyLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With("method", "historyHandler")

		playerID := r.URL.Query().Get("player_id")
		if playerID == "" {
			http.Error(w, "player_id is required", http.StatusBadRequest)
			return
		}

		limit := defaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				http.Error(w, "limit must be a positive number", http.StatusBadRequest)
				return
			}
			limit = parsed
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}

		records, err := history.ListByPlayer(r.Context(), playerID, limit)
		if err != nil {
			log.Error("failed to list match records", "playerID", playerID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if records == nil {
			records = []*repository.Record{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err = json.NewEncoder(w).Encode(records); err != nil {
			log.Error("failed to encode match records", "playerID", playerID, "error", err)
		}
	}
}
