package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/xoxo-backend/internal/entity"
	"github.com/rocketscienceinc/xoxo-backend/internal/repository"
)

const (
	reportBuffer = 256
	saveTimeout  = 5 * time.Second
)

type historyRepo interface {
	Save(ctx context.Context, record *repository.Record) error
}

type gameMeterRepo interface {
	Incr(ctx context.Context, playerID string) error
}

// Reporter is the result sink: a one-way, best-effort channel from the room
// state machine to persistence. Report never blocks and never fails the
// caller; the in-memory transition has already committed by the time a game
// reaches the reporter, so errors are logged and swallowed.
type Reporter struct {
	logger  *slog.Logger
	history historyRepo
	meter   gameMeterRepo

	jobs chan *entity.Game
}

func NewReporter(logger *slog.Logger, history historyRepo, meter gameMeterRepo) *Reporter {
	return &Reporter{
		logger:  logger.With("component", "reporter"),
		history: history,
		meter:   meter,
		jobs:    make(chan *entity.Game, reportBuffer),
	}
}

// Report enqueues a finished game for recording. Drops the report with a log
// entry when the buffer is full rather than stalling gameplay.
func (that *Reporter) Report(game *entity.Game) {
	if game == nil || game.Outcome == nil {
		return
	}

	select {
	case that.jobs <- game:
	default:
		that.logger.Error("report buffer full, dropping outcome", "gameID", game.ID)
	}
}

// Run drains the report queue until the context is canceled.
func (that *Reporter) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	for {
		select {
		case <-ctx.Done():
			log.Info("reporter stopped")
			return
		case game := <-that.jobs:
			that.record(ctx, game)
		}
	}
}

// record persists one history row and one meter bump per participant.
func (that *Reporter) record(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "record", "gameID", game.ID)

	saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	finishedAt := time.Now().UTC()

	for mark, player := range game.Players {
		record := &repository.Record{
			PlayerID:     player.ID,
			PlayerName:   player.Name,
			OpponentName: game.Opponent(mark).Name,
			GridSize:     game.GridSize,
			Result:       resultFor(game.Outcome, mark),
			FinishedAt:   finishedAt,
		}

		if err := that.history.Save(saveCtx, record); err != nil {
			log.Error("failed to save match record", "playerID", player.ID, "error", err)
		}

		if err := that.meter.Incr(saveCtx, player.ID); err != nil {
			log.Error("failed to bump game meter", "playerID", player.ID, "error", err)
		}
	}
}

// resultFor translates a room outcome into one participant's result. A
// forfeit counts as a win for the remaining player and a loss for the one
// who left.
func resultFor(outcome *entity.Outcome, mark string) string {
	if outcome.Result == entity.ResultDraw {
		return "draw"
	}

	if outcome.Winner == mark {
		return "win"
	}

	return "loss"
}
