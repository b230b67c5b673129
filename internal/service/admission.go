package service

import (
	"context"
	"log/slog"
)

type gameCounter interface {
	Count(ctx context.Context, playerID string) (int, error)
}

// AdmissionService gates matchmaking behind a daily finished-game limit
// backed by the redis meter. A limit of zero disables the gate.
type AdmissionService struct {
	logger *slog.Logger
	meter  gameCounter
	limit  int
}

func NewAdmissionService(logger *slog.Logger, meter gameCounter, limit int) *AdmissionService {
	return &AdmissionService{
		logger: logger.With("component", "admission"),
		meter:  meter,
		limit:  limit,
	}
}

// IsAdmitted reports whether the player may join or enroll. The gate fails
// open: a meter error admits the player and is only logged, so a redis
// outage degrades metering, not gameplay.
func (that *AdmissionService) IsAdmitted(ctx context.Context, playerID string) bool {
	if that.limit <= 0 {
		return true
	}

	count, err := that.meter.Count(ctx, playerID)
	if err != nil {
		that.logger.Error("failed to read game meter", "playerID", playerID, "error", err)
		return true
	}

	return count < that.limit
}
