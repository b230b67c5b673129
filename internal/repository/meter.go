package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// meterTTL keeps daily counters around long enough to survive clock skew
// between instances before redis expires them.
const meterTTL = 48 * time.Hour

// GameMeterRepository counts finished games per player per calendar day. The
// admission gate reads it, the result sink writes it.
type GameMeterRepository interface {
	Incr(ctx context.Context, playerID string) error
	Count(ctx context.Context, playerID string) (int, error)
}

type gameMeter struct {
	client *redis.Client
}

func NewGameMeterRepository(client *redis.Client) GameMeterRepository {
	return &gameMeter{
		client: client,
	}
}

func (that *gameMeter) Incr(ctx context.Context, playerID string) error {
	key := meterKey(playerID)

	count, err := that.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to increment game meter: %w", err)
	}

	// First increment of the day sets the expiry.
	if count == 1 {
		if err = that.client.Expire(ctx, key, meterTTL).Err(); err != nil {
			return fmt.Errorf("failed to expire game meter: %w", err)
		}
	}

	return nil
}

func (that *gameMeter) Count(ctx context.Context, playerID string) (int, error) {
	response, err := that.client.Get(ctx, meterKey(playerID)).Result()

	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to get game meter: %w", err)
	}

	count, err := strconv.Atoi(response)
	if err != nil {
		return 0, fmt.Errorf("failed to parse game meter value: %w", err)
	}

	return count, nil
}

func meterKey(playerID string) string {
	return "meter:" + playerID + ":" + time.Now().UTC().Format("2006-01-02")
}
