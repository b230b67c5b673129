// Package usecase ties the coordination pieces together: sessions,
// matchmaking, rooms, the admission gate and the result sink. Transports
// only ever talk to the Engine.
package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/xoxo-backend/internal/apperror"
	"github.com/rocketscienceinc/xoxo-backend/internal/entity"
	"github.com/rocketscienceinc/xoxo-backend/internal/matchmaking"
	"github.com/rocketscienceinc/xoxo-backend/internal/room"
)

type sessionRegistry interface {
	Register(sessionID, displayName string) (*entity.Player, error)
	Resolve(sessionID string) (*entity.Player, error)
	Unregister(sessionID string)
}

type roomRegistry interface {
	Get(roomID string) (*entity.Game, error)
	RoomIDByPlayer(playerID string) (string, bool)
	ApplyMove(roomID, playerID string, cell int) (*room.MoveResult, error)
	Restart(roomID, playerID string) (*entity.Game, error)
	Leave(roomID, playerID string) (*room.Departure, error)
	ResolveDisconnect(playerID string) (*room.Departure, error)
	CleanupFinished(playerID string)
}

type matchQueue interface {
	Enroll(player *entity.Player, gridSize int, admitted func(*entity.Player) bool) (*matchmaking.Result, error)
	Cancel(playerID string) bool
}

type admissionGate interface {
	IsAdmitted(ctx context.Context, playerID string) bool
}

type resultSink interface {
	Report(game *entity.Game)
}

type Engine struct {
	logger *slog.Logger

	sessions sessionRegistry
	rooms    roomRegistry
	queue    matchQueue
	gate     admissionGate
	sink     resultSink

	gridSizes map[int]bool
}

func NewEngine(
	logger *slog.Logger,
	sessions sessionRegistry,
	rooms roomRegistry,
	queue matchQueue,
	gate admissionGate,
	sink resultSink,
	gridSizes []int,
) *Engine {
	allowed := make(map[int]bool, len(gridSizes))
	for _, size := range gridSizes {
		allowed[size] = true
	}

	return &Engine{
		logger:    logger.With("component", "engine"),
		sessions:  sessions,
		rooms:     rooms,
		queue:     queue,
		gate:      gate,
		sink:      sink,
		gridSizes: allowed,
	}
}

// Join binds a display name to the session. The admission gate is consulted
// first so a limited player gets a distinct limit-reached signal instead of
// an identity.
func (that *Engine) Join(ctx context.Context, sessionID, displayName string) (*entity.Player, error) {
	if !that.gate.IsAdmitted(ctx, sessionID) {
		return nil, apperror.ErrLimitReached
	}

	player, err := that.sessions.Register(sessionID, displayName)
	if err != nil {
		return nil, fmt.Errorf("failed to register session: %w", err)
	}

	that.logger.Info("player joined", "playerID", player.ID, "name", player.Name)

	return player, nil
}

// FindMatch enrolls the player for the given grid size, pairing them
// immediately when an opponent is waiting. A finished room the player still
// occupies is abandoned first; enrolling elsewhere forfeits nothing, the room
// had already ended.
func (that *Engine) FindMatch(ctx context.Context, sessionID string, gridSize int) (*matchmaking.Result, error) {
	player, err := that.sessions.Resolve(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	if !that.gridSizes[gridSize] {
		return nil, apperror.ErrInvalidGridSize
	}

	if !that.gate.IsAdmitted(ctx, sessionID) {
		return nil, apperror.ErrLimitReached
	}

	that.rooms.CleanupFinished(player.ID)

	result, err := that.queue.Enroll(player, gridSize, func(opponent *entity.Player) bool {
		return that.gate.IsAdmitted(ctx, opponent.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enroll: %w", err)
	}

	return result, nil
}

// CancelSearch removes the player from their queue. Reports whether an entry
// was removed; cancelling while not queued is a no-op.
func (that *Engine) CancelSearch(sessionID string) (bool, error) {
	player, err := that.sessions.Resolve(sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve session: %w", err)
	}

	return that.queue.Cancel(player.ID), nil
}

// CurrentRoom returns the room the player occupies, if any.
func (that *Engine) CurrentRoom(sessionID string) (*entity.Game, error) {
	roomID, ok := that.rooms.RoomIDByPlayer(sessionID)
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	game, err := that.rooms.Get(roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return game, nil
}

// MakeTurn applies one move. A terminal move is reported to the result sink
// after the room transition has committed.
func (that *Engine) MakeTurn(ctx context.Context, sessionID, roomID string, cell int) (*room.MoveResult, error) {
	player, err := that.sessions.Resolve(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	result, err := that.rooms.ApplyMove(roomID, player.ID, cell)
	if err != nil {
		return nil, fmt.Errorf("failed to apply move: %w", err)
	}

	if result.Terminal {
		that.sink.Report(result.Game)
	}

	return result, nil
}

// Restart resets a finished room for a rematch between the same two players.
func (that *Engine) Restart(sessionID, roomID string) (*entity.Game, error) {
	player, err := that.sessions.Resolve(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	game, err := that.rooms.Restart(roomID, player.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to restart room: %w", err)
	}

	return game, nil
}

// Leave tears the room down. Leaving an active room forfeits it; the forfeit
// is reported once, after the transition has committed.
func (that *Engine) Leave(ctx context.Context, sessionID, roomID string) (*room.Departure, error) {
	player, err := that.sessions.Resolve(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	departure, err := that.rooms.Leave(roomID, player.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to leave room: %w", err)
	}

	if departure.Forfeited {
		that.sink.Report(departure.Game)
	}

	return departure, nil
}

// Disconnect converts a connection loss into deterministic cleanup: the
// session binding goes first, then any queue entry, then the at-most-one
// room the player occupied. An active room resolves to a forfeit win for the
// opponent, reported exactly once.
func (that *Engine) Disconnect(ctx context.Context, sessionID string) (*room.Departure, error) {
	that.sessions.Unregister(sessionID)
	that.queue.Cancel(sessionID)

	departure, err := that.rooms.ResolveDisconnect(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve disconnect: %w", err)
	}

	if departure != nil && departure.Forfeited {
		that.sink.Report(departure.Game)
	}

	return departure, nil
}
