package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/xoxo-backend/internal/apperror"
	"github.com/rocketscienceinc/xoxo-backend/internal/entity"
)

// moveConflicts are rejected move reasons surfaced to the requester as
// invalid_move rather than a generic error.
var moveConflicts = []error{
	apperror.ErrRoomNotFound,
	apperror.ErrRoomFinished,
	apperror.ErrNotYourTurn,
	apperror.ErrCellOccupied,
	apperror.ErrInvalidCell,
	apperror.ErrNotParticipant,
}

func (that *Server) handleJoin(ctx context.Context, sessionID string, msg *Message) error {
	log := that.logger.With("method", "handleJoin", "sessionID", sessionID)

	var payloadReq JoinPayload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	player, err := that.engine.Join(ctx, sessionID, payloadReq.Name)
	if errors.Is(err, apperror.ErrLimitReached) {
		that.sendTo(sessionID, actionLimitReached, ErrorPayload{Error: err.Error()})
		return nil
	}

	if errors.Is(err, apperror.ErrNameRequired) {
		that.sendError(sessionID, err.Error())
		return nil
	}

	if err != nil {
		log.Error("failed to join", "error", err)
		that.sendError(sessionID, "failed to join")
		return err
	}

	that.sendTo(sessionID, actionJoined, JoinedPayload{Player: player})

	log.Info("player joined", "name", player.Name)

	return nil
}

func (that *Server) handleFindMatch(ctx context.Context, sessionID string, msg *Message) error {
	log := that.logger.With("method", "handleFindMatch", "sessionID", sessionID)

	var payloadReq FindMatchPayload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	result, err := that.engine.FindMatch(ctx, sessionID, payloadReq.GridSize)

	switch {
	case errors.Is(err, apperror.ErrLimitReached):
		that.sendTo(sessionID, actionLimitReached, ErrorPayload{Error: err.Error()})
		return nil
	case errors.Is(err, apperror.ErrAlreadyInRoom):
		game, roomErr := that.engine.CurrentRoom(sessionID)
		if roomErr != nil {
			that.sendError(sessionID, err.Error())
			return nil
		}
		that.sendTo(sessionID, actionAlreadyInGame, AlreadyInGamePayload{RoomID: game.ID})
		return nil
	case errors.Is(err, apperror.ErrAlreadyQueued):
		that.sendTo(sessionID, actionWaiting, WaitingPayload{GridSize: payloadReq.GridSize})
		return nil
	case errors.Is(err, apperror.ErrInvalidGridSize), errors.Is(err, apperror.ErrSessionNotFound):
		that.sendError(sessionID, err.Error())
		return nil
	case err != nil:
		log.Error("failed to find match", "error", err)
		that.sendError(sessionID, "failed to find match")
		return err
	}

	// Opponents dropped by the admission re-check get their own signal.
	for _, rejected := range result.Rejected {
		that.sendTo(rejected.ID, actionLimitReached, ErrorPayload{Error: apperror.ErrLimitReached.Error()})
	}

	if !result.Matched {
		that.sendTo(sessionID, actionWaiting, WaitingPayload{GridSize: payloadReq.GridSize})
		return nil
	}

	game := result.Game
	that.broadcast(game, actionMatchStarted, MatchStartedPayload{
		RoomID:   game.ID,
		GridSize: game.GridSize,
		Players:  game.Players,
		Board:    game.Board,
		Turn:     game.Turn,
	})

	log.Info("match started", "roomID", game.ID, "gridSize", game.GridSize)

	return nil
}

func (that *Server) handleCancelSearch(_ context.Context, sessionID string, _ *Message) error {
	removed, err := that.engine.CancelSearch(sessionID)
	if err != nil {
		that.sendError(sessionID, err.Error())
		return nil
	}

	if removed {
		that.sendTo(sessionID, actionSearchCancelled, struct{}{})
	}

	return nil
}

func (that *Server) handleMove(ctx context.Context, sessionID string, msg *Message) error {
	log := that.logger.With("method", "handleMove", "sessionID", sessionID)

	var payloadReq MovePayload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Cell == nil {
		that.sendTo(sessionID, actionInvalidMove, InvalidMovePayload{Reason: "cell is required"})
		return nil
	}

	result, err := that.engine.MakeTurn(ctx, sessionID, payloadReq.RoomID, *payloadReq.Cell)
	if err != nil {
		for _, conflict := range moveConflicts {
			if errors.Is(err, conflict) {
				that.sendTo(sessionID, actionInvalidMove, InvalidMovePayload{Reason: conflict.Error()})
				return nil
			}
		}

		log.Error("failed to make turn", "error", err)
		that.sendError(sessionID, "failed to make turn")
		return err
	}

	game := result.Game

	if !result.Terminal {
		that.broadcast(game, actionStateUpdate, StateUpdatePayload{
			Board:    game.Board,
			Turn:     game.Turn,
			LastMove: LastMove{Cell: result.LastCell, Mark: result.LastMark},
		})
		return nil
	}

	that.broadcast(game, actionMatchEnded, matchEndedPayload(game))

	log.Info("match ended", "roomID", game.ID, "result", game.Outcome.Result)

	return nil
}

func (that *Server) handleNewGame(_ context.Context, sessionID string, msg *Message) error {
	log := that.logger.With("method", "handleNewGame", "sessionID", sessionID)

	var payloadReq RoomPayload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	game, err := that.engine.Restart(sessionID, payloadReq.RoomID)
	if err != nil {
		that.sendError(sessionID, restartReason(err))
		return nil
	}

	that.broadcast(game, actionMatchRestarted, MatchRestartedPayload{
		RoomID: game.ID,
		Board:  game.Board,
		Turn:   game.Turn,
	})

	log.Info("match restarted", "roomID", game.ID)

	return nil
}

func (that *Server) handleLeaveGame(ctx context.Context, sessionID string, msg *Message) error {
	log := that.logger.With("method", "handleLeaveGame", "sessionID", sessionID)

	var payloadReq RoomPayload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	departure, err := that.engine.Leave(ctx, sessionID, payloadReq.RoomID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		// Leaving an unknown or already torn down room is a no-op.
		return nil
	}

	if err != nil {
		log.Error("failed to leave room", "error", err)
		that.sendError(sessionID, "failed to leave the game")
		return err
	}

	that.sendTo(departure.Opponent.ID, actionOpponentLeft, OpponentLeftPayload{Name: departure.Leaver.Name})

	log.Info("player left room", "roomID", payloadReq.RoomID)

	return nil
}

func matchEndedPayload(game *entity.Game) MatchEndedPayload {
	payload := MatchEndedPayload{
		Board:   game.Board,
		Outcome: game.Outcome,
	}

	if game.Outcome.Winner != "" {
		payload.WinnerInfo = game.Players[game.Outcome.Winner]
		payload.LoserInfo = game.Opponent(game.Outcome.Winner)
	}

	return payload
}

func restartReason(err error) string {
	for _, known := range []error{
		apperror.ErrRoomNotFound,
		apperror.ErrRoomStillActive,
		apperror.ErrNotParticipant,
		apperror.ErrSessionNotFound,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}

	return "failed to restart the game"
}
