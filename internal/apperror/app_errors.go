package apperror

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFinished    = errors.New("room is already finished")
	ErrRoomStillActive = errors.New("room is still active")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrInvalidCell     = errors.New("invalid cell index")
	ErrNotParticipant  = errors.New("player is not a participant of this room")

	ErrAlreadyQueued = errors.New("player is already waiting in a queue")
	ErrAlreadyInRoom = errors.New("player is already in an active room")

	ErrNameRequired    = errors.New("display name is required")
	ErrInvalidGridSize = errors.New("unsupported grid size")
	ErrSessionNotFound = errors.New("session not found")

	ErrLimitReached = errors.New("daily game limit reached")
)
