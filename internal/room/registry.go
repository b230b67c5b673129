// Package room owns every active and finished match room. All transitions go
// through the Registry, which serializes operations per room while letting
// distinct rooms proceed in parallel.
package room

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/xoxo-backend/internal/apperror"
	"github.com/rocketscienceinc/xoxo-backend/internal/entity"
	"github.com/rocketscienceinc/xoxo-backend/internal/xoxo"
)

// room pairs the game state with its own mutex. removed is flipped exactly
// once, under mu, when the room is torn down; any operation that finds it set
// reports the room as unknown.
type room struct {
	mu      sync.Mutex
	removed bool
	game    *entity.Game
}

// Registry maps room IDs to rooms and player IDs to the one room they occupy.
// The registry mutex only guards the maps; game state is guarded by the
// per-room mutex. Teardown locks the room first and touches the maps after,
// so the two locks are never held in conflicting order.
type Registry struct {
	logger *slog.Logger

	mu         sync.RWMutex
	rooms      map[string]*room
	playerRoom map[string]string
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:     logger.With("component", "room_registry"),
		rooms:      make(map[string]*room),
		playerRoom: make(map[string]string),
	}
}

// MoveResult is the committed state after a successful move. Game is a deep
// snapshot; Terminal is true when the move ended the match.
type MoveResult struct {
	Game     *entity.Game
	LastCell int
	LastMark string
	Terminal bool
}

// Departure is the committed state after a room was torn down by a leave or
// disconnect. Forfeited is false when the room had already finished, in which
// case no new outcome was produced.
type Departure struct {
	Game      *entity.Game
	Leaver    *entity.Player
	Opponent  *entity.Player
	Forfeited bool
}

// Create pairs two players into a new active room. Callers are responsible
// for ensuring neither player occupies another room; the registry still
// refuses to double-book a player.
func (that *Registry) Create(gridSize int, first, second *entity.Player) (*entity.Game, error) {
	game := entity.NewGame(uuid.NewString(), gridSize, first, second)

	that.mu.Lock()
	defer that.mu.Unlock()

	for _, player := range []*entity.Player{first, second} {
		if _, ok := that.playerRoom[player.ID]; ok {
			return nil, apperror.ErrAlreadyInRoom
		}
	}

	that.rooms[game.ID] = &room{game: game}
	that.playerRoom[first.ID] = game.ID
	that.playerRoom[second.ID] = game.ID

	that.logger.Info("room created", "roomID", game.ID, "gridSize", gridSize)

	return game.Clone(), nil
}

// Get returns a snapshot of a room.
func (that *Registry) Get(roomID string) (*entity.Game, error) {
	r := that.lookup(roomID)
	if r == nil {
		return nil, apperror.ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.removed {
		return nil, apperror.ErrRoomNotFound
	}

	return r.game.Clone(), nil
}

// HasPlayer reports whether the player currently occupies any room.
func (that *Registry) HasPlayer(playerID string) bool {
	that.mu.RLock()
	_, ok := that.playerRoom[playerID]
	that.mu.RUnlock()
	return ok
}

// RoomIDByPlayer returns the ID of the room the player occupies, if any.
func (that *Registry) RoomIDByPlayer(playerID string) (string, bool) {
	that.mu.RLock()
	roomID, ok := that.playerRoom[playerID]
	that.mu.RUnlock()
	return roomID, ok
}

// ApplyMove validates and applies one move. On a terminal move the room is
// finished in the same critical section, so a room can never be won twice. A
// rejected move leaves the board and turn untouched.
func (that *Registry) ApplyMove(roomID, playerID string, cell int) (*MoveResult, error) {
	r := that.lookup(roomID)
	if r == nil {
		return nil, apperror.ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.removed {
		return nil, apperror.ErrRoomNotFound
	}

	game := r.game

	if game.IsFinished() {
		return nil, apperror.ErrRoomFinished
	}

	mark, ok := game.MarkOf(playerID)
	if !ok {
		return nil, apperror.ErrNotParticipant
	}

	if cell < 0 || cell >= len(game.Board) {
		return nil, apperror.ErrInvalidCell
	}

	if game.Turn != mark {
		return nil, apperror.ErrNotYourTurn
	}

	if game.Board[cell] != entity.EmptyCell {
		return nil, apperror.ErrCellOccupied
	}

	game.Board[cell] = mark

	result := xoxo.Evaluate(game.Board, game.GridSize)
	if result == nil {
		game.Turn = entity.ToggleMark(mark)
		return &MoveResult{Game: game.Clone(), LastCell: cell, LastMark: mark}, nil
	}

	outcome := &entity.Outcome{Result: entity.ResultDraw}
	if !result.Draw {
		outcome = &entity.Outcome{
			Result:  entity.ResultWin,
			Winner:  result.Winner,
			Pattern: result.Pattern,
		}
	}
	game.Finish(outcome)

	return &MoveResult{Game: game.Clone(), LastCell: cell, LastMark: mark, Terminal: true}, nil
}

// Restart resets a finished room for a rematch. Only an original participant
// may trigger it; role assignments are preserved and X moves first again.
func (that *Registry) Restart(roomID, playerID string) (*entity.Game, error) {
	r := that.lookup(roomID)
	if r == nil {
		return nil, apperror.ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.removed {
		return nil, apperror.ErrRoomNotFound
	}

	game := r.game

	if _, ok := game.MarkOf(playerID); !ok {
		return nil, apperror.ErrNotParticipant
	}

	if !game.IsFinished() {
		return nil, apperror.ErrRoomStillActive
	}

	game.Reset()

	that.logger.Info("room restarted", "roomID", roomID)

	return game.Clone(), nil
}

// Leave tears the room down. An active room finishes with a forfeit against
// the leaver; a finished room is removed without producing a new outcome.
func (that *Registry) Leave(roomID, playerID string) (*Departure, error) {
	r := that.lookup(roomID)
	if r == nil {
		return nil, apperror.ErrRoomNotFound
	}

	return that.teardown(r, roomID, playerID)
}

// ResolveDisconnect handles a connection loss for the at-most-one room the
// player occupies. Returns nil when the player was not in any room.
func (that *Registry) ResolveDisconnect(playerID string) (*Departure, error) {
	roomID, ok := that.RoomIDByPlayer(playerID)
	if !ok {
		return nil, nil
	}

	departure, err := that.Leave(roomID, playerID)
	if err != nil {
		// Lost a race with another teardown of the same room.
		return nil, nil
	}

	return departure, err
}

// CleanupFinished removes the finished room a player still occupies, if any,
// without producing an outcome. Used when the player moves on (e.g. enrolls
// for a new match) while their last room is still restartable.
func (that *Registry) CleanupFinished(playerID string) {
	roomID, ok := that.RoomIDByPlayer(playerID)
	if !ok {
		return
	}

	r := that.lookup(roomID)
	if r == nil {
		return
	}

	r.mu.Lock()
	if r.removed || !r.game.IsFinished() {
		r.mu.Unlock()
		return
	}
	r.removed = true
	game := r.game.Clone()
	r.mu.Unlock()

	that.remove(roomID, game)

	that.logger.Info("finished room cleaned up", "roomID", roomID)
}

func (that *Registry) teardown(r *room, roomID, playerID string) (*Departure, error) {
	r.mu.Lock()

	if r.removed {
		r.mu.Unlock()
		return nil, apperror.ErrRoomNotFound
	}

	game := r.game

	mark, ok := game.MarkOf(playerID)
	if !ok {
		r.mu.Unlock()
		return nil, apperror.ErrNotParticipant
	}

	forfeited := false
	if game.IsActive() {
		game.Finish(&entity.Outcome{
			Result:      entity.ResultForfeit,
			Winner:      entity.ToggleMark(mark),
			ForfeitedBy: mark,
		})
		forfeited = true
	}

	r.removed = true
	snapshot := game.Clone()
	r.mu.Unlock()

	that.remove(roomID, snapshot)

	that.logger.Info("room removed", "roomID", roomID, "forfeited", forfeited)

	return &Departure{
		Game:      snapshot,
		Leaver:    snapshot.Players[mark],
		Opponent:  snapshot.Opponent(mark),
		Forfeited: forfeited,
	}, nil
}

// remove deletes the room from the maps. Player index entries are only
// cleared while they still point at this room, so a player who already moved
// on is never unlinked from their new room.
func (that *Registry) remove(roomID string, game *entity.Game) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, roomID)

	for _, player := range game.Players {
		if that.playerRoom[player.ID] == roomID {
			delete(that.playerRoom, player.ID)
		}
	}
}

func (that *Registry) lookup(roomID string) *room {
	that.mu.RLock()
	r := that.rooms[roomID]
	that.mu.RUnlock()
	return r
}
