// Package matchmaking pairs waiting players into rooms. One FIFO waiting
// list exists per grid size; the earliest enrollee on a key is always matched
// first.
package matchmaking

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/xoxo-backend/internal/apperror"
	"github.com/rocketscienceinc/xoxo-backend/internal/entity"
)

// Policy decides what happens to a dequeued opponent who no longer passes
// the admission gate.
type Policy string

const (
	// PolicyRequeue puts the blocked opponent back at the tail of their queue.
	PolicyRequeue Policy = "requeue"
	// PolicyReject drops the blocked opponent from the queue; the caller is
	// expected to surface a limit-reached signal to them.
	PolicyReject Policy = "reject"
)

type roomCreator interface {
	Create(gridSize int, first, second *entity.Player) (*entity.Game, error)
	HasPlayer(playerID string) bool
}

// Result of an Enroll call: either the player was queued, or a room was
// created. Rejected lists opponents dropped by the admission re-check under
// PolicyReject so the caller can notify them.
type Result struct {
	Matched  bool
	GridSize int
	Game     *entity.Game
	Rejected []*entity.Player
}

// Queue holds every waiting list. A single mutex guards all keys: the
// "identity waits in at most one queue" invariant spans keys, and the queue
// and room membership checks must be evaluated in one indivisible step.
type Queue struct {
	logger *slog.Logger
	rooms  roomCreator
	policy Policy

	mu      sync.Mutex
	waiting map[int][]*entity.Player
	index   map[string]int
}

func NewQueue(logger *slog.Logger, rooms roomCreator, policy Policy) *Queue {
	return &Queue{
		logger:  logger.With("component", "matchmaking"),
		rooms:   rooms,
		policy:  policy,
		waiting: make(map[int][]*entity.Player),
		index:   make(map[string]int),
	}
}

// Enroll adds a player to the waiting list for gridSize, or pairs them with
// the earliest compatible waiter. admitted re-checks a dequeued opponent
// against the admission gate; pass nil to skip the re-check. The gate may do
// I/O, so the queue lock is released around the callback; a dequeued opponent
// is owned by this call while unlocked and restored on conflict.
func (that *Queue) Enroll(player *entity.Player, gridSize int, admitted func(*entity.Player) bool) (*Result, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.index[player.ID]; ok {
		return nil, apperror.ErrAlreadyQueued
	}

	if that.rooms.HasPlayer(player.ID) {
		return nil, apperror.ErrAlreadyInRoom
	}

	result := &Result{GridSize: gridSize}

	// Bounded by the queue length at entry so PolicyRequeue cannot spin on a
	// queue of blocked players.
	attempts := len(that.waiting[gridSize])
	for i := 0; i < attempts; i++ {
		opponent := that.dequeue(gridSize)
		if opponent == nil {
			break
		}

		if admitted != nil {
			ok, err := that.recheckAdmission(player, opponent, gridSize, admitted)
			if err != nil {
				return nil, err
			}

			if !ok {
				that.logger.Info("dequeued opponent no longer admitted",
					"playerID", opponent.ID, "policy", that.policy)

				if that.policy == PolicyRequeue {
					that.enqueue(opponent, gridSize)
				} else {
					result.Rejected = append(result.Rejected, opponent)
				}
				continue
			}
		}

		game, err := that.rooms.Create(gridSize, opponent, player)
		if err != nil {
			// Opponent slipped into a room since enqueueing; drop the stale
			// entry and keep scanning.
			that.logger.Warn("failed to pair dequeued opponent", "playerID", opponent.ID, "error", err)
			continue
		}

		result.Matched = true
		result.Game = game
		return result, nil
	}

	that.enqueue(player, gridSize)
	return result, nil
}

// recheckAdmission runs the admission callback with the queue lock released,
// so a slow gate never stalls Enroll or Cancel on other keys. The caller's
// own state may have changed while unlocked; on conflict the opponent goes
// back to the head of their queue and the conflict is surfaced.
func (that *Queue) recheckAdmission(player, opponent *entity.Player, gridSize int, admitted func(*entity.Player) bool) (bool, error) {
	that.mu.Unlock()
	ok := admitted(opponent)
	that.mu.Lock()

	if _, queued := that.index[player.ID]; queued {
		that.pushFront(opponent, gridSize)
		return false, apperror.ErrAlreadyQueued
	}

	if that.rooms.HasPlayer(player.ID) {
		that.pushFront(opponent, gridSize)
		return false, apperror.ErrAlreadyInRoom
	}

	return ok, nil
}

// Cancel removes the player from whichever queue they occupy. Reports whether
// an entry was actually removed; repeated cancels are a no-op.
func (that *Queue) Cancel(playerID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	gridSize, ok := that.index[playerID]
	if !ok {
		return false
	}

	queue := that.waiting[gridSize]
	for i, waiter := range queue {
		if waiter.ID == playerID {
			that.waiting[gridSize] = append(queue[:i], queue[i+1:]...)
			break
		}
	}

	delete(that.index, playerID)
	return true
}

// isWaiting reports whether the player is currently enrolled in any queue.
func (that *Queue) isWaiting(playerID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, ok := that.index[playerID]
	return ok
}

func (that *Queue) enqueue(player *entity.Player, gridSize int) {
	that.waiting[gridSize] = append(that.waiting[gridSize], player)
	that.index[player.ID] = gridSize
}

// pushFront restores a dequeued player to the head of their queue, keeping
// their original position.
func (that *Queue) pushFront(player *entity.Player, gridSize int) {
	that.waiting[gridSize] = append([]*entity.Player{player}, that.waiting[gridSize]...)
	that.index[player.ID] = gridSize
}

func (that *Queue) dequeue(gridSize int) *entity.Player {
	queue := that.waiting[gridSize]
	if len(queue) == 0 {
		return nil
	}

	head := queue[0]
	that.waiting[gridSize] = queue[1:]
	delete(that.index, head.ID)

	return head
}
