package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGame(t *testing.T) {
	t.Run("Initializes a fully set up active game", func(t *testing.T) {
		// Given: two players
		first := &Player{ID: "p1", Name: "alice"}
		second := &Player{ID: "p2", Name: "bob"}

		// When: creating a 3x3 game
		game := NewGame("room-1", 3, first, second)

		// Then: the first player is X and moves first on an empty board
		assert.Equal(t, "room-1", game.ID)
		assert.Len(t, game.Board, 9)
		assert.Equal(t, PlayerX, game.Turn)
		assert.Equal(t, StatusActive, game.Status)
		assert.Equal(t, PlayerX, first.Mark)
		assert.Equal(t, PlayerO, second.Mark)
		assert.Same(t, first, game.Players[PlayerX])
		assert.Same(t, second, game.Players[PlayerO])
	})

	t.Run("Board length follows the grid size", func(t *testing.T) {
		// When: creating a 5x5 game
		game := NewGame("room-2", 5, &Player{ID: "p1"}, &Player{ID: "p2"})

		// Then: the board holds 25 cells
		assert.Len(t, game.Board, 25)
	})
}

func TestGame_MarkOf(t *testing.T) {
	game := NewGame("room-1", 3, &Player{ID: "p1"}, &Player{ID: "p2"})

	t.Run("Returns the mark of a participant", func(t *testing.T) {
		mark, ok := game.MarkOf("p2")

		require.True(t, ok)
		assert.Equal(t, PlayerO, mark)
	})

	t.Run("Reports a stranger as not participating", func(t *testing.T) {
		_, ok := game.MarkOf("someone-else")

		assert.False(t, ok)
	})
}

func TestGame_FinishAndReset(t *testing.T) {
	t.Run("Finish sets the terminal state and clears the turn", func(t *testing.T) {
		// Given: an active game
		game := NewGame("room-1", 3, &Player{ID: "p1"}, &Player{ID: "p2"})

		// When: finishing it with a win
		game.Finish(&Outcome{Result: ResultWin, Winner: PlayerX, Pattern: []int{0, 1, 2}})

		// Then: the game is finished and no one is to move
		assert.True(t, game.IsFinished())
		assert.Equal(t, EmptyCell, game.Turn)
		require.NotNil(t, game.Outcome)
		assert.Equal(t, PlayerX, game.Outcome.Winner)
	})

	t.Run("Reset returns a finished game to a fresh active state", func(t *testing.T) {
		// Given: a finished game with a dirty board
		game := NewGame("room-1", 3, &Player{ID: "p1"}, &Player{ID: "p2"})
		game.Board[0] = PlayerX
		game.Finish(&Outcome{Result: ResultDraw})

		// When: resetting for a rematch
		game.Reset()

		// Then: the board is empty, X moves first, roles are preserved
		assert.True(t, game.IsActive())
		assert.Nil(t, game.Outcome)
		assert.Equal(t, PlayerX, game.Turn)
		for _, cell := range game.Board {
			assert.Equal(t, EmptyCell, cell)
		}
		assert.Equal(t, "p1", game.Players[PlayerX].ID)
		assert.Equal(t, "p2", game.Players[PlayerO].ID)
	})
}

func TestGame_Clone(t *testing.T) {
	t.Run("Mutating a clone leaves the original untouched", func(t *testing.T) {
		// Given: a game with a move played and an outcome
		game := NewGame("room-1", 3, &Player{ID: "p1", Name: "alice"}, &Player{ID: "p2", Name: "bob"})
		game.Board[4] = PlayerX
		game.Finish(&Outcome{Result: ResultWin, Winner: PlayerX, Pattern: []int{0, 4, 8}})

		// When: cloning and mutating every nested field
		clone := game.Clone()
		clone.Board[0] = PlayerO
		clone.Players[PlayerX].Name = "mallory"
		clone.Outcome.Pattern[0] = 99

		// Then: the original keeps its state
		assert.Equal(t, EmptyCell, game.Board[0])
		assert.Equal(t, "alice", game.Players[PlayerX].Name)
		assert.Equal(t, []int{0, 4, 8}, game.Outcome.Pattern)
	})
}

func TestToggleMark(t *testing.T) {
	assert.Equal(t, PlayerO, ToggleMark(PlayerX))
	assert.Equal(t, PlayerX, ToggleMark(PlayerO))
}
