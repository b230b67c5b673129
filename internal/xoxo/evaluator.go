// Package xoxo holds the pure game rules for an NxN tic-tac-toe board:
// winning line generation and terminal state evaluation. Nothing here touches
// shared state, so everything is trivially unit-testable.
package xoxo

import (
	"sync"

	"github.com/rocketscienceinc/xoxo-backend/internal/entity"
)

// Result is a terminal board evaluation: either a win with the completed
// line, or a draw. An ongoing board evaluates to nil.
type Result struct {
	Winner  string
	Pattern []int
	Draw    bool
}

var (
	patternsMu    sync.RWMutex
	patternsCache = make(map[int][][]int)
)

// Patterns returns every winning line for a gridSize x gridSize board:
// all rows, then all columns, then the two main diagonals. Lines are
// generated once per grid size and cached.
func Patterns(gridSize int) [][]int {
	patternsMu.RLock()
	cached, ok := patternsCache[gridSize]
	patternsMu.RUnlock()

	if ok {
		return cached
	}

	patterns := generatePatterns(gridSize)

	patternsMu.Lock()
	patternsCache[gridSize] = patterns
	patternsMu.Unlock()

	return patterns
}

func generatePatterns(gridSize int) [][]int {
	patterns := make([][]int, 0, 2*gridSize+2)

	for row := 0; row < gridSize; row++ {
		line := make([]int, gridSize)
		for col := 0; col < gridSize; col++ {
			line[col] = row*gridSize + col
		}
		patterns = append(patterns, line)
	}

	for col := 0; col < gridSize; col++ {
		line := make([]int, gridSize)
		for row := 0; row < gridSize; row++ {
			line[row] = row*gridSize + col
		}
		patterns = append(patterns, line)
	}

	diagonal := make([]int, gridSize)
	for i := 0; i < gridSize; i++ {
		diagonal[i] = i*gridSize + i
	}
	patterns = append(patterns, diagonal)

	antiDiagonal := make([]int, gridSize)
	for i := 0; i < gridSize; i++ {
		antiDiagonal[i] = i*gridSize + (gridSize - 1 - i)
	}
	patterns = append(patterns, antiDiagonal)

	return patterns
}

// Evaluate computes the terminal outcome of a board, if any. The first fully
// matched line wins; a full board with no winning line is a draw. A win is
// always found before a draw, so a winning move on the last empty cell is
// reported as a win.
func Evaluate(board []string, gridSize int) *Result {
	for _, pattern := range Patterns(gridSize) {
		first := board[pattern[0]]
		if first == entity.EmptyCell {
			continue
		}

		matched := true
		for _, cell := range pattern[1:] {
			if board[cell] != first {
				matched = false
				break
			}
		}

		if matched {
			return &Result{Winner: first, Pattern: pattern}
		}
	}

	for _, cell := range board {
		if cell == entity.EmptyCell {
			return nil
		}
	}

	return &Result{Draw: true}
}
