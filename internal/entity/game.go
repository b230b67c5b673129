package entity

const (
	StatusActive   = "active"
	StatusFinished = "finished"

	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""
)

const (
	ResultWin     = "win"
	ResultDraw    = "draw"
	ResultForfeit = "forfeit"
)

// Outcome describes how a finished game ended. Winner and ForfeitedBy hold
// marks, not player IDs. Pattern is the winning line as board cell indices.
type Outcome struct {
	Result      string `json:"result"`
	Winner      string `json:"winner,omitempty"`
	ForfeitedBy string `json:"forfeited_by,omitempty"`
	Pattern     []int  `json:"pattern,omitempty"`
}

// Game is one two-player match room. Board always holds GridSize² cells,
// each either EmptyCell or a player mark. Players maps mark to participant;
// the first-mover always plays X.
type Game struct {
	ID       string             `json:"id"`
	GridSize int                `json:"grid_size"`
	Board    []string           `json:"board"`
	Turn     string             `json:"player_turn"`
	Status   string             `json:"status"`
	Players  map[string]*Player `json:"players"`
	Outcome  *Outcome           `json:"outcome,omitempty"`
}

// NewGame creates a fully initialized active game. The first player is always
// assigned X and moves first.
func NewGame(id string, gridSize int, first, second *Player) *Game {
	first.Mark = PlayerX
	second.Mark = PlayerO

	return &Game{
		ID:       id,
		GridSize: gridSize,
		Board:    make([]string, gridSize*gridSize),
		Turn:     PlayerX,
		Status:   StatusActive,
		Players: map[string]*Player{
			PlayerX: first,
			PlayerO: second,
		},
	}
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsActive() bool {
	return that.Status == StatusActive
}

// MarkOf returns the mark held by the given player ID, if the player is a
// participant of this game.
func (that *Game) MarkOf(playerID string) (string, bool) {
	for mark, player := range that.Players {
		if player.ID == playerID {
			return mark, true
		}
	}
	return "", false
}

// Opponent returns the participant holding the other mark.
func (that *Game) Opponent(mark string) *Player {
	return that.Players[ToggleMark(mark)]
}

// Finish transitions the game into its terminal state. Turn is cleared so a
// finished game never reports a player to move.
func (that *Game) Finish(outcome *Outcome) {
	that.Status = StatusFinished
	that.Outcome = outcome
	that.Turn = EmptyCell
}

// Reset returns the game to a fresh active state for a rematch. Role
// assignments are preserved.
func (that *Game) Reset() {
	that.Board = make([]string, that.GridSize*that.GridSize)
	that.Turn = PlayerX
	that.Status = StatusActive
	that.Outcome = nil
}

// Clone returns a deep copy so callers outside the registry lock never read
// live shared state.
func (that *Game) Clone() *Game {
	clone := *that

	clone.Board = make([]string, len(that.Board))
	copy(clone.Board, that.Board)

	clone.Players = make(map[string]*Player, len(that.Players))
	for mark, player := range that.Players {
		playerCopy := *player
		clone.Players[mark] = &playerCopy
	}

	if that.Outcome != nil {
		outcomeCopy := *that.Outcome
		outcomeCopy.Pattern = append([]int(nil), that.Outcome.Pattern...)
		clone.Outcome = &outcomeCopy
	}

	return &clone
}

// ToggleMark returns the other player's mark.
func ToggleMark(mark string) string {
	if mark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
