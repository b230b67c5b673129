package entity

// Player is one connected identity. Mark is assigned when the player is
// paired into a game and cleared when the game is torn down.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Mark string `json:"mark,omitempty"`
}
