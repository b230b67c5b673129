package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/xoxo-backend/internal/entity"
)

// Inbound actions (client -> engine).
const (
	actionJoin         = "join"
	actionFindMatch    = "find_match"
	actionCancelSearch = "cancel_search"
	actionMove         = "move"
	actionNewGame      = "new_game"
	actionLeaveGame    = "leave_game"
)

// Outbound actions (engine -> client).
const (
	actionJoined               = "joined"
	actionWaiting              = "waiting"
	actionAlreadyInGame        = "already_in_game"
	actionSearchCancelled      = "search_cancelled"
	actionMatchStarted         = "match_started"
	actionStateUpdate          = "state_update"
	actionInvalidMove          = "invalid_move"
	actionMatchEnded           = "match_ended"
	actionMatchRestarted       = "match_restarted"
	actionOpponentLeft         = "opponent_left"
	actionOpponentDisconnected = "opponent_disconnected"
	actionLimitReached         = "limit_reached"
	actionError                = "error"
)

// Message is one WebSocket event with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	Name string `json:"name"`
}

type FindMatchPayload struct {
	GridSize int `json:"grid_size"`
}

type MovePayload struct {
	RoomID string `json:"room_id"`
	Cell   *int   `json:"cell"`
}

type RoomPayload struct {
	RoomID string `json:"room_id"`
}

type JoinedPayload struct {
	Player *entity.Player `json:"player"`
}

type WaitingPayload struct {
	GridSize int `json:"grid_size"`
}

type AlreadyInGamePayload struct {
	RoomID string `json:"room_id"`
}

type MatchStartedPayload struct {
	RoomID   string                    `json:"room_id"`
	GridSize int                       `json:"grid_size"`
	Players  map[string]*entity.Player `json:"players"`
	Board    []string                  `json:"board"`
	Turn     string                    `json:"player_turn"`
}

type LastMove struct {
	Cell int    `json:"cell"`
	Mark string `json:"mark"`
}

type StateUpdatePayload struct {
	Board    []string `json:"board"`
	Turn     string   `json:"player_turn"`
	LastMove LastMove `json:"last_move"`
}

type InvalidMovePayload struct {
	Reason string `json:"reason"`
}

type MatchEndedPayload struct {
	Board      []string        `json:"board"`
	Outcome    *entity.Outcome `json:"outcome"`
	WinnerInfo *entity.Player  `json:"winner_info,omitempty"`
	LoserInfo  *entity.Player  `json:"loser_info,omitempty"`
}

type MatchRestartedPayload struct {
	RoomID string   `json:"room_id"`
	Board  []string `json:"board"`
	Turn   string   `json:"player_turn"`
}

type OpponentLeftPayload struct {
	Name string `json:"name"`
}

type OpponentDisconnectedPayload struct {
	Name       string `json:"name"`
	WinnerName string `json:"winner_name"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
