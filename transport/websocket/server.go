package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/xoxo-backend/internal/entity"
	"github.com/rocketscienceinc/xoxo-backend/internal/matchmaking"
	"github.com/rocketscienceinc/xoxo-backend/internal/room"
)

type engine interface {
	Join(ctx context.Context, sessionID, displayName string) (*entity.Player, error)
	FindMatch(ctx context.Context, sessionID string, gridSize int) (*matchmaking.Result, error)
	CancelSearch(sessionID string) (bool, error)
	CurrentRoom(sessionID string) (*entity.Game, error)
	MakeTurn(ctx context.Context, sessionID, roomID string, cell int) (*room.MoveResult, error)
	Restart(sessionID, roomID string) (*entity.Game, error)
	Leave(ctx context.Context, sessionID, roomID string) (*room.Departure, error)
	Disconnect(ctx context.Context, sessionID string) (*room.Departure, error)
}

// connection wraps a websocket connection with a write mutex; gorilla allows
// only one concurrent writer.
type connection struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (that *connection) send(action string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if err = that.ws.WriteJSON(Message{Action: action, Payload: raw}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

type Server struct {
	logger *slog.Logger
	engine engine

	upgrader websocket.Upgrader

	mu          sync.RWMutex
	connections map[string]*connection

	handlers map[string]func(ctx context.Context, sessionID string, message *Message) error
}

func New(logger *slog.Logger, engine engine) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		connections: make(map[string]*connection),
		handlers:    make(map[string]func(context.Context, string, *Message) error),
	}

	server.handlers[actionJoin] = server.handleJoin
	server.handlers[actionFindMatch] = server.handleFindMatch
	server.handlers[actionCancelSearch] = server.handleCancelSearch
	server.handlers[actionMove] = server.handleMove
	server.handlers[actionNewGame] = server.handleNewGame
	server.handlers[actionLeaveGame] = server.handleLeaveGame

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  0, // connections are long-lived
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveConnection upgrades the request and runs the read loop. Each
// connection gets a fresh session ID; all coordination state is keyed by it.
func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	ws, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	sessionID := uuid.NewString()
	conn := &connection{ws: ws}

	that.mu.Lock()
	that.connections[sessionID] = conn
	that.mu.Unlock()

	log.Info("WebSocket connection established", "sessionID", sessionID)

	defer that.closeConnection(ctx, sessionID, ws)

	that.readLoop(ctx, sessionID, ws)
}

func (that *Server) readLoop(ctx context.Context, sessionID string, ws *websocket.Conn) {
	log := that.logger.With("method", "readLoop", "sessionID", sessionID)

	for {
		var message Message
		if err := ws.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Info("connection closed unexpectedly", "error", err)
			}
			return
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.sendError(sessionID, "unknown action: "+message.Action)
			continue
		}

		if err := handler(ctx, sessionID, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// closeConnection runs the disconnect resolution exactly once per
// connection: drop the connection entry first so no further sends target it,
// then let the engine forfeit whatever the player leaves behind.
func (that *Server) closeConnection(ctx context.Context, sessionID string, ws *websocket.Conn) {
	log := that.logger.With("method", "closeConnection", "sessionID", sessionID)

	that.mu.Lock()
	delete(that.connections, sessionID)
	that.mu.Unlock()

	_ = ws.Close()

	departure, err := that.engine.Disconnect(ctx, sessionID)
	if err != nil {
		log.Error("failed to resolve disconnect", "error", err)
		return
	}

	if departure != nil && departure.Forfeited {
		that.sendTo(departure.Opponent.ID, actionOpponentDisconnected, OpponentDisconnectedPayload{
			Name:       departure.Leaver.Name,
			WinnerName: departure.Opponent.Name,
		})
	}

	log.Info("player disconnected")
}

// sendTo delivers one event to one session; a missing or failed connection
// is logged and otherwise ignored.
func (that *Server) sendTo(sessionID, action string, payload any) {
	that.mu.RLock()
	conn, ok := that.connections[sessionID]
	that.mu.RUnlock()

	if !ok {
		that.logger.Warn("connection not found", "sessionID", sessionID, "action", action)
		return
	}

	if err := conn.send(action, payload); err != nil {
		that.logger.Error("failed to send message", "sessionID", sessionID, "action", action, "error", err)
	}
}

// broadcast delivers one event to both participants of a game.
func (that *Server) broadcast(game *entity.Game, action string, payload any) {
	for _, player := range game.Players {
		that.sendTo(player.ID, action, payload)
	}
}

func (that *Server) sendError(sessionID, errorMsg string) {
	that.sendTo(sessionID, actionError, ErrorPayload{Error: errorMsg})
}
