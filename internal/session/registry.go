// Package session maps connection-scoped session IDs to display names. It is
// the unit of "a player" everywhere else in the engine: all coordination
// state is keyed by session ID, never by the underlying connection.
package session

import (
	"strings"
	"sync"

	"github.com/rocketscienceinc/xoxo-backend/internal/apperror"
	"github.com/rocketscienceinc/xoxo-backend/internal/entity"
)

type Registry struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		names: make(map[string]string),
	}
}

// Register binds a session to a display name. Names are trimmed; an empty
// name is rejected. Duplicate names across sessions are allowed.
func (that *Registry) Register(sessionID, displayName string) (*entity.Player, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, apperror.ErrNameRequired
	}

	that.mu.Lock()
	that.names[sessionID] = name
	that.mu.Unlock()

	return &entity.Player{ID: sessionID, Name: name}, nil
}

// Resolve returns the player bound to a session.
func (that *Registry) Resolve(sessionID string) (*entity.Player, error) {
	that.mu.RLock()
	name, ok := that.names[sessionID]
	that.mu.RUnlock()

	if !ok {
		return nil, apperror.ErrSessionNotFound
	}

	return &entity.Player{ID: sessionID, Name: name}, nil
}

// Unregister removes the binding. Safe to call for unknown sessions.
func (that *Registry) Unregister(sessionID string) {
	that.mu.Lock()
	delete(that.names, sessionID)
	that.mu.Unlock()
}
