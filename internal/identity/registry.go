// Package identity tracks the live binding between a connection and the
// display name it claimed. Names are transient: they exist only while their
// connection does.
package identity

import (
	"errors"
	"sync"
)

var (
	ErrNameTaken         = errors.New("username already taken")
	ErrAlreadyRegistered = errors.New("connection already has a username")
)

type Registry struct {
	mu    sync.RWMutex
	names map[string]string // connection ID -> display name
	conns map[string]string // display name -> connection ID
}

func NewRegistry() *Registry {
	return &Registry{
		names: make(map[string]string),
		conns: make(map[string]string),
	}
}

// Register binds a connection to a display name. The match on existing names
// is exact and case-sensitive. A connection holds at most one name for its
// lifetime; it must be released before the connection can register again.
func (r *Registry) Register(connID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.conns[name]; taken {
		return ErrNameTaken
	}
	if _, bound := r.names[connID]; bound {
		return ErrAlreadyRegistered
	}

	r.names[connID] = name
	r.conns[name] = connID
	return nil
}

// Lookup resolves a connection to its display name.
func (r *Registry) Lookup(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.names[connID]
	return name, ok
}

// ConnFor resolves a display name to its live connection.
func (r *Registry) ConnFor(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connID, ok := r.conns[name]
	return connID, ok
}

// Release removes the connection's binding and frees its display name for
// immediate reuse. No-op for unknown connections.
func (r *Registry) Release(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.names[connID]
	if !ok {
		return
	}
	delete(r.names, connID)
	delete(r.conns, name)
}
