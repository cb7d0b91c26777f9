// Package requests tracks pending join requests awaiting a room owner's
// decision. Duplicate requests for the same (user, room) pair are allowed;
// approving a stale duplicate is a harmless membership no-op.
package requests

import (
	"sync"

	"github.com/google/uuid"
)

// Request is a pending ask to enter a room.
type Request struct {
	ID       string
	Username string
	RoomID   string
	ConnID   string
}

type Tracker struct {
	mu       sync.RWMutex
	requests map[string]*Request
}

func NewTracker() *Tracker {
	return &Tracker{requests: make(map[string]*Request)}
}

func (t *Tracker) Create(username, roomID, connID string) *Request {
	t.mu.Lock()
	defer t.mu.Unlock()

	request := &Request{
		ID:       uuid.NewString(),
		Username: username,
		RoomID:   roomID,
		ConnID:   connID,
	}
	t.requests[request.ID] = request
	return request
}

func (t *Tracker) Get(requestID string) (*Request, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	request, ok := t.requests[requestID]
	return request, ok
}

// Remove deletes a resolved request. Idempotent.
func (t *Tracker) Remove(requestID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.requests, requestID)
}

// RemoveByRoom prunes every request targeting a room that no longer exists.
func (t *Tracker) RemoveByRoom(roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, request := range t.requests {
		if request.RoomID == roomID {
			delete(t.requests, id)
		}
	}
}
