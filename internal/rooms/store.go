// Package rooms owns every live room record: identifiers, shareable join
// codes, membership and the per-room message log. All state is in-memory and
// dies with the process.
package rooms

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	// With a 36^6 code space collisions are vanishingly rare; the retry cap
	// only exists so generation can never spin forever.
	maxCodeAttempts = 32
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrCodeSpaceExhausted = errors.New("could not generate a unique room code")
)

type Store struct {
	mu           sync.RWMutex
	byID         map[string]*Room
	byCode       map[string]*Room
	counter      int
	messageLimit int
}

// NewStore creates an empty store. messageLimit caps each room's log to the
// most recent N messages; 0 disables the cap.
func NewStore(messageLimit int) *Store {
	return &Store{
		byID:         make(map[string]*Room),
		byCode:       make(map[string]*Room),
		messageLimit: messageLimit,
	}
}

// Create allocates a room owned by ownerName with a fresh id and a join code
// unique among live rooms. The owner is the room's first member.
func (s *Store) Create(ownerConn, ownerName string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := s.generateCode()
	if err != nil {
		return nil, err
	}

	s.counter++
	room := &Room{
		ID:        fmt.Sprintf("room_%d", s.counter),
		Code:      code,
		OwnerConn: ownerConn,
		OwnerName: ownerName,
		members:   []string{ownerName},
	}
	s.byID[room.ID] = room
	s.byCode[room.Code] = room
	return room, nil
}

// FindByCode looks up a live room by its join code. Codes are
// case-normalized to uppercase on input.
func (s *Store) FindByCode(code string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return room, ok
}

func (s *Store) FindByID(roomID string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.byID[roomID]
	return room, ok
}

// AddMember appends a member to the room, preserving join order. Adding an
// existing member is a no-op.
func (s *Store) AddMember(roomID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.byID[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if !lo.Contains(room.members, name) {
		room.members = append(room.members, name)
	}
	return nil
}

// RemoveMember drops a member from the room. Removing a non-member is a
// no-op.
func (s *Store) RemoveMember(roomID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.byID[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	room.members = lo.Without(room.members, name)
	return nil
}

func (s *Store) IsMember(roomID, name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.byID[roomID]
	return ok && lo.Contains(room.members, name)
}

// Members returns a copy of the room's member list in join order.
func (s *Store) Members(roomID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.byID[roomID]
	if !ok {
		return nil
	}
	return append([]string(nil), room.members...)
}

// AppendMessage adds a message to the room's log, trimming the log to the
// retention cap when one is configured.
func (s *Store) AppendMessage(roomID string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.byID[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	room.messages = append(room.messages, msg)
	if s.messageLimit > 0 && len(room.messages) > s.messageLimit {
		room.messages = room.messages[len(room.messages)-s.messageLimit:]
	}
	return nil
}

// Messages returns a copy of the room's message log in append order.
func (s *Store) Messages(roomID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.byID[roomID]
	if !ok {
		return nil
	}
	return append([]Message(nil), room.messages...)
}

// RoomsWithMember returns every live room the given name belongs to.
func (s *Store) RoomsWithMember(name string) []*Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Room
	for _, room := range s.byID {
		if lo.Contains(room.members, name) {
			result = append(result, room)
		}
	}
	return result
}

// Delete removes the room, its code and its messages. Idempotent.
func (s *Store) Delete(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.byID[roomID]
	if !ok {
		return
	}
	delete(s.byID, roomID)
	delete(s.byCode, room.Code)
}

// generateCode draws 6-character codes from the uppercase-alphanumeric
// alphabet until one is free among live rooms. Caller holds s.mu.
func (s *Store) generateCode() (string, error) {
	buf := make([]byte, codeLength)
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		code := make([]byte, codeLength)
		for i, b := range buf {
			code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
		}
		if _, exists := s.byCode[string(code)]; !exists {
			return string(code), nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
