// Package broker is the authoritative session broker: it owns every state
// transition for identities, rooms, membership and join requests, and fans
// the resulting events out to the affected connections. Handlers validate
// fully before mutating; every failure path becomes an error event scoped to
// the connection that caused it.
package broker

import (
	"errors"
	"strings"
	"sync"

	"github.com/samber/lo"

	"lanchat/internal/identity"
	"lanchat/internal/invite"
	"lanchat/internal/protocol"
	"lanchat/internal/requests"
	"lanchat/internal/rooms"
	"lanchat/pkg/logger"
)

// Session is one live client connection as the broker sees it. Send must not
// block; slow consumers are the transport layer's problem.
type Session interface {
	ID() string
	Send(ev protocol.Outbound)
}

type Broker struct {
	// mu serializes all state mutations, so per-room delivery order always
	// matches append order. Nothing under it blocks: Send is non-blocking
	// and the invite generator is called with the mutex released.
	mu         sync.Mutex
	identities *identity.Registry
	rooms      *rooms.Store
	requests   *requests.Tracker
	invites    invite.Generator
	joinBase   string
	groups     map[string]*group
	sessions   map[string]Session // connection ID -> session, for targeted emits
}

func New(identities *identity.Registry, roomStore *rooms.Store, tracker *requests.Tracker, invites invite.Generator, joinBase string) *Broker {
	return &Broker{
		identities: identities,
		rooms:      roomStore,
		requests:   tracker,
		invites:    invites,
		joinBase:   joinBase,
		groups:     make(map[string]*group),
		sessions:   make(map[string]Session),
	}
}

// HandleEvent dispatches one inbound event. Unknown event types are reported
// back instead of dropped so protocol drift is visible to clients.
func (b *Broker) HandleEvent(s Session, ev protocol.Inbound) {
	switch ev.Event {
	case protocol.EventRegisterUsername:
		b.registerUsername(s, ev.Username)
	case protocol.EventCreateRoom:
		b.createRoom(s)
	case protocol.EventRequestJoin:
		b.requestJoin(s, ev.RoomCode)
	case protocol.EventApproveJoin:
		b.approveJoin(s, ev.RequestID)
	case protocol.EventDenyJoin:
		b.denyJoin(s, ev.RequestID)
	case protocol.EventJoinRoom:
		b.joinRoom(s, ev.RoomID)
	case protocol.EventSendMessage:
		b.sendMessage(s, ev.RoomID, ev.Text)
	case protocol.EventTyping:
		b.typing(s, ev.RoomID)
	case protocol.EventLeaveRoom:
		b.leaveRoom(s, ev.RoomID)
	default:
		s.Send(protocol.Error("Unknown event"))
	}
}

func (b *Broker) registerUsername(s Session, username string) {
	username = strings.TrimSpace(username)
	if username == "" {
		s.Send(protocol.Error("Username required"))
		return
	}

	b.mu.Lock()
	err := b.identities.Register(s.ID(), username)
	if err == nil {
		b.sessions[s.ID()] = s
	}
	b.mu.Unlock()

	switch {
	case errors.Is(err, identity.ErrNameTaken):
		s.Send(protocol.Outbound{Event: protocol.EventUsernameTaken})
	case errors.Is(err, identity.ErrAlreadyRegistered):
		s.Send(protocol.Error("Username already registered"))
	case err != nil:
		s.Send(protocol.Error("Could not register username"))
	default:
		s.Send(protocol.Outbound{Event: protocol.EventUsernameAccepted, Username: username})
		logger.Info("[USERNAME] %s registered (%s)", username, s.ID())
	}
}

func (b *Broker) createRoom(s Session) {
	b.mu.Lock()
	username, ok := b.identities.Lookup(s.ID())
	if !ok {
		b.mu.Unlock()
		s.Send(protocol.Error("Username not registered"))
		return
	}

	room, err := b.rooms.Create(s.ID(), username)
	if err != nil {
		b.mu.Unlock()
		s.Send(protocol.Error("Could not create room"))
		logger.Error("[ROOM] create failed for %s: %v", username, err)
		return
	}
	b.subscribe(room.ID, s)
	roomID, roomCode := room.ID, room.Code
	b.mu.Unlock()

	// The room is committed before the external invite call so a slow or
	// failing generator cannot stall other connections or undo creation.
	artifact, err := b.invites.Generate(invite.JoinURL(b.joinBase, roomCode))
	if err != nil {
		logger.Error("[ROOM] invite generation failed for %s: %v", roomID, err)
		s.Send(protocol.Error("Failed to generate QR code"))
		return
	}

	s.Send(protocol.Outbound{
		Event:     protocol.EventRoomCreated,
		RoomID:    roomID,
		RoomCode:  roomCode,
		QRCodeURL: artifact,
	})
	logger.Info("[ROOM] %s created room %s (%s)", username, roomID, roomCode)
}

func (b *Broker) requestJoin(s Session, roomCode string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	username, ok := b.identities.Lookup(s.ID())
	if !ok {
		s.Send(protocol.Error("Username not registered"))
		return
	}
	room, ok := b.rooms.FindByCode(roomCode)
	if !ok {
		s.Send(protocol.Error("Room not found"))
		return
	}
	if b.rooms.IsMember(room.ID, username) {
		s.Send(protocol.Error("Already in room"))
		return
	}

	request := b.requests.Create(username, room.ID, s.ID())

	// Only the owner hears about the request. If the owner's connection is
	// gone the request sits unresolved until the room dies.
	if owner, live := b.sessions[room.OwnerConn]; live {
		owner.Send(protocol.Outbound{
			Event:     protocol.EventJoinRequest,
			RequestID: request.ID,
			Username:  username,
			RoomID:    room.ID,
		})
	}
	logger.Info("[JOIN-REQ] %s requested to join %s", username, room.ID)
}

func (b *Broker) approveJoin(s Session, requestID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	request, ok := b.requests.Get(requestID)
	if !ok {
		s.Send(protocol.Error("Request not found"))
		return
	}
	room, ok := b.rooms.FindByID(request.RoomID)
	if !ok || room.OwnerConn != s.ID() {
		s.Send(protocol.Error("Unauthorized"))
		return
	}

	b.rooms.AddMember(room.ID, request.Username)
	b.rooms.AppendMessage(room.ID, rooms.NewSystemMessage(request.Username+" joined the room"))

	// Membership commits and the join notice broadcasts even if the
	// requester vanished; only requester-directed emits are skipped.
	if requester, live := b.sessions[request.ConnID]; live {
		b.subscribe(room.ID, requester)
		requester.Send(protocol.Outbound{
			Event:    protocol.EventJoinApproved,
			RoomID:   room.ID,
			RoomCode: room.Code,
		})
		requester.Send(b.roomData(room.ID))
	}

	b.broadcastRoom(room.ID, protocol.Outbound{Event: protocol.EventUserJoined, Username: request.Username})
	b.broadcastRoom(room.ID, protocol.Outbound{Event: protocol.EventMembersUpdate, Members: b.rooms.Members(room.ID)})

	b.requests.Remove(requestID)
	logger.Info("[JOIN-APPROVED] %s joined %s", request.Username, room.ID)
}

func (b *Broker) denyJoin(s Session, requestID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	request, ok := b.requests.Get(requestID)
	if !ok {
		s.Send(protocol.Error("Request not found"))
		return
	}
	room, ok := b.rooms.FindByID(request.RoomID)
	if !ok || room.OwnerConn != s.ID() {
		s.Send(protocol.Error("Unauthorized"))
		return
	}

	if requester, live := b.sessions[request.ConnID]; live {
		requester.Send(protocol.Outbound{Event: protocol.EventJoinDenied})
	}

	b.requests.Remove(requestID)
	logger.Info("[JOIN-DENIED] %s denied from %s", request.Username, room.ID)
}

// joinRoom is the pre-approved path: an existing member (e.g. resuming a
// session) resubscribes and gets a fresh snapshot.
func (b *Broker) joinRoom(s Session, roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	username, ok := b.identities.Lookup(s.ID())
	if !ok {
		s.Send(protocol.Error("Room or user not found"))
		return
	}
	if _, ok := b.rooms.FindByID(roomID); !ok {
		s.Send(protocol.Error("Room or user not found"))
		return
	}
	if !b.rooms.IsMember(roomID, username) {
		s.Send(protocol.Error("Not a member of this room"))
		return
	}

	b.subscribe(roomID, s)
	s.Send(b.roomData(roomID))
}

func (b *Broker) sendMessage(s Session, roomID, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	username, ok := b.identities.Lookup(s.ID())
	if !ok || !b.rooms.IsMember(roomID, username) {
		s.Send(protocol.Error("Cannot send message"))
		return
	}

	msg := rooms.NewMessage(username, text)
	b.rooms.AppendMessage(roomID, msg)
	b.broadcastRoom(roomID, protocol.Outbound{
		Event:     protocol.EventNewMessage,
		Username:  msg.Username,
		Text:      msg.Text,
		Timestamp: msg.Timestamp,
	})
}

// typing is a stateless signal: nothing is stored and the sender never hears
// its own notice.
func (b *Broker) typing(s Session, roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	username, ok := b.identities.Lookup(s.ID())
	if !ok || !b.rooms.IsMember(roomID, username) {
		s.Send(protocol.Error("Cannot send typing notice"))
		return
	}

	b.broadcastRoomExcept(roomID, s.ID(), protocol.Outbound{
		Event:    protocol.EventUserTyping,
		Username: username,
	})
}

func (b *Broker) leaveRoom(s Session, roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	username, ok := b.identities.Lookup(s.ID())
	if !ok {
		s.Send(protocol.Error("Room or user not found"))
		return
	}
	room, ok := b.rooms.FindByID(roomID)
	if !ok {
		s.Send(protocol.Error("Room or user not found"))
		return
	}
	if !b.rooms.IsMember(roomID, username) {
		s.Send(protocol.Error("Not a member of this room"))
		return
	}

	b.removeFromRoom(room, s.ID(), username, "Room closed by owner")
	logger.Info("[LEAVE] %s left %s", username, roomID)
}

// Disconnect applies leave semantics to every room the connection's identity
// belongs to (including owner-triggered deletion), then releases the
// identity. Pending requests from the connection stay recorded: approve and
// deny tolerate the vanished requester instead of failing.
func (b *Broker) Disconnect(s Session) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.sessions, s.ID())

	username, ok := b.identities.Lookup(s.ID())
	if !ok {
		return
	}
	for _, room := range b.rooms.RoomsWithMember(username) {
		b.removeFromRoom(room, s.ID(), username, "Room closed")
	}

	b.identities.Release(s.ID())
	logger.Info("[DISCONNECT] %s (%s)", username, s.ID())
}

// removeFromRoom evicts one member and notifies the remaining subscribers.
// When the member is the owner the room cascades: every remaining subscriber
// hears the closure notice before losing its subscription, and pending
// requests for the room are pruned. Caller holds b.mu.
func (b *Broker) removeFromRoom(room *rooms.Room, connID, username, closedReason string) {
	b.rooms.RemoveMember(room.ID, username)
	b.unsubscribe(room.ID, connID)
	b.rooms.AppendMessage(room.ID, rooms.NewSystemMessage(username+" left the room"))

	b.broadcastRoom(room.ID, protocol.Outbound{Event: protocol.EventUserLeft, Username: username})
	b.broadcastRoom(room.ID, protocol.Outbound{Event: protocol.EventMembersUpdate, Members: b.rooms.Members(room.ID)})

	if room.OwnerConn == connID {
		b.broadcastRoom(room.ID, protocol.Error(closedReason))
		b.requests.RemoveByRoom(room.ID)
		b.rooms.Delete(room.ID)
		b.dropGroup(room.ID)
		logger.Info("[ROOM-DELETED] %s closed by owner", room.ID)
	}
}

// roomData builds the full snapshot sent to a (re)joining member. Caller
// holds b.mu, so the message list matches the log at the moment of snapshot.
func (b *Broker) roomData(roomID string) protocol.Outbound {
	messages := lo.Map(b.rooms.Messages(roomID), func(m rooms.Message, _ int) protocol.Message {
		return protocol.Message{Username: m.Username, Text: m.Text, Timestamp: m.Timestamp}
	})
	return protocol.Outbound{
		Event:    protocol.EventRoomData,
		Members:  b.rooms.Members(roomID),
		Messages: messages,
	}
}
