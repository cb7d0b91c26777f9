package broker

import "lanchat/internal/protocol"

// group is the broadcast group for one room: the set of sessions currently
// subscribed to the room's events. Groups are only touched while the broker
// mutex is held.
type group struct {
	sessions map[string]Session // connection ID -> session
}

func newGroup() *group {
	return &group{sessions: make(map[string]Session)}
}

func (g *group) add(s Session) {
	g.sessions[s.ID()] = s
}

func (g *group) remove(connID string) {
	delete(g.sessions, connID)
}

func (g *group) broadcast(ev protocol.Outbound) {
	for _, s := range g.sessions {
		s.Send(ev)
	}
}

func (g *group) broadcastExcept(connID string, ev protocol.Outbound) {
	for id, s := range g.sessions {
		if id != connID {
			s.Send(ev)
		}
	}
}

// subscribe adds a session to a room's broadcast group, creating the group on
// first use. Caller holds b.mu.
func (b *Broker) subscribe(roomID string, s Session) {
	g, ok := b.groups[roomID]
	if !ok {
		g = newGroup()
		b.groups[roomID] = g
	}
	g.add(s)
}

// unsubscribe removes a connection from a room's broadcast group. Caller
// holds b.mu.
func (b *Broker) unsubscribe(roomID, connID string) {
	if g, ok := b.groups[roomID]; ok {
		g.remove(connID)
		if len(g.sessions) == 0 {
			delete(b.groups, roomID)
		}
	}
}

// broadcastRoom sends an event to every subscriber of a room. Caller holds
// b.mu, which is what keeps delivery order equal to append order.
func (b *Broker) broadcastRoom(roomID string, ev protocol.Outbound) {
	if g, ok := b.groups[roomID]; ok {
		g.broadcast(ev)
	}
}

func (b *Broker) broadcastRoomExcept(roomID, connID string, ev protocol.Outbound) {
	if g, ok := b.groups[roomID]; ok {
		g.broadcastExcept(connID, ev)
	}
}

func (b *Broker) dropGroup(roomID string) {
	delete(b.groups, roomID)
}
