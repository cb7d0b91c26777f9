// Package protocol defines the wire events exchanged between clients and the
// session broker. Clients can see every field; payloads are plain JSON text
// frames with an "event" discriminator.
package protocol

type EventType string

// Inbound event types.
const (
	EventRegisterUsername EventType = "register-username"
	EventCreateRoom       EventType = "create-room"
	EventRequestJoin      EventType = "request-join"
	EventApproveJoin      EventType = "approve-join"
	EventDenyJoin         EventType = "deny-join"
	EventJoinRoom         EventType = "join-room"
	EventSendMessage      EventType = "send-message"
	EventTyping           EventType = "typing"
	EventLeaveRoom        EventType = "leave-room"
)

// Outbound event types.
const (
	EventUsernameAccepted EventType = "username-accepted"
	EventUsernameTaken    EventType = "username-taken"
	EventRoomCreated      EventType = "room-created"
	EventJoinRequest      EventType = "join-request"
	EventJoinApproved     EventType = "join-approved"
	EventJoinDenied       EventType = "join-denied"
	EventRoomData         EventType = "room-data"
	EventNewMessage       EventType = "new-message"
	EventUserJoined       EventType = "user-joined"
	EventUserLeft         EventType = "user-left"
	EventMembersUpdate    EventType = "members-update"
	EventUserTyping       EventType = "user-typing"
	EventError            EventType = "error"
)

// Inbound is the envelope for every client-originated event. Only the fields
// relevant to the event type are populated.
type Inbound struct {
	Event     EventType `json:"event"`
	Username  string    `json:"username,omitempty"`
	RoomCode  string    `json:"roomCode,omitempty"`
	RoomID    string    `json:"roomId,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	Text      string    `json:"text,omitempty"`
}

// Message is a single chat message as it appears on the wire. A system notice
// carries no username.
type Message struct {
	Username  string `json:"username,omitempty"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Outbound is the envelope for every broker-originated event.
type Outbound struct {
	Event     EventType `json:"event"`
	Username  string    `json:"username,omitempty"`
	RoomID    string    `json:"roomId,omitempty"`
	RoomCode  string    `json:"roomCode,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	QRCodeURL string    `json:"qrCodeUrl,omitempty"`
	Members   []string  `json:"members,omitempty"`
	Messages  []Message `json:"messages,omitempty"`
	Text      string    `json:"text,omitempty"`
	Timestamp int64     `json:"timestamp,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Error builds the error event reported to the connection that caused a
// failed precondition. State is never changed when one of these is sent.
func Error(message string) Outbound {
	return Outbound{Event: EventError, Message: message}
}
