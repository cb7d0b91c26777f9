package rooms

import "time"

// Message is an immutable entry in a room's log. Timestamps are wall-clock
// milliseconds. A system notice (join/leave) has an empty Username.
type Message struct {
	Username  string
	Text      string
	Timestamp int64
}

func NewMessage(username, text string) Message {
	return Message{Username: username, Text: text, Timestamp: nowMillis()}
}

func NewSystemMessage(text string) Message {
	return Message{Text: text, Timestamp: nowMillis()}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// Room is a record owned by the Store. ID, Code and the owner fields are
// fixed at creation; the member list and message log are only touched through
// Store methods, which hand out copies.
type Room struct {
	ID        string
	Code      string
	OwnerConn string
	OwnerName string

	members  []string // insertion-ordered, owner first
	messages []Message
}
