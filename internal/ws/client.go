// Package ws adapts a gorilla/websocket connection into a broker session:
// inbound JSON frames become protocol events, outbound events are queued per
// client and written by a single writer goroutine.
package ws

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"lanchat/internal/broker"
	"lanchat/internal/protocol"
	"lanchat/pkg/logger"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second

	sendQueueSize = 256
)

type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan protocol.Outbound
	broker *broker.Broker
}

func NewClient(conn *websocket.Conn, b *broker.Broker) (*Client, error) {
	id, err := generateConnectionID()
	if err != nil {
		return nil, fmt.Errorf("generate connection id: %w", err)
	}

	return &Client{
		id:     id,
		conn:   conn,
		send:   make(chan protocol.Outbound, sendQueueSize),
		broker: b,
	}, nil
}

func (c *Client) ID() string {
	return c.id
}

// Send queues an event for the writer goroutine. It never blocks: a client
// that can't drain its queue loses events rather than stalling the broker.
func (c *Client) Send(ev protocol.Outbound) {
	select {
	case c.send <- ev:
	default:
		logger.Warn("Send queue full for %s, dropping %s", c.id, ev.Event)
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.broker.Disconnect(c)
		c.conn.Close()
	}()

	// Read deadline and pong handler for connection health
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error on %s: %v", c.id, err)
			}
			break
		}

		var ev protocol.Inbound
		if err := json.Unmarshal(data, &ev); err != nil {
			c.Send(protocol.Error("Invalid event payload"))
			continue
		}
		c.broker.HandleEvent(c, ev)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Error("Error marshaling %s for %s: %v", ev.Event, c.id, err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func generateConnectionID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", bytes), nil
}
