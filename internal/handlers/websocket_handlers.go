package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"lanchat/internal/broker"
	"lanchat/internal/ws"
	"lanchat/pkg/logger"
)

type WebSocketHandlers struct {
	broker   *broker.Broker
	upgrader websocket.Upgrader
}

func NewWebSocketHandlers(b *broker.Broker) *WebSocketHandlers {
	return &WebSocketHandlers{
		broker: b,
		upgrader: websocket.Upgrader{
			// LAN tool: any device on the network may connect
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	client, err := ws.NewClient(conn, h.broker)
	if err != nil {
		logger.Error("Error creating client: %v", err)
		conn.Close()
		return
	}
	logger.Info("[CONNECT] %s connected", client.ID())

	// Start client pumps
	go client.WritePump()
	go client.ReadPump()
}
