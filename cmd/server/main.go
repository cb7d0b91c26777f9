package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"lanchat/internal/broker"
	"lanchat/internal/config"
	"lanchat/internal/handlers"
	"lanchat/internal/identity"
	"lanchat/internal/invite"
	"lanchat/internal/requests"
	"lanchat/internal/rooms"
	"lanchat/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// In-memory stores: everything dies with the process
	identities := identity.NewRegistry()
	roomStore := rooms.NewStore(cfg.Rooms.MessageLimit)
	tracker := requests.NewTracker()

	// Invite links point other devices at this host
	baseURL := invite.BaseURL(cfg.Invite.ExternalURL, cfg.Server.Port)
	sessionBroker := broker.New(identities, roomStore, tracker, invite.QRGenerator{}, baseURL)

	// Setup routes
	wsHandlers := handlers.NewWebSocketHandlers(sessionBroker)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
	mux.Handle("/", handlers.SPAHandler(cfg.Server.PublicDir))

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	printBanner(cfg.Server.Port, baseURL)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")
}

func printBanner(port, baseURL string) {
	logger.Info("🚀 Local network chat server running")
	logger.Info("📱 Access on this device: http://localhost%s", port)
	logger.Info("🌐 Access from other devices on your network: %s", baseURL)
	logger.Info("📡 WebSocket endpoint: ws://localhost%s/ws", port)
	logger.Info("📋 Create a room and share the QR code; other devices scan it to join")
	logger.Info("⚠️  Make sure all devices are on the same Wi-Fi network")
}
