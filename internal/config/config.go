package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Rooms  RoomConfig
	Invite InviteConfig
}

type ServerConfig struct {
	Port         string
	PublicDir    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type RoomConfig struct {
	// MessageLimit caps the per-room message log. 0 keeps every message
	// for the room's lifetime.
	MessageLimit int
}

type InviteConfig struct {
	// ExternalURL overrides the autodetected LAN address in invite links,
	// e.g. when the server sits behind a reverse proxy.
	ExternalURL string
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnvOrDefault("PORT", ":8080"),
			PublicDir:    getEnvOrDefault("PUBLIC_DIR", "./public"),
			ReadTimeout:  getDurationOrDefault("READ_TIMEOUT", "15s"),
			WriteTimeout: getDurationOrDefault("WRITE_TIMEOUT", "15s"),
		},
		Rooms: RoomConfig{
			MessageLimit: getIntOrDefault("ROOM_MESSAGE_LIMIT", 500),
		},
		Invite: InviteConfig{
			ExternalURL: getEnvOrDefault("EXTERNAL_URL", ""),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key, defaultValue string) time.Duration {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("Invalid duration for %s: %v", key, err)
	}
	return duration
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Invalid integer for %s: %v", key, err)
	}
	return intValue
}
