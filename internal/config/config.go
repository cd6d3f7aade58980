package config

import (
	"log"
	"os"
	"time"
)

type StorageBackend string

const (
	BackendFile      StorageBackend = "file"
	BackendMemory    StorageBackend = "memory"
	BackendFirestore StorageBackend = "firestore"
)

type Config struct {
	Port string

	StorageBackend   StorageBackend
	ConversationsDir string // used by the file backend
	GCPProjectID     string // used by the firestore backend

	// Room service credentials. The server mints participant tokens with
	// these; the client may also mint locally when they are set.
	LiveKitURL       string
	LiveKitAPIKey    string
	LiveKitAPISecret string
	RoomName         string
	TokenTTL         time.Duration

	PreConnectBuffer bool
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration in %s=%q, using default %s", key, v, def)
		return def
	}
	return d
}

// Load reads all env vars and builds the config
func Load() *Config {
	backendStr := getEnv("VOICEDESK_STORAGE_BACKEND", "file")
	var backend StorageBackend
	switch backendStr {
	case "memory":
		backend = BackendMemory
	case "firestore":
		backend = BackendFirestore
	default:
		backend = BackendFile
	}

	cfg := &Config{
		Port: getEnv("VOICEDESK_PORT", "8080"),

		StorageBackend:   backend,
		ConversationsDir: getEnv("VOICEDESK_CONVERSATIONS_DIR", "conversations"),
		GCPProjectID:     getEnv("VOICEDESK_GCP_PROJECT", ""),

		LiveKitURL:       getEnv("LIVEKIT_URL", ""),
		LiveKitAPIKey:    getEnv("LIVEKIT_API_KEY", ""),
		LiveKitAPISecret: getEnv("LIVEKIT_API_SECRET", ""),
		RoomName:         getEnv("VOICEDESK_ROOM", "voicedesk"),
		TokenTTL:         getDurationEnv("VOICEDESK_TOKEN_TTL", 15*time.Minute),

		PreConnectBuffer: getBoolEnv("VOICEDESK_PRECONNECT_BUFFER", true),
	}

	// Minimal validation for the firestore backend
	if cfg.StorageBackend == BackendFirestore && cfg.GCPProjectID == "" {
		log.Fatal("VOICEDESK_GCP_PROJECT must be set for the firestore backend")
	}

	return cfg
}
