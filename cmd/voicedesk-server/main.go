package main

import (
	"context"
	"log"
	"net/http"

	"github.com/yueqiao/voicedesk/internal/adapters/connection"
	httpadapter "github.com/yueqiao/voicedesk/internal/adapters/http"
	filestore "github.com/yueqiao/voicedesk/internal/adapters/storage/file"
	firestorestore "github.com/yueqiao/voicedesk/internal/adapters/storage/firestore"
	memstore "github.com/yueqiao/voicedesk/internal/adapters/storage/memory"
	"github.com/yueqiao/voicedesk/internal/config"
	"github.com/yueqiao/voicedesk/internal/domain"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// Storage: file, memory or Firestore
	var store domain.TranscriptStore

	switch cfg.StorageBackend {
	case config.BackendFirestore:
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}
		defer fsStore.Close()
		store = fsStore

	case config.BackendMemory:
		log.Println("[STORE] Using in-memory storage")
		store = memstore.NewStore()

	default:
		log.Printf("[STORE] Using file storage (dir=%s)", cfg.ConversationsDir)
		store = filestore.NewStore(cfg.ConversationsDir)
	}

	// Connection details: only when room service credentials are set
	var minter httpadapter.ConnectionMinter
	if cfg.LiveKitAPIKey != "" && cfg.LiveKitAPISecret != "" {
		minter = connection.NewMinter(cfg.LiveKitURL, cfg.LiveKitAPIKey, cfg.LiveKitAPISecret, cfg.RoomName, cfg.TokenTTL)
	} else {
		log.Println("[ROOM] LIVEKIT_API_KEY/LIVEKIT_API_SECRET not set; /api/connection-details disabled")
	}

	handler := httpadapter.NewServer(store, minter)

	addr := ":" + cfg.Port
	log.Println("voicedesk server listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
