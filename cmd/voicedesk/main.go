// voicedesk is the terminal client: log in with a name and identity, start
// a voice session against the room service, type to chat, and the
// transcript is persisted through the voicedesk server when the session
// ends.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/yueqiao/voicedesk/internal/adapters/connection"
	"github.com/yueqiao/voicedesk/internal/adapters/livekit"
	"github.com/yueqiao/voicedesk/internal/adapters/storage/remote"
	"github.com/yueqiao/voicedesk/internal/app/session"
	"github.com/yueqiao/voicedesk/internal/config"
	"github.com/yueqiao/voicedesk/internal/domain"
)

type terminalAlerts struct{}

func (terminalAlerts) Alert(title, description string) {
	fmt.Fprintf(os.Stderr, "!! %s: %s\n", title, description)
}

func main() {
	var (
		name     = flag.String("name", "", "display name (required)")
		identity = flag.String("identity", "", "identity token (required)")
		server   = flag.String("server", "http://localhost:8080", "voicedesk server base URL")
	)
	flag.Parse()

	// Login: both fields are required, nothing proceeds without them.
	id, err := domain.NewIdentity(*name, *identity)
	if err != nil {
		log.Fatalf("login rejected: %v", err)
	}

	cfg := config.Load()

	// Mint locally when credentials are available, otherwise ask the
	// server for connection details.
	var provider domain.ConnectionProvider
	if cfg.LiveKitURL != "" && cfg.LiveKitAPIKey != "" && cfg.LiveKitAPISecret != "" {
		minter := connection.NewMinter(cfg.LiveKitURL, cfg.LiveKitAPIKey, cfg.LiveKitAPISecret, cfg.RoomName, cfg.TokenTTL)
		provider = connection.NewLocalProvider(minter, id)
	} else {
		provider = connection.NewHTTPProvider(*server, id)
	}

	ctrl := session.NewController(
		id,
		livekit.NewFactory(),
		provider,
		remote.NewStore(*server),
		terminalAlerts{},
		cfg.PreConnectBuffer,
	)

	ctx := context.Background()
	if err := ctrl.StartSession(ctx); err != nil {
		log.Fatalf("could not start session: %v", err)
	}
	fmt.Printf("session started as %s — type to chat, /end to finish\n", id.Name)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		ctrl.EndSession(ctx)
		os.Exit(0)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/end" {
			break
		}
		if err := ctrl.SendChat(ctx, line); err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
		}
	}

	ctrl.EndSession(ctx)
	fmt.Println("session ended")
}
