// Package connection provisions the details needed to join the room
// service: a server URL plus a short-lived participant token.
package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/livekit/protocol/auth"

	"github.com/yueqiao/voicedesk/internal/domain"
)

// Minter issues participant tokens with LiveKit API credentials.
type Minter struct {
	serverURL string
	apiKey    string
	apiSecret string
	room      string
	ttl       time.Duration
}

func NewMinter(serverURL, apiKey, apiSecret, room string, ttl time.Duration) *Minter {
	return &Minter{
		serverURL: serverURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		room:      room,
		ttl:       ttl,
	}
}

// Mint builds fresh connection details for the given identity. Each call
// produces a new token; details are always replaced wholesale, never
// patched.
func (m *Minter) Mint(ctx context.Context, id domain.Identity) (domain.ConnectionDetails, error) {
	at := auth.NewAccessToken(m.apiKey, m.apiSecret).
		SetIdentity(id.Identity).
		SetName(id.Name).
		SetVideoGrant(&auth.VideoGrant{
			RoomJoin: true,
			Room:     m.room,
		}).
		SetValidFor(m.ttl)

	token, err := at.ToJWT()
	if err != nil {
		return domain.ConnectionDetails{}, fmt.Errorf("signing participant token: %w", err)
	}

	return domain.ConnectionDetails{
		ServerURL:        m.serverURL,
		ParticipantToken: token,
	}, nil
}
