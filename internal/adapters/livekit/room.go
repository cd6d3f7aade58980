// Package livekit implements the RoomSession port on the LiveKit server
// SDK: room connection, microphone publication and chat over data packets.
package livekit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	livekitpb "github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"

	"github.com/yueqiao/voicedesk/internal/domain"
	"github.com/yueqiao/voicedesk/internal/observability"
)

// chatTopic is LiveKit's well-known chat data topic.
const chatTopic = "lk.chat"

const eventBuffer = 64

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) NewSession() domain.RoomSession {
	return &roomSession{events: make(chan domain.SessionEvent, eventBuffer)}
}

// chatMessage is the JSON payload carried on the chat topic.
type chatMessage struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type roomSession struct {
	mu         sync.Mutex
	room       *lksdk.Room
	events     chan domain.SessionEvent
	closed     bool
	micPending *domain.MicrophoneOptions
	discOnce   sync.Once
}

func (s *roomSession) Connect(ctx context.Context, details domain.ConnectionDetails) error {
	room, err := lksdk.ConnectToRoomWithToken(
		details.ServerURL,
		details.ParticipantToken,
		s.callback(),
		lksdk.WithAutoSubscribe(true),
	)
	if err != nil {
		return fmt.Errorf("connecting to room: %w", err)
	}

	s.mu.Lock()
	s.room = room
	pending := s.micPending
	s.micPending = nil
	s.mu.Unlock()

	// Honor a microphone request that arrived before the connection
	// landed (pre-connect buffering).
	if pending != nil && pending.Enabled {
		if err := s.publishMicrophone(); err != nil {
			s.emit(domain.MediaDeviceError{Err: err})
		}
	}
	return nil
}

// EnableMicrophone publishes the local audio track. Before the connection
// exists the request is parked and applied as soon as Connect completes;
// the controller issues both concurrently.
func (s *roomSession) EnableMicrophone(ctx context.Context, opts domain.MicrophoneOptions) error {
	s.mu.Lock()
	if s.room == nil {
		o := opts
		s.micPending = &o
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if !opts.Enabled {
		return nil
	}
	return s.publishMicrophone()
}

func (s *roomSession) publishMicrophone() error {
	s.mu.Lock()
	room := s.room
	s.mu.Unlock()
	if room == nil {
		return fmt.Errorf("room is not connected")
	}

	track, err := lksdk.NewLocalSampleTrack(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypeOpus,
		ClockRate: 48000,
		Channels:  1,
	})
	if err != nil {
		return fmt.Errorf("creating microphone track: %w", err)
	}

	if _, err := room.LocalParticipant.PublishTrack(track, &lksdk.TrackPublicationOptions{
		Name:   "microphone",
		Source: livekitpb.TrackSource_MICROPHONE,
	}); err != nil {
		return fmt.Errorf("publishing microphone track: %w", err)
	}
	return nil
}

func (s *roomSession) SendChat(ctx context.Context, ev domain.RawChatEvent) error {
	s.mu.Lock()
	room := s.room
	s.mu.Unlock()
	if room == nil {
		return fmt.Errorf("room is not connected")
	}

	payload, err := json.Marshal(chatMessage{
		ID:        ev.ID,
		Message:   ev.Message,
		Timestamp: ev.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("encoding chat message: %w", err)
	}

	if err := room.LocalParticipant.PublishDataPacket(
		&lksdk.UserDataPacket{Payload: payload, Topic: chatTopic},
		lksdk.WithDataPublishReliable(true),
	); err != nil {
		return fmt.Errorf("publishing chat message: %w", err)
	}
	return nil
}

func (s *roomSession) LocalSID() string {
	s.mu.Lock()
	room := s.room
	s.mu.Unlock()
	if room == nil {
		return ""
	}
	return room.LocalParticipant.SID()
}

func (s *roomSession) Events() <-chan domain.SessionEvent {
	return s.events
}

func (s *roomSession) Disconnect() {
	s.discOnce.Do(func() {
		s.mu.Lock()
		room := s.room
		s.mu.Unlock()
		if room != nil {
			room.Disconnect()
		}
		s.closeEvents()
	})
}

// ─────────────────────────────────────────────
// SDK callbacks → session events
// ─────────────────────────────────────────────

func (s *roomSession) callback() *lksdk.RoomCallback {
	return &lksdk.RoomCallback{
		OnDisconnectedWithReason: func(reason lksdk.DisconnectionReason) {
			s.emit(domain.Disconnected{Reason: string(reason)})
			s.closeEvents()
		},
		ParticipantCallback: lksdk.ParticipantCallback{
			OnDataPacket: s.onDataPacket,
		},
	}
}

func (s *roomSession) onDataPacket(data lksdk.DataPacket, params lksdk.DataReceiveParams) {
	packet, ok := data.(*lksdk.UserDataPacket)
	if !ok || packet.Topic != chatTopic {
		return
	}

	var msg chatMessage
	if err := json.Unmarshal(packet.Payload, &msg); err != nil {
		observability.Logger().Warn("dropping malformed chat packet", "error", err)
		return
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}

	var sid string
	if params.Sender != nil {
		sid = params.Sender.SID()
	}

	s.emit(domain.ChatReceived{Event: domain.RawChatEvent{
		ID:             msg.ID,
		Message:        msg.Message,
		Timestamp:      msg.Timestamp,
		FromLocal:      false,
		ParticipantSID: sid,
	}})
}

// emit delivers an event unless the session is already torn down. Delivery
// is non-blocking: with a stalled consumer the event is dropped rather
// than wedging an SDK callback.
func (s *roomSession) emit(ev domain.SessionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		observability.Logger().Warn("dropping session event, consumer stalled")
	}
}

func (s *roomSession) closeEvents() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}
