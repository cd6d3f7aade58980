package domain

import "context"

// SessionEvent is anything the room service pushes at us asynchronously.
type SessionEvent interface {
	isSessionEvent()
}

// ChatReceived carries one incoming chat message from the room.
type ChatReceived struct {
	Event RawChatEvent
}

// Disconnected signals the transport dropped the session (or was told to).
type Disconnected struct {
	Reason string
}

// MediaDeviceError signals a mid-session media device failure. Non-fatal.
type MediaDeviceError struct {
	Err error
}

func (ChatReceived) isSessionEvent()     {}
func (Disconnected) isSessionEvent()     {}
func (MediaDeviceError) isSessionEvent() {}

// RoomSession is one live real-time connection. Implementations own the
// transport resources; Disconnect must release them unconditionally and be
// safe to call more than once. Events is closed after the session is torn
// down so consumers can drain and stop.
type RoomSession interface {
	Connect(ctx context.Context, details ConnectionDetails) error
	EnableMicrophone(ctx context.Context, opts MicrophoneOptions) error
	SendChat(ctx context.Context, event RawChatEvent) error
	LocalSID() string
	Events() <-chan SessionEvent
	Disconnect()
}

// SessionFactory allocates a fresh session handle. One handle per call;
// the lifecycle controller guarantees at most one is live at a time.
type SessionFactory interface {
	NewSession() RoomSession
}

// ConnectionProvider supplies (and can rotate) connection details.
type ConnectionProvider interface {
	Details(ctx context.Context) (ConnectionDetails, error)
	Refresh(ctx context.Context) error
}

// TranscriptStore persists a normalized transcript and reports the artifact
// name it was written under.
type TranscriptStore interface {
	Save(ctx context.Context, records []NormalizedMessageRecord) (string, error)
	List(ctx context.Context) ([]string, error)
}

// AlertSink is how the session layer reports non-fatal problems to the user.
type AlertSink interface {
	Alert(title, description string)
}
