package domain

// ConnectionDetails is everything needed to join the room service.
// Replaced wholesale on refresh (tokens are short-lived), never mutated.
type ConnectionDetails struct {
	ServerURL        string `json:"serverUrl"`
	ParticipantToken string `json:"participantToken"`
}

// RawChatEvent is a chat message as observed from the transport, before any
// attribution policy is applied. The per-session log of these is append-only;
// insertion order equals display and persistence order.
type RawChatEvent struct {
	ID             string
	Message        string
	Timestamp      int64 // unix millis
	FromLocal      bool
	ParticipantSID string
}

// NormalizedMessageRecord is the persistence-ready, role-tagged form of a chat
// message. User messages carry the local identity; AI messages deliberately
// record nothing about the counterpart beyond the text itself.
type NormalizedMessageRecord struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Role      Role   `json:"role"`
	Name      string `json:"name,omitempty"`
	Identity  string `json:"identity,omitempty"`
	SID       string `json:"sid,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// MicrophoneOptions mirrors the enable-microphone call on the room service.
type MicrophoneOptions struct {
	Enabled          bool
	DeviceID         string
	PreConnectBuffer bool
}
