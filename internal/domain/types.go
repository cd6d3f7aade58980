package domain

type Role string

const (
	RoleUser Role = "user" // message authored by the local participant
	RoleAI   Role = "ai"   // message authored by the assistant counterpart
)
