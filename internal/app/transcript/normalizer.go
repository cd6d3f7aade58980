// Package transcript turns the raw per-session chat log into the
// persistence-ready record sequence.
package transcript

import "github.com/yueqiao/voicedesk/internal/domain"

// Normalize maps every raw chat event to exactly one normalized record,
// preserving arrival order. Events authored locally become user records
// carrying the current identity (single user per process, so the per-message
// sender is irrelevant); everything else becomes an ai record that keeps only
// id, message and timestamp. Empty input yields nil so callers can
// short-circuit without touching the store.
func Normalize(events []domain.RawChatEvent, id domain.Identity) []domain.NormalizedMessageRecord {
	if len(events) == 0 {
		return nil
	}

	records := make([]domain.NormalizedMessageRecord, 0, len(events))
	for _, ev := range events {
		if ev.FromLocal {
			records = append(records, domain.NormalizedMessageRecord{
				ID:        ev.ID,
				Message:   ev.Message,
				Role:      domain.RoleUser,
				Name:      id.Name,
				Identity:  id.Identity,
				SID:       ev.ParticipantSID,
				Timestamp: ev.Timestamp,
			})
			continue
		}

		records = append(records, domain.NormalizedMessageRecord{
			ID:        ev.ID,
			Message:   ev.Message,
			Role:      domain.RoleAI,
			Timestamp: ev.Timestamp,
		})
	}

	return records
}
