package transcript_test

import (
	"reflect"
	"testing"

	"github.com/yueqiao/voicedesk/internal/app/transcript"
	"github.com/yueqiao/voicedesk/internal/domain"
)

var testIdentity = domain.Identity{Name: "Ana", Identity: "u-1"}

func TestNormalizeEmptyYieldsEmpty(t *testing.T) {
	if got := transcript.Normalize(nil, testIdentity); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	if got := transcript.Normalize([]domain.RawChatEvent{}, testIdentity); got != nil {
		t.Fatalf("expected nil for empty slice, got %v", got)
	}
}

func TestNormalizeRoleFollowsFromLocal(t *testing.T) {
	events := []domain.RawChatEvent{
		{ID: "a", Message: "one", Timestamp: 1, FromLocal: false},
		{ID: "b", Message: "two", Timestamp: 2, FromLocal: true, ParticipantSID: "p1"},
		{ID: "c", Message: "three", Timestamp: 3, FromLocal: false},
		{ID: "d", Message: "four", Timestamp: 4, FromLocal: true, ParticipantSID: "p1"},
	}

	records := transcript.Normalize(events, testIdentity)
	if len(records) != len(events) {
		t.Fatalf("expected %d records, got %d", len(events), len(records))
	}

	for i, rec := range records {
		if rec.ID != events[i].ID {
			t.Errorf("record %d: order not preserved, got id %q", i, rec.ID)
		}
		wantRole := domain.RoleAI
		if events[i].FromLocal {
			wantRole = domain.RoleUser
		}
		if rec.Role != wantRole {
			t.Errorf("record %d: expected role %q, got %q", i, wantRole, rec.Role)
		}
	}
}

func TestNormalizeAttributionPolicy(t *testing.T) {
	events := []domain.RawChatEvent{
		{ID: "1", Message: "hi", Timestamp: 1000, FromLocal: true, ParticipantSID: "p1"},
		{ID: "2", Message: "hello", Timestamp: 1001, FromLocal: false, ParticipantSID: "agent-sid"},
	}

	got := transcript.Normalize(events, testIdentity)
	want := []domain.NormalizedMessageRecord{
		{ID: "1", Message: "hi", Role: domain.RoleUser, Name: "Ana", Identity: "u-1", SID: "p1", Timestamp: 1000},
		{ID: "2", Message: "hello", Role: domain.RoleAI, Timestamp: 1001},
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normalize mismatch:\n got %+v\nwant %+v", got, want)
	}

	// Counterpart identity must never leak into ai records.
	if got[1].SID != "" || got[1].Name != "" || got[1].Identity != "" {
		t.Fatalf("ai record carries identity fields: %+v", got[1])
	}
}
