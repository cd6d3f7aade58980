package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yueqiao/voicedesk/internal/domain"
)

var sampleRecords = []domain.NormalizedMessageRecord{
	{ID: "1", Message: "hi", Role: domain.RoleUser, Name: "Ana", Identity: "u-1", SID: "p1", Timestamp: 1000},
	{ID: "2", Message: "hello", Role: domain.RoleAI, Timestamp: 1001},
}

func TestSaveWritesArtifact(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "conversations"))
	store.now = func() time.Time { return time.UnixMilli(1700000000000) }

	name, err := store.Save(context.Background(), sampleRecords)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if name != "conversation_1700000000000.json" {
		t.Fatalf("unexpected filename %q", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, "conversations", name))
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}

	var got []domain.NormalizedMessageRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	if len(got) != 2 || got[0] != sampleRecords[0] || got[1] != sampleRecords[1] {
		t.Fatalf("artifact content mismatch: %+v", got)
	}
}

func TestSameMillisecondSavesGetDistinctNames(t *testing.T) {
	store := NewStore(t.TempDir())
	store.now = func() time.Time { return time.UnixMilli(42) }

	first, err := store.Save(context.Background(), sampleRecords)
	if err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	second, err := store.Save(context.Background(), sampleRecords)
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	if first == second {
		t.Fatalf("colliding saves produced the same filename %q", first)
	}
	if first != "conversation_42.json" || second != "conversation_42_1.json" {
		t.Fatalf("unexpected names %q, %q", first, second)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := NewStore(t.TempDir())

	for _, ms := range []int64{1000, 3000, 2000} {
		millis := ms
		store.now = func() time.Time { return time.UnixMilli(millis) }
		if _, err := store.Save(context.Background(), sampleRecords); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	names, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"conversation_3000.json", "conversation_2000.json", "conversation_1000.json"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %v", len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestListMissingDirIsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope"))
	names, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected no names, got %v", names)
	}
}
