package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yueqiao/voicedesk/internal/domain"
)

// maxCollisionRetries bounds the doc-ID suffix search when several saves
// land in the same millisecond.
const maxCollisionRetries = 1000

type Store struct {
	client *firestore.Client
	now    func() time.Time
}

// NewStore creates a Firestore transcript store.
// Uses the project passed (VOICEDESK_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) conversationsCol() *firestore.CollectionRef {
	return s.client.Collection("conversations")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type recordDoc struct {
	ID        string `firestore:"id"`
	Message   string `firestore:"message"`
	Role      string `firestore:"role"`
	Name      string `firestore:"name,omitempty"`
	Identity  string `firestore:"identity,omitempty"`
	SID       string `firestore:"sid,omitempty"`
	Timestamp int64  `firestore:"timestamp"`
}

type transcriptDoc struct {
	Messages  []recordDoc `firestore:"messages"`
	CreatedAt time.Time   `firestore:"created_at"`
}

// ─────────────────────────────────────────
// TranscriptStore implementation
// ─────────────────────────────────────────

// Save writes the transcript as one document named conversation_<millis>.
// Create fails on an existing ID, so same-millisecond saves fall through to
// a _<n> suffix instead of overwriting each other.
func (s *Store) Save(ctx context.Context, records []domain.NormalizedMessageRecord) (string, error) {
	doc := transcriptDoc{
		Messages:  make([]recordDoc, 0, len(records)),
		CreatedAt: s.now(),
	}
	for _, r := range records {
		doc.Messages = append(doc.Messages, recordDoc{
			ID:        r.ID,
			Message:   r.Message,
			Role:      string(r.Role),
			Name:      r.Name,
			Identity:  r.Identity,
			SID:       r.SID,
			Timestamp: r.Timestamp,
		})
	}

	millis := s.now().UnixMilli()
	for n := 0; n <= maxCollisionRetries; n++ {
		name := fmt.Sprintf("conversation_%d", millis)
		if n > 0 {
			name = fmt.Sprintf("conversation_%d_%d", millis, n)
		}

		_, err := s.conversationsCol().Doc(name).Create(ctx, doc)
		if status.Code(err) == codes.AlreadyExists {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("firestore Save: %w", err)
		}
		return name, nil
	}

	return "", fmt.Errorf("could not find a free transcript doc ID after %d attempts", maxCollisionRetries)
}

// List returns transcript doc IDs, newest first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	q := s.conversationsCol().OrderBy("created_at", firestore.Desc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []string
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore List: %w", err)
		}
		out = append(out, snap.Ref.ID)
	}
	return out, nil
}
