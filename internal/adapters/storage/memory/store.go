// Package memory is an in-memory transcript store for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yueqiao/voicedesk/internal/domain"
)

type Store struct {
	mu          sync.RWMutex
	transcripts map[string][]domain.NormalizedMessageRecord
	order       []string
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{
		transcripts: make(map[string][]domain.NormalizedMessageRecord),
		now:         time.Now,
	}
}

func (s *Store) Save(ctx context.Context, records []domain.NormalizedMessageRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	millis := s.now().UnixMilli()
	name := fmt.Sprintf("conversation_%d.json", millis)
	for n := 1; ; n++ {
		if _, exists := s.transcripts[name]; !exists {
			break
		}
		name = fmt.Sprintf("conversation_%d_%d.json", millis, n)
	}

	saved := make([]domain.NormalizedMessageRecord, len(records))
	copy(saved, records)
	s.transcripts[name] = saved
	s.order = append(s.order, name)
	return name, nil
}

// List returns artifact names, newest first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		names = append(names, s.order[i])
	}
	return names, nil
}

// Get returns one saved transcript. Test helper, not part of the port.
func (s *Store) Get(name string) ([]domain.NormalizedMessageRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.transcripts[name]
	return records, ok
}
