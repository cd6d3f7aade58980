// Package file persists transcripts as flat JSON artifacts, one file per
// conversation, under a configurable directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yueqiao/voicedesk/internal/domain"
)

// maxCollisionRetries bounds the suffix search when several saves land in
// the same millisecond.
const maxCollisionRetries = 1000

type Store struct {
	dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Save writes the records to conversation_<unix-millis>.json, creating the
// containing directory first. The file is created with O_EXCL; on a name
// collision (two saves inside one millisecond) a _<n> suffix is appended
// until a fresh name is found, so concurrent saves never overwrite each
// other.
func (s *Store) Save(ctx context.Context, records []domain.NormalizedMessageRecord) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating conversations dir: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding transcript: %w", err)
	}

	millis := s.now().UnixMilli()
	for n := 0; n <= maxCollisionRetries; n++ {
		name := fmt.Sprintf("conversation_%d.json", millis)
		if n > 0 {
			name = fmt.Sprintf("conversation_%d_%d.json", millis, n)
		}

		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating transcript file: %w", err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("writing transcript file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("closing transcript file: %w", err)
		}
		return name, nil
	}

	return "", fmt.Errorf("could not find a free transcript filename after %d attempts", maxCollisionRetries)
}

// List returns artifact names, newest first. Names embed the creation
// millis, so a descending name sort orders by recency.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading conversations dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "conversation_") && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}
