// Package remote is a TranscriptStore backed by the voicedesk server's
// persistence endpoints, used by the terminal client.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yueqiao/voicedesk/internal/domain"
)

type Store struct {
	baseURL string
	client  *http.Client
}

func NewStore(baseURL string) *Store {
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type saveRequest struct {
	Messages []domain.NormalizedMessageRecord `json:"messages"`
}

type saveResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

func (s *Store) Save(ctx context.Context, records []domain.NormalizedMessageRecord) (string, error) {
	body, err := json.Marshal(saveRequest{Messages: records})
	if err != nil {
		return "", fmt.Errorf("encoding save request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/save-conversation", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building save request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling save endpoint: %w", err)
	}
	defer resp.Body.Close()

	var out saveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding save response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		if out.Error != "" {
			return "", fmt.Errorf("save endpoint: %s", out.Error)
		}
		return "", fmt.Errorf("save endpoint: unexpected status %d", resp.StatusCode)
	}

	return out.Filename, nil
}

type listResponse struct {
	Conversations []string `json:"conversations"`
	Error         string   `json:"error"`
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/conversations", nil)
	if err != nil {
		return nil, fmt.Errorf("building list request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling list endpoint: %w", err)
	}
	defer resp.Body.Close()

	var out listResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding list response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return nil, fmt.Errorf("list endpoint: %s", out.Error)
		}
		return nil, fmt.Errorf("list endpoint: unexpected status %d", resp.StatusCode)
	}

	return out.Conversations, nil
}
