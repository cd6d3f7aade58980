package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/yueqiao/voicedesk/internal/adapters/http"
	"github.com/yueqiao/voicedesk/internal/adapters/storage/memory"
	"github.com/yueqiao/voicedesk/internal/domain"
)

type fakeMinter struct {
	details domain.ConnectionDetails
	err     error
	minted  []domain.Identity
}

func (m *fakeMinter) Mint(_ context.Context, id domain.Identity) (domain.ConnectionDetails, error) {
	m.minted = append(m.minted, id)
	return m.details, m.err
}

func newTestServer(t *testing.T) (http.Handler, *memory.Store, *fakeMinter) {
	t.Helper()

	store := memory.NewStore()
	minter := &fakeMinter{details: domain.ConnectionDetails{
		ServerURL:        "wss://example.test",
		ParticipantToken: "tok-1",
	}}
	return httpadapter.NewServer(store, minter), store, minter
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestSaveConversation(t *testing.T) {
	srv, store, _ := newTestServer(t)

	body := []byte(`{"messages":[
		{"id":"1","message":"hi","role":"user","name":"Ana","identity":"u-1","sid":"p1","timestamp":1000},
		{"id":"2","message":"hello","role":"ai","timestamp":1001}
	]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/save-conversation", bytes.NewReader(body))
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Success  bool   `json:"success"`
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success || !strings.HasPrefix(resp.Filename, "conversation_") {
		t.Fatalf("unexpected response: %+v", resp)
	}

	records, ok := store.Get(resp.Filename)
	if !ok {
		t.Fatalf("artifact %q not written", resp.Filename)
	}
	if len(records) != 2 || records[0].Role != domain.RoleUser || records[1].Role != domain.RoleAI {
		t.Fatalf("unexpected stored records: %+v", records)
	}
}

func TestSaveConversationWithoutMessages(t *testing.T) {
	srv, store, _ := newTestServer(t)

	for _, body := range []string{`{}`, `{"messages":[]}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/save-conversation", strings.NewReader(body))
		w := httptest.NewRecorder()

		srv.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, w.Code)
		}

		var resp map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp["error"] != "No messages" {
			t.Fatalf(`expected error "No messages", got %q`, resp["error"])
		}
	}

	names, _ := store.List(context.Background())
	if len(names) != 0 {
		t.Fatalf("no artifact should be written, got %v", names)
	}
}

func TestSaveConversationStoreFailure(t *testing.T) {
	srv := httpadapter.NewServer(failingStore{}, nil)

	body := `{"messages":[{"id":"1","message":"hi","role":"user","timestamp":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/save-conversation", strings.NewReader(body))
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["error"] == "" {
		t.Fatal("expected an error message in the response")
	}
}

type failingStore struct{}

func (failingStore) Save(context.Context, []domain.NormalizedMessageRecord) (string, error) {
	return "", errors.New("disk full")
}

func (failingStore) List(context.Context) ([]string, error) {
	return nil, errors.New("disk full")
}

func TestListConversations(t *testing.T) {
	srv, store, _ := newTestServer(t)

	if _, err := store.Save(context.Background(), []domain.NormalizedMessageRecord{
		{ID: "1", Message: "hi", Role: domain.RoleUser, Timestamp: 1},
	}); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Conversations []string `json:"conversations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %v", resp.Conversations)
	}
}

func TestConnectionDetails(t *testing.T) {
	srv, _, minter := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/connection-details?name=Ana&identity=u-1", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var details domain.ConnectionDetails
	if err := json.Unmarshal(w.Body.Bytes(), &details); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if details.ServerURL != "wss://example.test" || details.ParticipantToken != "tok-1" {
		t.Fatalf("unexpected details: %+v", details)
	}
	if len(minter.minted) != 1 || minter.minted[0].Identity != "u-1" {
		t.Fatalf("unexpected mint calls: %+v", minter.minted)
	}
}

func TestConnectionDetailsWithoutMinter(t *testing.T) {
	srv := httpadapter.NewServer(memory.NewStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/connection-details", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
