package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/yueqiao/voicedesk/internal/domain"
	"github.com/yueqiao/voicedesk/internal/observability"
)

// ConnectionMinter issues fresh connection details for a participant.
// Implemented by the connection adapter; nil when the server has no room
// service credentials.
type ConnectionMinter interface {
	Mint(ctx context.Context, id domain.Identity) (domain.ConnectionDetails, error)
}

type Server struct {
	store  domain.TranscriptStore
	minter ConnectionMinter
}

func NewServer(store domain.TranscriptStore, minter ConnectionMinter) http.Handler {
	s := &Server{store: store, minter: minter}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// /api/save-conversation    → POST: persist a normalized transcript
	// /api/conversations        → GET: list persisted artifacts
	// /api/connection-details   → GET: mint room credentials
	mux.HandleFunc("/api/save-conversation", s.handleSaveConversation)
	mux.HandleFunc("/api/conversations", s.handleListConversations)
	mux.HandleFunc("/api/connection-details", s.handleConnectionDetails)

	return chainMiddlewares(mux, withLogging, withCORS, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type saveConversationRequest struct {
	Messages []domain.NormalizedMessageRecord `json:"messages"`
}

type saveConversationResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
}

type listConversationsResponse struct {
	Conversations []string `json:"conversations"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleSaveConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req saveConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if len(req.Messages) == 0 {
		badRequest(w, "No messages")
		return
	}

	log := observability.LoggerFromContext(r.Context())

	filename, err := s.store.Save(r.Context(), req.Messages)
	if err != nil {
		log.Error("failed to save conversation", "error", err)
		internalError(w, err)
		return
	}

	log.Info("conversation saved", "filename", filename, "messages", len(req.Messages))
	writeJSON(w, http.StatusOK, saveConversationResponse{Success: true, Filename: filename})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	names, err := s.store.List(r.Context())
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error("failed to list conversations", "error", err)
		internalError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	writeJSON(w, http.StatusOK, listConversationsResponse{Conversations: names})
}

func (s *Server) handleConnectionDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if s.minter == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "connection details are not configured on this server",
		})
		return
	}

	// Anonymous callers get a generated identity, same as the sandbox
	// token endpoints this replaces.
	name := r.URL.Query().Get("name")
	identity := r.URL.Query().Get("identity")
	if name == "" {
		name = "voicedesk user"
	}
	if identity == "" {
		identity = "voicedesk_" + uuid.NewString()
	}

	id, err := domain.NewIdentity(name, identity)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	details, err := s.minter.Mint(r.Context(), id)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error("failed to mint connection details", "error", err)
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": err.Error(),
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
