package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pdfchat-gateway/internal/auth"
	"pdfchat-gateway/internal/relay"
	"pdfchat-gateway/internal/streams"
	"pdfchat-gateway/pkg/models"
	"pdfchat-gateway/pkg/utils"
)

// keyValidator validates one plan key for one owner.
type keyValidator interface {
	Validate(ctx context.Context, key, ownerID string) auth.KeyResult
}

// entitlementDemoter clears an expired pro-plan key from a user's profile.
type entitlementDemoter interface {
	Demote(ctx context.Context, userID string) error
}

// promptBackend is the internal backend that builds prompts and persists
// completed messages.
type promptBackend interface {
	FetchPrompt(ctx context.Context, message, fileID, sessionID, token string) (models.PromptBundle, error)
	PostCompletion(ctx context.Context, completed, fileID, sessionID, token string) error
}

// completionRelay opens and forwards streaming completion responses.
type completionRelay interface {
	Open(ctx context.Context, prompt models.PromptBundle) (*http.Response, error)
	Forward(w io.Writer, upstream io.Reader) (string, error)
}

// ServerState holds the wired collaborators for the gateway endpoints.
type ServerState struct {
	keys       keyValidator
	demoter    entitlementDemoter
	backend    promptBackend
	relay      completionRelay
	limiter    *utils.RateLimiter
	chatLimit  utils.RateLimit
	registry   *streams.Registry
	maxStreams int
	logger     *zap.Logger
}

// NewServerState wires the gateway's collaborators together.
func NewServerState(keys keyValidator, demoter entitlementDemoter, backend promptBackend, rel completionRelay, cfg *Config, logger *zap.Logger) *ServerState {
	return &ServerState{
		keys:       keys,
		demoter:    demoter,
		backend:    backend,
		relay:      rel,
		limiter:    utils.NewRateLimiter(),
		chatLimit:  utils.NewBasicRateLimit(cfg.ChatRequestsPerHour, time.Hour, "chat-requests"),
		registry:   streams.NewRegistry(),
		maxStreams: cfg.MaxConcurrentStreams,
		logger:     logger,
	}
}

// HandleChat is the gateway entry point. It authorizes the caller's plan key,
// fetches the assembled prompt from the backend, and relays the streaming
// completion to the client, scheduling persistence of the full reply once the
// stream drains.
func (s *ServerState) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		HandleOptions(w, r)
		return
	}

	SetCORSHeaders(w)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	log := s.logger.With(zap.String("request_id", uuid.NewString()))

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("could not parse request body", zap.Error(err))
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if req.SessionID == "" || req.Token == "" || req.UserID == "" ||
		(req.FreePlanKey == "" && req.ProPlanKey == "") {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if req.Message == "" || req.FileID == "" {
		http.Error(w, "Invalid data", http.StatusBadRequest)
		return
	}

	log = log.With(zap.String("user_id", req.UserID), zap.String("file_id", req.FileID))

	if err := CheckSessionToken(req.Token); err != nil {
		log.Info("rejecting expired session token")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if !s.limiter.Check(s.chatLimit, req.UserID) {
		w.Header().Set("Retry-After", "60")
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	if s.registry.ActiveForUser(req.UserID) >= s.maxStreams {
		w.Header().Set("Retry-After", "10")
		http.Error(w, "Too many concurrent streams", http.StatusTooManyRequests)
		return
	}

	if status, ok := s.authorize(r.Context(), log, req); !ok {
		if status == http.StatusInternalServerError {
			http.Error(w, "Internal Server Error", status)
		} else {
			http.Error(w, "Unauthorized", status)
		}
		return
	}

	streamID := s.registry.Add(req.UserID, req.FileID)
	defer s.registry.Remove(streamID)

	prompt, err := s.backend.FetchPrompt(r.Context(), req.Message, req.FileID, req.SessionID, req.Token)
	if err != nil {
		log.Error("prompt fetch failed", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	upstream, err := s.relay.Open(r.Context(), prompt)
	if err != nil {
		log.Error("could not open completion stream", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer upstream.Body.Close()

	if upstream.StatusCode != http.StatusOK {
		// No chunk has reached the client yet; relay the upstream status
		// without leaking its body.
		log.Error("completion API rejected request",
			zap.Int("status", upstream.StatusCode), zap.String("status_text", upstream.Status))
		http.Error(w, "Internal Server Error", upstream.StatusCode)
		return
	}

	if ct := upstream.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(http.StatusOK)

	completed, err := s.relay.Forward(w, upstream.Body)
	if err != nil {
		if errors.Is(err, relay.ErrClientGone) {
			// The partial reply is discarded, not persisted.
			log.Info("client disconnected mid-stream", zap.Error(err))
			return
		}
		// Bytes are already flowing; the stream is cut short rather than
		// converted into an error payload.
		log.Error("completion stream interrupted", zap.Error(err))
		return
	}

	go s.persistCompletion(log, completed, req)
}

// authorize applies the plan-key policy: the pro key is tried first when
// present; a pro key that is specifically unauthorized (expired or revoked)
// is cleared from the profile before the free key is checked. An inconclusive
// verification is a hard failure, never grounds for demotion.
//
// It returns (0, true) when a key validated, or a terminal HTTP status and
// false otherwise.
func (s *ServerState) authorize(ctx context.Context, log *zap.Logger, req models.ChatRequest) (int, bool) {
	if req.ProPlanKey != "" {
		result := s.keys.Validate(ctx, req.ProPlanKey, req.UserID)
		if result.Valid {
			return 0, true
		}

		if result.Code == auth.CodeUnknown {
			log.Error("pro key verification inconclusive", zap.String("detail", result.Detail))
			return http.StatusInternalServerError, false
		}

		// Expired or revoked pro key: clear it so future requests fall back
		// to the free plan. The write is attempted even when no free key
		// exists; only a failed profile fetch blocks the flow.
		log.Info("pro plan key no longer valid, demoting",
			zap.String("detail", result.Detail))
		if err := s.demoter.Demote(ctx, req.UserID); err != nil {
			log.Error("could not demote user", zap.Error(err))
			return http.StatusUnauthorized, false
		}
	}

	if req.FreePlanKey == "" {
		return http.StatusUnauthorized, false
	}

	result := s.keys.Validate(ctx, req.FreePlanKey, req.UserID)
	if result.Valid {
		return 0, true
	}

	if result.Code == auth.CodeUnknown {
		log.Error("free key verification inconclusive", zap.String("detail", result.Detail))
		return http.StatusInternalServerError, false
	}

	return http.StatusUnauthorized, false
}

// persistCompletion sends the accumulated reply to the backend after the
// client's stream has closed. The caller already has their answer, so a
// failure here is logged and otherwise dropped.
func (s *ServerState) persistCompletion(log *zap.Logger, completed string, req models.ChatRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.backend.PostCompletion(ctx, completed, req.FileID, req.SessionID, req.Token); err != nil {
		log.Error("could not persist completed message", zap.Error(err))
	}
}

// StatusResponse is the body of the status endpoint.
type StatusResponse struct {
	Status string `json:"status"`
}

// HandleStatus reports gateway liveness.
func (s *ServerState) HandleStatus(w http.ResponseWriter, r *http.Request) {
	SetCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{Status: "ok"})
}

// RegisterHandlers registers the gateway handlers with a router.
func (s *ServerState) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/", s.HandleChat)
	mux.HandleFunc("/status", s.HandleStatus)
}
