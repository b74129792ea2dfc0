package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/antoniostano/voicebridge/internal/calls"
	"github.com/antoniostano/voicebridge/internal/config"
	"github.com/antoniostano/voicebridge/internal/observability"
)

// Bridge runs one bridged call to completion. Implemented by relay.Bridge.
type Bridge interface {
	RunCall(ctx context.Context, callerID string, in io.Reader, out io.Writer) error
}

type Server struct {
	cfg     config.Config
	bridge  Bridge
	tracker *calls.Tracker
	metrics *observability.Metrics
}

func New(cfg config.Config, bridge Bridge, tracker *calls.Tracker, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		bridge:  bridge,
		tracker: tracker,
		metrics: metrics,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/call", s.handleCall)
	r.Get("/calls", s.handleListCalls)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ready",
		"active_calls": s.tracker.ActiveCount(),
	})
}

// handleCall accepts one long-lived chunked POST per call: the body is the
// caller's raw audio, the response is backend audio. The x-uuid header names
// the call; a missing header gets a generated ID so the bridge never refuses a
// ringing trunk.
func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "bridge not configured")
		return
	}

	callerID := strings.TrimSpace(r.Header.Get("x-uuid"))
	if callerID == "" {
		callerID = uuid.NewString()
		log.Printf("call without x-uuid header, assigned %s", callerID)
	}

	err := s.bridge.RunCall(r.Context(), callerID, r.Body, &streamWriter{w: w})
	if err != nil {
		// Only session-open failures surface here; once audio flows the
		// response stream is committed and teardown is a plain end-of-stream.
		log.Printf("call %s failed: %v", callerID, err)
		respondError(w, http.StatusBadGateway, "backend_unavailable", err.Error())
		return
	}
}

func (s *Server) handleListCalls(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"calls": s.tracker.Snapshot(),
	})
}

// streamWriter commits the octet-stream response lazily on the first audio
// write, leaving the status line free for an error reply when the backend
// session never opens.
type streamWriter struct {
	w         http.ResponseWriter
	committed bool
}

func (sw *streamWriter) Write(p []byte) (int, error) {
	if !sw.committed {
		sw.w.Header().Set("Content-Type", "application/octet-stream")
		sw.w.WriteHeader(http.StatusOK)
		sw.committed = true
	}
	return sw.w.Write(p)
}

func (sw *streamWriter) Flush() {
	if f, ok := sw.w.(http.Flusher); ok {
		f.Flush()
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": message, "code": code})
}
