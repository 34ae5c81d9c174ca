package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/workhub/intranet-assistant/internal/core/domain"
	"github.com/workhub/intranet-assistant/internal/core/ports"
	"github.com/workhub/intranet-assistant/internal/observability/metrics"
)

const serviceName = "assistant-api"

// backpressureWait bounds how long a chat request waits for a generation slot.
const backpressureWait = 2 * time.Second

type Options struct {
	RateLimitRPS       float64
	RateLimitBurst     int
	MaxConcurrentChats int
}

type Router struct {
	svc     ports.AssistantService
	metrics *metrics.HTTPServerMetrics
	opts    Options
}

func NewRouter(svc ports.AssistantService, m *metrics.HTTPServerMetrics, opts Options) *Router {
	return &Router{
		svc:     svc,
		metrics: m,
		opts:    opts,
	}
}

func (rt *Router) Handler() http.Handler {
	gate := func(h http.Handler) http.Handler {
		return backpressureMiddleware(h, rt.opts.MaxConcurrentChats, backpressureWait)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/metrics", rt.metrics.Handler())
	mux.HandleFunc("/v1/assistant/status", rt.status)
	mux.Handle("/v1/assistant/message", gate(http.HandlerFunc(rt.message)))
	mux.Handle("/v1/assistant/stream", gate(http.HandlerFunc(rt.stream)))

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	handler = rt.metrics.Middleware(serviceName, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	status, err := rt.svc.Status(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": "status probe failed"})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (rt *Router) message(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	result, err := rt.svc.Answer(r.Context(), req)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": userFacingError(err)})
		return
	}

	rt.metrics.RecordRAGObservation(serviceName, "message", len(result.Sources), time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) stream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	events, err := rt.svc.Stream(r.Context(), req)
	if err != nil {
		// Failure detected before streaming began: still a plain HTTP error.
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": userFacingError(err)})
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	tokens := 0
	for event := range events {
		if event.Type == domain.EventToken {
			tokens++
		}
		if event.Type == domain.EventMetadata {
			rt.metrics.RecordRAGObservation(serviceName, "stream", len(event.Sources), time.Since(start))
		}
		if err := sse.WriteEvent(event); err != nil {
			// Caller went away; context cancellation tears down generation.
			break
		}
	}
	rt.metrics.RecordStreamTokens(serviceName, tokens)
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (domain.ChatRequest, bool) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return domain.ChatRequest{}, false
	}

	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return domain.ChatRequest{}, false
	}
	return req, true
}

// userFacingError keeps upstream details out of responses; operators get the
// full chain from the structured logs.
func userFacingError(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return err.Error()
	case domain.IsKind(err, domain.ErrTemporary):
		return "the assistant is temporarily unavailable"
	default:
		return "assistant request failed"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
