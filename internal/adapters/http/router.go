package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/document-qa/internal/core/ports"
	"github.com/kirillkom/document-qa/internal/observability/metrics"
)

const serviceName = "api"

type RouterOptions struct {
	APIKey         string
	Version        string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
	RequestTimeout time.Duration
}

type Router struct {
	runs    ports.RunService
	metrics *metrics.HTTPServerMetrics
	opts    RouterOptions
}

func NewRouter(runs ports.RunService, m *metrics.HTTPServerMetrics, opts RouterOptions) *Router {
	return &Router{
		runs:    runs,
		metrics: m,
		opts:    opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", rt.health)
	mux.HandleFunc("/hackrx/run", rt.bearerAuth(rt.run))
	mux.Handle("/metrics", rt.metrics.Handler())

	var handler http.Handler = mux
	handler = rt.metrics.Middleware(serviceName, handler)
	if rt.opts.MaxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.opts.MaxConcurrent, 50*time.Millisecond)
	}
	if rt.opts.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": rt.opts.Version,
	})
}

func (rt *Router) run(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Documents string   `json:"documents"`
		Questions []string `json:"questions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Documents) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "documents url is required"})
		return
	}
	if len(req.Questions) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "at least one question is required"})
		return
	}

	ctx := r.Context()
	if rt.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.opts.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := rt.runs.Run(ctx, req.Documents, req.Questions)
	if err != nil {
		rt.metrics.RecordRun(serviceName, "failed", len(req.Questions), 0, 0, time.Since(start))
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	rt.metrics.RecordRun(
		serviceName,
		string(result.Record.Status),
		result.Record.QuestionCount,
		result.Record.PassageCount,
		result.Record.SentinelCount,
		time.Since(start),
	)
	rt.metrics.RecordCacheLookup(serviceName, result.Record.CacheHit)
	rt.metrics.RecordRetrieval(serviceName, result.RetrievalHits)

	writeJSON(w, http.StatusOK, map[string]any{"answers": result.Answers})
}

func (rt *Router) bearerAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rt.opts.APIKey == "" {
			next(w, r)
			return
		}
		if isAuthorizedBearerHeader(r.Header.Get("Authorization"), rt.opts.APIKey) {
			next(w, r)
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
}

func isAuthorizedBearerHeader(headerValue, expectedToken string) bool {
	headerValue = strings.TrimSpace(headerValue)
	if headerValue == "" || expectedToken == "" {
		return false
	}
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(headerValue, bearerPrefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(headerValue, bearerPrefix))
	return token == expectedToken
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
