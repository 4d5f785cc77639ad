// Package server exposes the planning pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/c360studio/eventpilot/cache"
	"github.com/c360studio/eventpilot/pipeline"
)

// maxRequestBodySize limits POST body sizes to prevent DoS.
const maxRequestBodySize = 1 << 20 // 1 MB

// Planner is the pipeline surface the HTTP layer needs.
type Planner interface {
	Plan(ctx context.Context, rawText string) (*pipeline.Result, error)
	Refine(ctx context.Context, rawText, refinementText string) (*pipeline.Result, error)
}

// Component serves the planning API.
type Component struct {
	planner Planner
	cache   *cache.Cache
	logger  *slog.Logger
	started time.Time
}

// New creates the HTTP component. The cache may be nil; the cache
// endpoints then report it as disabled.
func New(planner Planner, resultCache *cache.Cache, logger *slog.Logger) *Component {
	if logger == nil {
		logger = slog.Default()
	}
	return &Component{
		planner: planner,
		cache:   resultCache,
		logger:  logger,
		started: time.Now(),
	}
}

// RegisterHTTPHandlers registers all planning handlers under the given prefix.
// The prefix should be the path segment without a trailing slash (e.g. "api/v1").
// Handlers are registered as:
//
//	POST   <prefix>/plan
//	POST   <prefix>/refine
//	GET    <prefix>/cache/stats
//	DELETE <prefix>/cache
//	GET    <prefix>/health
//	GET    <prefix>/status
func (c *Component) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	// Normalise: ensure leading slash and trailing slash.
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	mux.HandleFunc(prefix+"plan", c.handlePlan)
	mux.HandleFunc(prefix+"refine", c.handleRefine)
	mux.HandleFunc(prefix+"cache/stats", c.handleCacheStats)
	mux.HandleFunc(prefix+"cache", c.handleCacheClear)
	mux.HandleFunc(prefix+"health", c.handleHealth)
	mux.HandleFunc(prefix+"status", c.handleStatus)
}

// PlanRequest is the request body for POST /plan and /refine.
type PlanRequest struct {
	// Text is the free-form event description.
	Text string `json:"text"`

	// Refinement carries additional requirements. Optional on /plan,
	// required on /refine; when present the run bypasses the cache.
	Refinement string `json:"refinement,omitempty"`
}

// ErrorResponse is the body returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handlePlan runs a fresh planning request.
func (c *Component) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := c.decodePlanRequest(w, r)
	if !ok {
		return
	}

	var (
		result *pipeline.Result
		err    error
	)
	if strings.TrimSpace(req.Refinement) != "" {
		result, err = c.planner.Refine(r.Context(), req.Text, req.Refinement)
	} else {
		result, err = c.planner.Plan(r.Context(), req.Text)
	}
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleRefine re-runs a request with additional requirements. Refinements
// bypass the result cache.
func (c *Component) handleRefine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := c.decodePlanRequest(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Refinement) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "refinement text is required"})
		return
	}

	result, err := c.planner.Refine(r.Context(), req.Text, req.Refinement)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// decodePlanRequest reads and validates the shared plan/refine body.
func (c *Component) decodePlanRequest(w http.ResponseWriter, r *http.Request) (PlanRequest, bool) {
	var req PlanRequest

	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return req, false
		}
		if errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "request body is empty"})
			return req, false
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return req, false
	}

	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "text is required"})
		return req, false
	}

	return req, true
}

// CacheStatsResponse is the body for GET /cache/stats.
type CacheStatsResponse struct {
	Enabled bool         `json:"enabled"`
	Stats   *cache.Stats `json:"stats,omitempty"`
}

// handleCacheStats reports result-cache counters.
func (c *Component) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := CacheStatsResponse{Enabled: c.cache != nil}
	if c.cache != nil {
		stats := c.cache.Stats()
		resp.Stats = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCacheClear empties the result cache.
func (c *Component) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if c.cache == nil {
		writeJSON(w, http.StatusOK, map[string]any{"cleared": 0, "enabled": false})
		return
	}

	cleared := c.cache.Len()
	c.cache.Clear()
	c.logger.Info("cache cleared via API", "entries", cleared)
	writeJSON(w, http.StatusOK, map[string]any{"cleared": cleared, "enabled": true})
}

// healthProbeInput builds the canned description the health check plans.
// It carries an explicit date and budget so validation passes on honest
// extraction, and the date stays a month out so the check never ages into
// the past. The first successful probe lands in the result cache, so
// repeated probes stay cheap.
func healthProbeInput() string {
	date := time.Now().AddDate(0, 1, 0).Format("2006-01-02")
	return fmt.Sprintf("Corporate training session for 20 people in Bangalore on %s. Budget 150000.", date)
}

// healthProbeTimeout bounds the trial run; a wedged model endpoint must
// not hold the probe open indefinitely.
const healthProbeTimeout = 30 * time.Second

// handleHealth runs a trial request through the full pipeline. The
// pipeline always degrades rather than fails past validation, so a
// degraded response here means a stage is broken, not merely slow.
func (c *Component) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	result, err := c.planner.Plan(ctx, healthProbeInput())
	if err != nil || result == nil || !result.Succeeded {
		if err != nil {
			c.logger.Warn("health probe failed", "error", err)
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusResponse is the body for GET /status.
type StatusResponse struct {
	Status       string `json:"status"`
	UptimeSecs   int64  `json:"uptime_secs"`
	CacheEnabled bool   `json:"cache_enabled"`
	CacheEntries int    `json:"cache_entries"`
}

// handleStatus returns service-level runtime information.
func (c *Component) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := StatusResponse{
		Status:       "ok",
		UptimeSecs:   int64(time.Since(c.started).Seconds()),
		CacheEnabled: c.cache != nil,
	}
	if c.cache != nil {
		resp.CacheEntries = c.cache.Len()
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Response is already partially written; nothing useful to do.
		_ = err
	}
}
