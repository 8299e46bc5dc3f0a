// Package api exposes sync runs over HTTP and AWS Lambda.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hallcrest/ordersync/internal/erp"
	"github.com/hallcrest/ordersync/internal/storage"
	"github.com/hallcrest/ordersync/internal/sync"
)

// defaultTimeout bounds a single sync run when the Config doesn't set one.
const defaultTimeout = 5 * time.Minute

// dateFormats are the accepted layouts for the startDate/endDate params.
var dateFormats = []string{time.RFC3339, "2006-01-02"}

// Runner executes one sync pass. Implemented by sync.Service.
type Runner interface {
	// Run executes one full sync pass over orders matching the query.
	Run(ctx context.Context, q erp.Query) (*sync.Result, error)
}

// RunRecorder persists and looks up run telemetry. Implemented by
// storage.RunHistory.
type RunRecorder interface {
	// RecordRun writes one completed run record.
	RecordRun(ctx context.Context, record storage.RunRecord) error

	// Run returns one run record by id; the bool reports whether it exists.
	Run(ctx context.Context, runID string) (storage.RunRecord, bool, error)
}

// Config holds the required configuration for creating a Handler.
type Config struct {
	// DefaultLimit caps a run when the caller doesn't pass a limit param.
	// Zero leaves the sync engine's own default in place.
	DefaultLimit int

	// History records completed runs. Optional; nil disables run history.
	History RunRecorder

	// Logger is the structured logger for the handler.
	Logger *slog.Logger

	// Service executes sync runs.
	Service Runner

	// Timeout bounds the wall-clock duration of one run. Zero applies the
	// default of five minutes.
	Timeout time.Duration
}

// Handler serves sync invocations.
type Handler struct {
	defaultLimit int
	history      RunRecorder
	logger       *slog.Logger
	service      Runner
	timeout      time.Duration
}

// syncResponse is the success body returned by a sync invocation.
type syncResponse struct {
	Message  string    `json:"message"`
	Stats    syncStats `json:"stats"`
	Success  bool      `json:"success"`
	SyncedAt time.Time `json:"syncedAt"`
}

// syncStats carries the run counters.
type syncStats struct {
	Errors           []string `json:"errors"`
	LineItemsCreated int      `json:"lineItemsCreated"`
	LineItemsUpdated int      `json:"lineItemsUpdated"`
	OrdersCreated    int      `json:"ordersCreated"`
	OrdersFetched    int      `json:"ordersFetched"`
	OrdersUpdated    int      `json:"ordersUpdated"`
}

// errorResponse is the failure body returned by a sync invocation.
type errorResponse struct {
	Details string `json:"details,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// runStatusResponse is the body returned by a run-status lookup.
type runStatusResponse struct {
	CompletedAt      time.Time `json:"completedAt"`
	ErrorCount       int       `json:"errorCount"`
	LineItemsCreated int       `json:"lineItemsCreated"`
	LineItemsUpdated int       `json:"lineItemsUpdated"`
	OrdersCreated    int       `json:"ordersCreated"`
	OrdersFailed     int       `json:"ordersFailed"`
	OrdersFetched    int       `json:"ordersFetched"`
	OrdersUpdated    int       `json:"ordersUpdated"`
	RunID            string    `json:"runId"`
	StartedAt        time.Time `json:"startedAt"`
	WindowEnd        time.Time `json:"windowEnd"`
	WindowStart      time.Time `json:"windowStart"`
}

// New creates a new sync invocation handler.
func New(cfg Config) (*Handler, error) {
	if cfg.Service == nil {
		return nil, errors.New("sync service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Handler{
		defaultLimit: cfg.DefaultLimit,
		history:      cfg.History,
		logger:       logger,
		service:      cfg.Service,
		timeout:      timeout,
	}, nil
}

// ServeHTTP handles POST /sync requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
			Error:   "method_not_allowed",
			Message: "sync must be invoked with POST",
		})
		return
	}

	query, err := parseQuery(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "invalid_request",
			Message: "invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	status, body := h.runSync(r.Context(), query)
	writeJSON(w, status, body)
}

// RunStatus handles GET /runs?id=<runID> requests, returning the recorded
// telemetry of one completed run.
func (h *Handler) RunStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
			Error:   "method_not_allowed",
			Message: "run status must be requested with GET",
		})
		return
	}

	status, body := h.runStatus(r.Context(), r.URL.Query().Get("id"))
	writeJSON(w, status, body)
}

// runStatus looks up one run record. Shared by the HTTP and Lambda entry
// points.
func (h *Handler) runStatus(ctx context.Context, runID string) (int, any) {
	if runID == "" {
		return http.StatusBadRequest, errorResponse{
			Error:   "invalid_request",
			Message: "id query parameter is required",
		}
	}

	if h.history == nil {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: "run history is not configured",
		}
	}

	record, found, err := h.history.Run(ctx, runID)
	if err != nil {
		h.logger.Error("failed to look up run", "run_id", runID, "error", err)
		return http.StatusInternalServerError, errorResponse{
			Error:   "lookup_failed",
			Message: "run lookup failed",
			Details: err.Error(),
		}
	}
	if !found {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: fmt.Sprintf("run %s not found", runID),
		}
	}

	return http.StatusOK, runStatusResponse{
		CompletedAt:      record.CompletedAt,
		ErrorCount:       record.ErrorCount,
		LineItemsCreated: record.LineItemsCreated,
		LineItemsUpdated: record.LineItemsUpdated,
		OrdersCreated:    record.OrdersCreated,
		OrdersFailed:     record.OrdersFailed,
		OrdersFetched:    record.OrdersFetched,
		OrdersUpdated:    record.OrdersUpdated,
		RunID:            record.RunID,
		StartedAt:        record.StartedAt,
		WindowEnd:        record.WindowEnd,
		WindowStart:      record.WindowStart,
	}
}

// runSync executes one bounded sync run and shapes the response body.
// Shared by the HTTP and Lambda entry points.
func (h *Handler) runSync(ctx context.Context, query erp.Query) (int, any) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if query.Limit == 0 {
		query.Limit = h.defaultLimit
	}

	startedAt := time.Now().UTC()
	result, err := h.service.Run(ctx, query)
	if err != nil {
		h.logger.Error("sync run failed", "error", err)
		return http.StatusInternalServerError, errorResponse{
			Error:   "sync_failed",
			Message: "sync run failed",
			Details: err.Error(),
		}
	}

	completedAt := time.Now().UTC()
	h.recordRun(ctx, query, result, startedAt, completedAt)

	return http.StatusOK, syncResponse{
		Message:  resultMessage(result),
		Stats:    statsFromResult(result),
		Success:  true,
		SyncedAt: completedAt,
	}
}

// recordRun writes run telemetry. Failures are logged only; the sync itself
// already succeeded.
func (h *Handler) recordRun(ctx context.Context, query erp.Query, result *sync.Result, startedAt, completedAt time.Time) {
	if h.history == nil || result.DryRun {
		return
	}

	record := storage.RunRecord{
		CompletedAt:      completedAt,
		ErrorCount:       len(result.Errors),
		LineItemsCreated: result.LineItemsCreated,
		LineItemsUpdated: result.LineItemsUpdated,
		OrdersCreated:    result.OrdersCreated,
		OrdersFailed:     result.OrdersFailed,
		OrdersFetched:    result.OrdersFetched,
		OrdersUpdated:    result.OrdersUpdated,
		RunID:            uuid.NewString(),
		StartedAt:        startedAt,
		WindowEnd:        query.End,
		WindowStart:      query.Start,
	}

	if err := h.history.RecordRun(ctx, record); err != nil {
		h.logger.Error("failed to record run history", "run_id", record.RunID, "error", err)
	}
}

// parseQuery builds an order query from invocation parameters.
func parseQuery(values url.Values) (erp.Query, error) {
	var q erp.Query

	if raw := values.Get("startDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return erp.Query{}, fmt.Errorf("startDate: %w", err)
		}
		q.Start = t
	}

	if raw := values.Get("endDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return erp.Query{}, fmt.Errorf("endDate: %w", err)
		}
		q.End = t
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return erp.Query{}, fmt.Errorf("limit must be a positive integer, got %q", raw)
		}
		q.Limit = limit
	}

	for _, s := range values["status"] {
		q.Statuses = append(q.Statuses, erp.Status(s))
	}

	return q, nil
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// resultMessage summarizes a run for the response body.
func resultMessage(result *sync.Result) string {
	if result.OrdersFetched == 0 {
		return "no orders found in the requested window"
	}

	msg := fmt.Sprintf("synced %d orders (%d created, %d updated, %d failed)",
		result.OrdersFetched, result.OrdersCreated, result.OrdersUpdated, result.OrdersFailed)
	if result.DryRun {
		msg = "[DRY-RUN] " + msg
	}
	return msg
}

func statsFromResult(result *sync.Result) syncStats {
	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}

	return syncStats{
		Errors:           errs,
		LineItemsCreated: result.LineItemsCreated,
		LineItemsUpdated: result.LineItemsUpdated,
		OrdersCreated:    result.OrdersCreated,
		OrdersFetched:    result.OrdersFetched,
		OrdersUpdated:    result.OrdersUpdated,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
