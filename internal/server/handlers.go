package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmarchuk/otprelay/internal/database"
	"github.com/dmarchuk/otprelay/internal/monitor"
)

const recentLogsLimit = 20

// Handlers implements the operator API endpoints. Every endpoint
// reflects last-known state: collaborator failures degrade individual
// fields instead of failing the response.
type Handlers struct {
	pipeline *monitor.Pipeline
	cache    CacheControl
	db       *database.DB
	sink     TestSender
	logger   *slog.Logger
}

// CacheControl is the slice of the dedup cache the operator can touch
type CacheControl interface {
	Reset()
	Stats() (total int, window time.Duration)
}

// TestSender sends a test notification through the sink
type TestSender interface {
	SendTest(ctx context.Context) error
}

// NewHandlers creates the API handlers
func NewHandlers(pipeline *monitor.Pipeline, cache CacheControl, db *database.DB, sink TestSender, logger *slog.Logger) *Handlers {
	return &Handlers{
		pipeline: pipeline,
		cache:    cache,
		db:       db,
		sink:     sink,
		logger:   logger.With("component", "api"),
	}
}

type statusResponse struct {
	Running     bool   `json:"is_running"`
	Uptime      string `json:"uptime"`
	TotalLogged int    `json:"total_otps_logged"`
	TotalSent   int    `json:"total_otps_sent"`
	LastCheck   string `json:"last_check"`
	CacheSize   int    `json:"cache_size"`
	LastError   string `json:"last_error,omitempty"`
}

type actionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Status reports pipeline state and statistics
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := h.pipeline.Status()

	resp := statusResponse{
		Running:   st.Running,
		Uptime:    "0d 0h 0m",
		LastCheck: "never",
		CacheSize: st.CacheSize,
		LastError: st.LastError,
	}
	if st.Running {
		resp.Uptime = formatUptime(time.Since(st.StartedAt))
	}
	if !st.LastCheck.IsZero() {
		resp.LastCheck = st.LastCheck.Format(time.DateTime)
	}

	// Stats are best-effort: a broken database must not break status
	if total, err := h.db.CountLogs(ctx); err == nil {
		resp.TotalLogged = total
	} else {
		h.logger.Warn("failed to count logs", "error", err)
	}
	if sent, err := h.db.CountDelivered(ctx); err == nil {
		resp.TotalSent = sent
	} else {
		h.logger.Warn("failed to count delivered", "error", err)
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// Start starts the poll loop
func (h *Handlers) Start(w http.ResponseWriter, r *http.Request) {
	msg, err := h.pipeline.Start()
	if err != nil {
		h.writeJSON(w, http.StatusOK, actionResponse{Success: false, Message: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: msg})
}

// Stop stops the poll loop
func (h *Handlers) Stop(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: h.pipeline.Stop()})
}

// Check runs one fetch cycle immediately
func (h *Handlers) Check(w http.ResponseWriter, r *http.Request) {
	msg, err := h.pipeline.CheckNow(r.Context())
	if err != nil {
		h.writeJSON(w, http.StatusOK, actionResponse{Success: false, Message: "check failed: " + err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: msg})
}

// ClearCache empties the dedup cache
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.cache.Reset()
	h.writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: "cache cleared successfully"})
}

// Test sends a test message through the notification sink
func (h *Handlers) Test(w http.ResponseWriter, r *http.Request) {
	if err := h.sink.SendTest(r.Context()); err != nil {
		h.logger.Error("test message failed", "error", err)
		h.writeJSON(w, http.StatusOK, actionResponse{Success: false, Message: "failed to send test message"})
		return
	}
	h.writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: "test message sent successfully"})
}

type logEntry struct {
	ID          int64  `json:"id"`
	OTPCode     string `json:"otp_code"`
	PhoneNumber string `json:"phone_number"`
	ServiceName string `json:"service_name"`
	Timestamp   string `json:"timestamp"`
	Delivered   bool   `json:"delivered"`
}

type logsResponse struct {
	Success bool       `json:"success"`
	Logs    []logEntry `json:"logs"`
}

// Logs returns the most recent audit rows
func (h *Handlers) Logs(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.RecentLogs(r.Context(), recentLogsLimit)
	if err != nil {
		h.logger.Error("failed to fetch logs", "error", err)
		h.writeJSON(w, http.StatusOK, logsResponse{Success: false, Logs: []logEntry{}})
		return
	}

	entries := make([]logEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, logEntry{
			ID:          row.ID,
			OTPCode:     row.OTPCode,
			PhoneNumber: row.PhoneNumber,
			ServiceName: row.ServiceName,
			Timestamp:   row.ObservedAt.Format(time.DateTime),
			Delivered:   row.Delivered,
		})
	}
	h.writeJSON(w, http.StatusOK, logsResponse{Success: true, Logs: entries})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}
