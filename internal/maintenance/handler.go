package maintenance

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"sportmeet-api/internal/event"
	"sportmeet-api/internal/observability"
)

// CleanupHandler purges events whose date is long past. It is meant to be hit
// by a scheduled job and is gated by a shared cron secret; when no secret is
// configured the endpoint pretends not to exist.
type CleanupHandler struct {
	events     *event.Repository
	logger     *observability.Logger
	cronSecret string
	retention  time.Duration
	batchSize  int
}

func NewCleanupHandler(
	events *event.Repository,
	logger *observability.Logger,
	cronSecret string,
	retention time.Duration,
	batchSize int,
) *CleanupHandler {
	return &CleanupHandler{
		events:     events,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
		retention:  retention,
		batchSize:  batchSize,
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.cronSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	retention := h.retention
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	cutoff := time.Now().UTC().Add(-retention)

	deleted, err := h.events.DeleteOlderThan(r.Context(), cutoff, h.batchSize)
	if err != nil {
		h.logger.Error("event_cleanup_failed", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cleanup failed"})
		return
	}

	h.logger.Info("event_cleanup_completed", map[string]any{
		"deleted_events": deleted,
		"cutoff":         cutoff.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"deleted_events": deleted,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
