package event

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"sportmeet-api/internal/auth"
)

const (
	maxJSONBodyBytes = 1 << 20
	defaultPageSize  = 15
	maxPageSize      = 100
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type createRequest struct {
	Name     string `json:"name"`
	Sport    string `json:"sport"`
	Location string `json:"location"`
	Date     string `json:"date"`
}

type listResponse struct {
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Total      int64   `json:"total"`
	TotalPages int64   `json:"totalPages"`
	Events     []Event `json:"events"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body createRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid json body")
		return
	}

	body.Name = strings.TrimSpace(body.Name)
	body.Sport = strings.TrimSpace(body.Sport)
	body.Location = strings.TrimSpace(body.Location)
	body.Date = strings.TrimSpace(body.Date)

	if body.Name == "" || body.Sport == "" {
		writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}

	date := time.Now().UTC()
	if body.Date != "" {
		parsed, err := parseDate(body.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date")
			return
		}
		date = parsed
	}

	created, err := h.repo.Create(r.Context(), EventInput{
		Name:     body.Name,
		Sport:    body.Sport,
		Location: body.Location,
		Date:     date,
	}, identity.UserID)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Event created",
		"event":   created,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := (page - 1) * limit

	events, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	total, err := h.repo.Count(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}

	writeJSON(w, http.StatusOK, listResponse{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		Events:     events,
	})
}

func parseDate(value string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
