package admin

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"sportmeet-api/internal/auth"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	repo *auth.Repository
}

func NewHandler(repo *auth.Repository) *Handler {
	return &Handler{repo: repo}
}

type setModRequest struct {
	ID string `json:"id"`
}

// SetModerator promotes the target account to moderator. It must be mounted
// behind the authentication and admin authorization gates. Success is only
// reported when the store confirms a changed row.
func (h *Handler) SetModerator(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body setModRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid json body")
		return
	}

	body.ID = strings.TrimSpace(body.ID)
	if body.ID == "" {
		writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}

	if _, err := h.repo.GetByID(r.Context(), body.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	changed, err := h.repo.UpdateRole(r.Context(), body.ID, auth.RoleModerator)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if !changed {
		writeError(w, http.StatusBadRequest, "Unable to update role")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Role updated"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
