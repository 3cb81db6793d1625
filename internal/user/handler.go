package user

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"sportmeet-api/internal/auth"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type deleteRequest struct {
	Password string `json:"password"`
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := h.repo.Get(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]Profile{"user": profile})
}

func (h *Handler) ByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	profile, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	// Public view: the email stays private.
	profile.Email = ""
	writeJSON(w, http.StatusOK, map[string]Profile{"user": profile})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var input ProfileUpdate
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid json body")
		return
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Bio = strings.TrimSpace(input.Bio)

	if input.Username == "" || input.Email == "" {
		writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}
	if !emailRegex.MatchString(input.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email")
		return
	}

	changed, err := h.repo.UpdateProfile(r.Context(), identity.UserID, input)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "Email already in use")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if !changed {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated"})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body deleteRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid json body")
		return
	}

	body.Password = strings.TrimSpace(body.Password)
	if body.Password == "" {
		writeError(w, http.StatusBadRequest, "Password required")
		return
	}

	username, passwordHash, err := h.repo.Credentials(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if !auth.VerifyPassword(body.Password, passwordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	deleted, err := h.repo.Delete(r.Context(), identity.UserID)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("User %s deleted", username),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
