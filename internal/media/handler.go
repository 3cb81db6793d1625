package media

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"sportmeet-api/internal/auth"
	"sportmeet-api/internal/user"
)

const maxUploadSizeBytes = 10 << 20

type AvatarUploader interface {
	UploadAvatar(ctx context.Context, imageSource string) (string, error)
}

// AvatarHandler accepts a multipart image, pushes it to the uploader and
// stores the resulting URL on the authenticated user's profile.
type AvatarHandler struct {
	uploader AvatarUploader
	users    *user.Repository
}

func NewAvatarHandler(uploader AvatarUploader, users *user.Repository) *AvatarHandler {
	return &AvatarHandler{uploader: uploader, users: users}
}

func (h *AvatarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if h.uploader == nil {
		writeError(w, http.StatusInternalServerError, "Image uploader is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSizeBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSizeBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "File is empty")
		return
	}
	if len(data) > maxUploadSizeBytes {
		writeError(w, http.StatusBadRequest, "File is too large")
		return
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		writeError(w, http.StatusBadRequest, "File must be an image")
		return
	}

	imageSource := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	avatarURL, err := h.uploader.UploadAvatar(r.Context(), imageSource)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusBadGateway, "Failed to upload image")
		return
	}

	changed, err := h.users.UpdateAvatar(r.Context(), identity.UserID, avatarURL)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if !changed {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"avatar_url": avatarURL})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
