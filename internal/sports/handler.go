package sports

import (
	"encoding/json"
	"net/http"

	"github.com/getsentry/sentry-go"
)

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) Leagues(w http.ResponseWriter, r *http.Request) {
	data, err := h.client.AllLeagues(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusBadGateway, "Sports data provider unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
