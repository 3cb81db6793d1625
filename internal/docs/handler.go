package docs

import (
	_ "embed"
	"net/http"
)

//go:embed openapi.json
var openapiSpec []byte

// Handler serves the static OpenAPI document.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(openapiSpec)
	}
}
