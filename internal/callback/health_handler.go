// health_handler.go -- Health check handler for GET /health.
package callback

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MGallo-Code/bungie-verify/internal/store"
)

// CheckHealth handles GET /health -- checks the record store, returns its status.
// Returns 200 when healthy or disabled, 503 when the backend errors.
func (h *Handler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := h.Records.CheckHealth(r.Context()); err != nil {
		if errors.Is(err, store.ErrStoreDisabled) {
			status = "disabled"
		} else {
			logError(r, "record store health check failed", "error", err)
			status = "error"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if status == "error" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(struct {
		RecordStore string `json:"record_store"`
	}{status})
}
