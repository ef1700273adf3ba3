package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/hublink/internal/domain"
	"github.com/MrSnakeDoc/hublink/internal/httpserver/deps"
)

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// currentSnapshot returns the published snapshot, or answers 503 when
// nothing was published yet.
func currentSnapshot(w http.ResponseWriter, d deps.Deps) (*domain.Snapshot, bool) {
	snap := d.Store.Current()
	if snap == nil {
		w.Header().Set("Retry-After", "5")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:     "configuration not loaded",
			Retryable: true,
		})
		return nil, false
	}
	return snap, true
}
