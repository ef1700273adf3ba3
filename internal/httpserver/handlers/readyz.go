package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/hublink/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready       bool   `json:"ready"`
	Loading     bool   `json:"loading"`
	Origin      string `json:"origin,omitempty"`
	LastPublish string `json:"last_publish,omitempty"`
	Error       string `json:"error,omitempty"`
	Retryable   bool   `json:"retryable,omitempty"`
}

// Readyz is ready once a snapshot has been published. A later failed
// refresh does not make the service unready: the previous snapshot is
// still served.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		state := d.Store.State()
		resp := readyzResponse{
			Ready:   state.Ready,
			Loading: state.Loading,
			Origin:  string(state.Origin),
		}
		if !state.LastPublish.IsZero() {
			resp.LastPublish = state.LastPublish.UTC().Format(time.RFC3339)
		}
		if state.LastError != nil {
			resp.Error = state.LastError.Error()
		}

		if !state.Ready {
			resp.Retryable = true
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
