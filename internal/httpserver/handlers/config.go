package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/hublink/internal/domain"
	"github.com/MrSnakeDoc/hublink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hublink/internal/sources/static"
)

type configResponse struct {
	Config     domain.CompanyConfig `json:"config"`
	Origin     domain.Origin        `json:"origin"`
	ResolvedAt time.Time            `json:"resolvedAt"`
}

// Config returns the company settings of the published snapshot.
func Config(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := currentSnapshot(w, d)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, configResponse{
			Config:     snap.Config,
			Origin:     snap.Origin,
			ResolvedAt: snap.ResolvedAt,
		})
	}
}

// ConfigDocument serves the published snapshot in static document shape,
// so clients that read config.json can point at this service.
func ConfigDocument(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := currentSnapshot(w, d)
		if !ok {
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		writeJSON(w, http.StatusOK, static.DocumentFrom(snap))
	}
}
