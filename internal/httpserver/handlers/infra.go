package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/hublink/internal/httpserver/deps"
)

type componentStatus struct {
	OK          bool   `json:"ok"`
	Origin      string `json:"origin,omitempty"`
	LinksLoaded *int   `json:"links_loaded,omitempty"`
	LastRefresh string `json:"last_refresh,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Error       string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of every backing component.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		components := map[string]componentStatus{
			"config":   configStatus(d),
			"database": pingStatus(ctx, d.Database, "admin-disabled"),
			"redis":    pingStatus(ctx, d.Redis, "click-counting-disabled"),
			"weather":  weatherStatus(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status:     determineStatus(components),
			Components: components,
		})
	}
}

func determineStatus(components map[string]componentStatus) string {
	// Nothing published = nothing to serve
	if c, ok := components["config"]; ok && !c.OK {
		return "critical"
	}

	for _, c := range components {
		if !c.OK && c.Mode != "disabled" {
			return "degraded"
		}
	}

	return "operational"
}

func configStatus(d deps.Deps) componentStatus {
	state := d.Store.State()
	status := componentStatus{
		OK:          state.Ready,
		Origin:      string(state.Origin),
		LastRefresh: "never",
	}
	if !state.LastPublish.IsZero() {
		status.LastRefresh = state.LastPublish.Format("2006-01-02 15:04:05")
	}
	if snap := d.Store.Current(); snap != nil {
		n := len(snap.Links)
		status.LinksLoaded = &n
	}
	if state.LastError != nil {
		status.Error = state.LastError.Error()
	}
	return status
}

func pingStatus(ctx context.Context, p deps.Pinger, impact string) componentStatus {
	if p == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: impact,
		}
	}

	if err := p.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: impact,
			Error:  err.Error(),
		}
	}

	return componentStatus{OK: true, Mode: "optimal"}
}

func weatherStatus(d deps.Deps) componentStatus {
	if d.Weather == nil {
		return componentStatus{OK: false, Mode: "disabled"}
	}
	if _, err := d.Weather.Current(); err != nil {
		return componentStatus{OK: false, Mode: "degraded", Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: "optimal"}
}
