package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hublink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hublink/internal/logger"
)

const clickTimeout = 500 * time.Millisecond

// Go redirects to a link's URL and counts the click (best effort).
func Go(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := currentSnapshot(w, d)
		if !ok {
			return
		}

		id := chi.URLParam(r, "id")
		link, found := snap.Link(id)
		if !found {
			d.Logger.Debug("unknown link", logger.String("link_id", id))
			writeError(w, http.StatusNotFound, "link not found")
			return
		}

		if d.Metrics != nil {
			d.Metrics.ObserveClick()
		}
		if d.Clicks != nil {
			ctx, cancel := context.WithTimeout(r.Context(), clickTimeout)
			if _, err := d.Clicks.IncrementClicks(ctx, link.ID); err != nil {
				d.Logger.Warn("failed to count click",
					logger.String("link_id", link.ID),
					logger.Error(err))
			}
			cancel()
		}

		d.Logger.Debug("redirecting",
			logger.String("link_id", link.ID),
			logger.String("url", link.URL))
		http.Redirect(w, r, link.URL, http.StatusFound)
	}
}
