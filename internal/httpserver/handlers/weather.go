package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/hublink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hublink/internal/weather"
)

// Weather returns the last weather observation.
func Weather(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Weather == nil {
			writeError(w, http.StatusNotFound, "weather widget disabled")
			return
		}

		current, err := d.Weather.Current()
		if errors.Is(err, weather.ErrUnavailable) {
			w.Header().Set("Retry-After", "30")
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Retryable: true})
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Cache-Control", "max-age=60")
		writeJSON(w, http.StatusOK, current)
	}
}
