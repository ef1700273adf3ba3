package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hublink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hublink/internal/httpserver/handlers"
)

func init() { Register(registerWeather) }

func registerWeather(r chi.Router, d deps.Deps) {
	r.Get("/api/weather", handlers.Weather(d))
}
