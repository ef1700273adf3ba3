package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hublink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hublink/internal/httpserver/handlers"
)

func init() { Register(registerConfig) }

func registerConfig(r chi.Router, d deps.Deps) {
	r.Get("/config.json", handlers.ConfigDocument(d))
	r.Get("/api/config", handlers.Config(d))
}
