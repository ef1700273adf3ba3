package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hublink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hublink/internal/httpserver/handlers"
)

func init() { Register(registerLinks) }

func registerLinks(r chi.Router, d deps.Deps) {
	r.Get("/api/links", handlers.Links(d))
	r.Get("/api/categories", handlers.Categories(d))
	r.Get("/api/categories/{id}/links", handlers.CategoryLinks(d))
	r.Get("/go/{id}", handlers.Go(d))
}
