package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hublink/internal/domain"
	"github.com/MrSnakeDoc/hublink/internal/httpserver/deps"
)

type linksResponse struct {
	Links []domain.LinkEntry `json:"links"`
	Count int                `json:"count"`
	Total int                `json:"total"`
}

type categoriesResponse struct {
	Categories []domain.Category `json:"categories"`
	Count      int               `json:"count"`
}

// Links filters the published links.
//
// Query parameters: q (case-insensitive substring of title or
// description) and category (repeatable or comma separated, ORed).
func Links(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := currentSnapshot(w, d)
		if !ok {
			return
		}

		query := r.URL.Query()
		selected := categoryParams(query["category"])
		links := domain.Filter(snap.Links, selected, query.Get("q"))

		writeJSON(w, http.StatusOK, linksResponse{
			Links: links,
			Count: len(links),
			Total: len(snap.Links),
		})
	}
}

// Categories lists the published categories with resolved icons.
func Categories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := currentSnapshot(w, d)
		if !ok {
			return
		}

		categories := make([]domain.Category, 0, len(snap.Categories))
		for _, c := range snap.Categories {
			c.Icon = domain.ResolveIcon(c.Icon)
			categories = append(categories, c)
		}

		writeJSON(w, http.StatusOK, categoriesResponse{
			Categories: categories,
			Count:      len(categories),
		})
	}
}

// CategoryLinks lists the links of one category, optionally narrowed by q.
func CategoryLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := currentSnapshot(w, d)
		if !ok {
			return
		}

		id := chi.URLParam(r, "id")
		if _, found := snap.Category(id); !found {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}

		links := domain.Filter(snap.Links, []string{id}, r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, linksResponse{
			Links: links,
			Count: len(links),
			Total: len(snap.Links),
		})
	}
}

func categoryParams(values []string) []string {
	var out []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}
