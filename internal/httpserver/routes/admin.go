package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hublink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hublink/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/hublink/internal/httpserver/mw"
	"github.com/MrSnakeDoc/hublink/internal/logger"
)

func init() { Register(registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	guard := mw.AdminGuard{
		Snapshots: d.Store,
		Validator: d.Validator,
		Roles:     d.Roles,
		Role:      d.AdminRole,
		Logger:    d.Logger,
	}

	loginLimit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             5,
		RefillPerIPPerMin: 5,
		MaxEntries:        10000,
		IdleTTL:           30 * time.Minute,
		TrustProxy:        d.TrustProxy,
		OnLimited: func(r *http.Request, key string) {
			d.Logger.Warn("admin login rate limited", logger.String("ip", key))
		},
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.With(mw.AdminOnly(guard), loginLimit).Post("/login", handlers.AdminLogin(d))

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAdmin(guard))
			r.Get("/session", handlers.AdminSession(d))
			r.Put("/config", handlers.AdminSaveConfig(d))
			r.Post("/refresh", handlers.AdminRefresh(d))
			r.Get("/stats", handlers.AdminStats(d))
		})
	})
}
