package mw

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/hublink/internal/auth"
	"github.com/MrSnakeDoc/hublink/internal/domain"
	"github.com/MrSnakeDoc/hublink/internal/logger"
)

// SnapshotReader returns the published snapshot.
type SnapshotReader interface {
	Current() *domain.Snapshot
}

// AdminGuard configures RequireAdmin.
type AdminGuard struct {
	Snapshots SnapshotReader
	Validator auth.TokenValidator
	Roles     auth.RoleChecker
	Role      string
	Logger    logger.Logger
}

// AdminEnabled reports whether the admin surface is exposed: an auth
// backend is configured and the published configuration enables it.
func (g AdminGuard) AdminEnabled() bool {
	if g.Validator == nil || g.Roles == nil || g.Snapshots == nil {
		return false
	}
	snap := g.Snapshots.Current()
	return snap != nil && snap.Config.AdminEnabled
}

// AdminOnly answers 404 while admin is disabled.
func AdminOnly(g AdminGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.AdminEnabled() {
				http.NotFound(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin authenticates the bearer token, checks the admin role and
// stores the session in the request context. Admin routes answer 404 while
// admin is disabled.
func RequireAdmin(g AdminGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.AdminEnabled() {
				http.NotFound(w, r)
				return
			}

			token := auth.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, auth.ErrMissingToken)
				return
			}

			ctx := r.Context()
			sess, err := g.Validator.Validate(ctx, token)
			if err != nil {
				g.Logger.Debug("admin token rejected", logger.Error(err))
				if !errors.Is(err, auth.ErrExpiredToken) {
					err = auth.ErrInvalidToken
				}
				writeAuthError(w, http.StatusUnauthorized, err)
				return
			}

			ok, err := g.Roles.HasRole(ctx, sess.UserID, g.Role)
			if err != nil {
				g.Logger.Error("admin role check failed",
					logger.String("user_id", sess.UserID),
					logger.Error(err))
				writeAuthError(w, http.StatusServiceUnavailable, errors.New("role check unavailable"))
				return
			}
			if !ok {
				g.Logger.Warn("admin access denied",
					logger.String("user_id", sess.UserID),
					logger.String("role", g.Role))
				writeAuthError(w, http.StatusForbidden, errors.New("admin role required"))
				return
			}

			sess.Token = token
			ctx = auth.WithToken(ctx, token)
			ctx = auth.WithSession(ctx, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="hublink"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
