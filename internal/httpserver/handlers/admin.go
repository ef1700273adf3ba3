package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MrSnakeDoc/hublink/internal/auth"
	"github.com/MrSnakeDoc/hublink/internal/domain"
	"github.com/MrSnakeDoc/hublink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hublink/internal/hub"
	"github.com/MrSnakeDoc/hublink/internal/logger"
)

const maxConfigBody = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token,omitempty"`
}

type validationResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems"`
}

type saveFailedResponse struct {
	Error string         `json:"error"`
	Draft hub.EditBuffer `json:"draft"`
}

type refreshPendingResponse struct {
	Saved     bool   `json:"saved"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

type linkStat struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Clicks int64  `json:"clicks"`
}

type statsResponse struct {
	Enabled bool       `json:"enabled"`
	Links   []linkStat `json:"links"`
	Total   int64      `json:"total"`
}

// AdminLogin signs in with email and password and checks the admin role.
func AdminLogin(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Authenticator == nil {
			writeError(w, http.StatusNotImplemented, auth.ErrUnsupported.Error())
			return
		}

		var req loginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		ctx := r.Context()
		sess, err := d.Authenticator.SignIn(ctx, req.Email, req.Password)
		switch {
		case errors.Is(err, auth.ErrUnsupported):
			writeError(w, http.StatusNotImplemented, err.Error())
			return
		case errors.Is(err, auth.ErrBadLogin):
			d.Logger.Warn("admin login failed", logger.String("email", req.Email))
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		case err != nil:
			d.Logger.Error("admin login error", logger.Error(err))
			writeError(w, http.StatusBadGateway, "authentication backend unavailable")
			return
		}

		isAdmin, err := d.Roles.HasRole(ctx, sess.UserID, d.AdminRole)
		if err != nil {
			d.Logger.Error("admin role check failed",
				logger.String("user_id", sess.UserID),
				logger.Error(err))
			writeError(w, http.StatusServiceUnavailable, "role check unavailable")
			return
		}
		if !isAdmin {
			d.Logger.Warn("login without admin role", logger.String("user_id", sess.UserID))
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}

		d.Logger.Info("admin logged in", logger.String("user_id", sess.UserID))
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, sessionResponse{
			UserID: sess.UserID,
			Email:  sess.Email,
			Token:  sess.Token,
		})
	}
}

// AdminSession returns the session established by mw.RequireAdmin.
func AdminSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := auth.SessionFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, auth.ErrMissingToken.Error())
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{UserID: sess.UserID, Email: sess.Email})
	}
}

// AdminSaveConfig replaces the remote content with the submitted edit
// buffer and returns the refreshed snapshot.
func AdminSaveConfig(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Saver == nil {
			writeError(w, http.StatusNotImplemented, "no remote store configured")
			return
		}

		var buf hub.EditBuffer
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxConfigBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&buf); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		snap, err := d.Saver.Save(r.Context(), buf)

		var verr *hub.ValidationError
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, snap)
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, validationResponse{
				Error:    "invalid configuration",
				Problems: verr.Problems,
			})
		case errors.Is(err, hub.ErrSaveFailed):
			// Nothing was written; the draft is echoed so the editor keeps it
			writeJSON(w, http.StatusBadGateway, saveFailedResponse{
				Error: err.Error(),
				Draft: buf,
			})
		case errors.Is(err, hub.ErrRefreshAfterSave):
			requestRefresh(d)
			writeJSON(w, http.StatusAccepted, refreshPendingResponse{
				Saved:     true,
				Error:     err.Error(),
				Retryable: true,
			})
		default:
			d.Logger.Error("unexpected save error", logger.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
	}
}

// AdminRefresh re-resolves the configuration with the admin session and
// waits for the result.
func AdminRefresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := d.Store.Refresh(r.Context())
		if err != nil {
			d.Logger.Error("admin refresh failed", logger.Error(err))
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error(), Retryable: true})
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// AdminStats returns click counters of the published links, most clicked first.
func AdminStats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := currentSnapshot(w, d)
		if !ok {
			return
		}

		resp := statsResponse{Links: []linkStat{}}
		if d.Clicks == nil {
			writeJSON(w, http.StatusOK, resp)
			return
		}

		counts, err := d.Clicks.ClickStats(r.Context())
		if err != nil {
			d.Logger.Error("failed to read click stats", logger.Error(err))
			writeError(w, http.StatusBadGateway, "click counters unavailable")
			return
		}

		resp.Enabled = true
		resp.Links = linkStats(snap.Links, counts)
		for _, s := range resp.Links {
			resp.Total += s.Clicks
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func linkStats(links []domain.LinkEntry, counts map[string]int64) []linkStat {
	stats := make([]linkStat, 0, len(links))
	for _, l := range links {
		stats = append(stats, linkStat{ID: l.ID, Title: l.Title, Clicks: counts[l.ID]})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Clicks > stats[j].Clicks
	})
	return stats
}

// requestRefresh queues an asynchronous refresh if none is pending.
func requestRefresh(d deps.Deps) {
	if d.ReloadTrigger == nil {
		return
	}
	select {
	case d.ReloadTrigger <- struct{}{}:
	default:
	}
}
