// Package auth answers the two questions the hub asks about callers:
// "who is the current session" and "does this user hold a role".
package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrMissingToken = errors.New("missing authentication token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrUnsupported  = errors.New("operation not supported by the configured auth mode")
	ErrBadLogin     = errors.New("invalid email or password")
)

// Session is an authenticated caller.
type Session struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"-"`
}

// TokenValidator turns a bearer token into a Session.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*Session, error)
}

// RoleChecker checks role membership for a user id.
type RoleChecker interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
}

// Authenticator signs users in with credentials.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
}

type contextKey string

const (
	sessionKey contextKey = "hublink.session"
	tokenKey   contextKey = "hublink.token"
)

// WithSession stores an already validated session in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the session stored by WithSession.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}

// WithToken stores a raw, not yet validated bearer token in ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the token stored by WithToken.
func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey).(string)
	return tok
}

// BearerToken extracts the token of an "Authorization: Bearer ..." header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Sessions resolves the current session for a context.
//
// Lookup order: a session already validated by middleware, then a raw
// token carried by the context, then the service token used by
// background refreshes. No candidate means no session (nil, nil).
type Sessions struct {
	validator    TokenValidator
	serviceToken string
}

// NewSessions creates a resolver. A nil validator yields no session, ever.
func NewSessions(validator TokenValidator, serviceToken string) *Sessions {
	return &Sessions{validator: validator, serviceToken: serviceToken}
}

// CurrentSession returns the session for ctx, or nil when unauthenticated.
func (s *Sessions) CurrentSession(ctx context.Context) (*Session, error) {
	if sess, ok := SessionFromContext(ctx); ok {
		return sess, nil
	}
	if s == nil || s.validator == nil {
		return nil, nil
	}

	token := TokenFromContext(ctx)
	if token == "" {
		token = s.serviceToken
	}
	if token == "" {
		return nil, nil
	}
	return s.validator.Validate(ctx, token)
}
