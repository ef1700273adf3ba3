package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// Supabase validates sessions, signs users in and reads the user_roles
// table through a hosted Supabase project.
//
// The supabase client calls take no context; ctx is only checked before
// each call.
type Supabase struct {
	client *supabase.Client
}

// NewSupabase creates a client for the project at url.
func NewSupabase(url, key string) (*Supabase, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &Supabase{client: client}, nil
}

// Validate implements TokenValidator.
func (s *Supabase) Validate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, err := s.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return &Session{UserID: user.ID.String(), Email: user.Email, Token: token}, nil
}

// SignIn implements Authenticator.
func (s *Supabase) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := s.client.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLogin, err)
	}

	return &Session{UserID: resp.User.ID.String(), Email: resp.User.Email, Token: resp.AccessToken}, nil
}

type roleRow struct {
	Role string `json:"role"`
}

// HasRole implements RoleChecker.
func (s *Supabase) HasRole(ctx context.Context, userID, role string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	data, _, err := s.client.From("user_roles").
		Select("role", "exact", false).
		Eq("user_id", userID).
		Eq("role", role).
		Execute()
	if err != nil {
		return false, fmt.Errorf("query user_roles: %w", err)
	}

	var rows []roleRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return false, fmt.Errorf("decode user_roles: %w", err)
	}
	return len(rows) > 0, nil
}
