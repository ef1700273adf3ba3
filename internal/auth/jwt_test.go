package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTValidatorRoundTrip(t *testing.T) {
	v, err := NewJWTValidator("s3cret", "hublink")
	require.NoError(t, err)

	token, err := v.Sign("user-1", "ops@acme.test", time.Hour)
	require.NoError(t, err)

	sess, err := v.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, "ops@acme.test", sess.Email)
	assert.Equal(t, token, sess.Token)
}

func TestJWTValidatorRejects(t *testing.T) {
	v, err := NewJWTValidator("s3cret", "hublink")
	require.NoError(t, err)

	expired, err := v.Sign("user-1", "", -time.Minute)
	require.NoError(t, err)

	other, err := NewJWTValidator("other-secret", "hublink")
	require.NoError(t, err)
	wrongKey, err := other.Sign("user-1", "", time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := NewJWTValidator("s3cret", "someone-else")
	require.NoError(t, err)
	foreign, err := wrongIssuer.Sign("user-1", "", time.Hour)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "hublink", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "empty", token: "", wantErr: ErrMissingToken},
		{name: "expired", token: expired, wantErr: ErrExpiredToken},
		{name: "wrong key", token: wrongKey, wantErr: ErrInvalidToken},
		{name: "wrong issuer", token: foreign, wantErr: ErrInvalidToken},
		{name: "missing subject", token: noSubject, wantErr: ErrInvalidToken},
		{name: "garbage", token: "not.a.jwt", wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(context.Background(), tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestNewJWTValidatorRequiresSecret(t *testing.T) {
	_, err := NewJWTValidator("", "")
	assert.Error(t, err)
}

func TestJWTAuthenticatorUnsupported(t *testing.T) {
	_, err := JWTAuthenticator{}.SignIn(context.Background(), "a@b.c", "pw")
	assert.ErrorIs(t, err, ErrUnsupported)
}
