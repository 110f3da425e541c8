package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

const testSigningSecretName = "jwt_secret"

func seedKey(t *testing.T, repo *memKeyRepo, tenantID string) string {
	t.Helper()
	m := NewKeyManager(repo, nil)
	issued, err := m.Create(context.Background(), tenantID, "name-"+tenantID)
	require.NoError(t, err)
	return issued.APIKey
}

func TestAuthenticatorExchangeIssuesHS256Token(t *testing.T) {
	repo := newMemKeyRepo()
	apiKey := seedKey(t, repo, "T1")
	secrets := &secretsStub{values: map[string]string{testSigningSecretName: "s3cret"}}

	issuedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	auth := NewAuthenticator(repo, secrets, testSigningSecretName, 0)
	auth.now = func() time.Time { return issuedAt }

	tok, err := auth.Exchange(context.Background(), apiKey)
	require.NoError(t, err)
	assert.EqualValues(t, 3600, tok.ExpiresIn)

	claims := &SessionClaims{}
	_, err = jwt.ParseWithClaims(tok.Token, claims, func(tk *jwt.Token) (any, error) {
		assert.Equal(t, "HS256", tk.Method.Alg())
		return []byte("s3cret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return issuedAt }))
	require.NoError(t, err)
	assert.Equal(t, "T1", claims.TenantID)
	assert.True(t, claims.ExpiresAt.Time.Equal(issuedAt.Add(time.Hour)))
	assert.True(t, claims.IssuedAt.Time.Equal(issuedAt))
}

func TestAuthenticatorExchangeRejections(t *testing.T) {
	ctx := context.Background()
	repo := newMemKeyRepo()
	apiKey := seedKey(t, repo, "T1")
	secrets := &secretsStub{values: map[string]string{testSigningSecretName: "s3cret"}}
	auth := NewAuthenticator(repo, secrets, testSigningSecretName, time.Hour)

	_, err := auth.Exchange(ctx, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = auth.Exchange(ctx, "not-a-key")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, NewKeyManager(repo, nil).Revoke(ctx, "T1"))
	_, err = auth.Exchange(ctx, apiKey)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "revoked key")
}

func TestAuthenticatorSecretFailureIsInternal(t *testing.T) {
	repo := newMemKeyRepo()
	apiKey := seedKey(t, repo, "T1")
	secrets := &secretsStub{err: errors.New("secrets manager unavailable")}
	auth := NewAuthenticator(repo, secrets, testSigningSecretName, time.Hour)

	_, err := auth.Exchange(context.Background(), apiKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
	assert.NotErrorIs(t, err, domain.ErrValidation)
}

func TestAuthenticatorSecretErrorsDoNotMapToClientErrors(t *testing.T) {
	repo := newMemKeyRepo()
	apiKey := seedKey(t, repo, "T1")

	for _, cause := range []error{
		domain.NotFoundError("secret %s", testSigningSecretName),
		domain.NewValidationError("secret name is required"),
		domain.ErrUnauthorized,
	} {
		auth := NewAuthenticator(repo, &secretsStub{err: cause}, testSigningSecretName, time.Hour)
		_, err := auth.Exchange(context.Background(), apiKey)
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound, "%v", cause)
		assert.NotErrorIs(t, err, domain.ErrValidation, "%v", cause)
		assert.NotErrorIs(t, err, domain.ErrUnauthorized, "%v", cause)
	}
}

func TestAuthenticatorFetchesSecretOnEveryCall(t *testing.T) {
	repo := newMemKeyRepo()
	apiKey := seedKey(t, repo, "T1")
	secrets := &secretsStub{values: map[string]string{testSigningSecretName: "s3cret"}}
	auth := NewAuthenticator(repo, secrets, testSigningSecretName, time.Hour)

	for i := 0; i < 3; i++ {
		_, err := auth.Exchange(context.Background(), apiKey)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, secrets.calls)
}
