package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
	"github.com/atvirokodosprendimai/tenantapi/internal/core/ports"
)

const DefaultTokenTTL = time.Hour

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

type SessionToken struct {
	Token     string
	ExpiresIn int64
}

// Authenticator exchanges a long-lived API key for a signed session token.
type Authenticator struct {
	repo       ports.APIKeyRepository
	secrets    ports.SecretProvider
	secretName string
	ttl        time.Duration
	now        func() time.Time
}

func NewAuthenticator(repo ports.APIKeyRepository, secrets ports.SecretProvider, signingSecretName string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Authenticator{
		repo:       repo,
		secrets:    secrets,
		secretName: signingSecretName,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (a *Authenticator) Exchange(ctx context.Context, apiKey string) (SessionToken, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return SessionToken{}, domain.NewValidationError("api_key is required")
	}

	key, err := a.repo.FindByKeyHash(ctx, HashAPIKey(apiKey))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return SessionToken{}, domain.ErrUnauthorized
		}
		return SessionToken{}, fmt.Errorf("lookup api key: %w", err)
	}
	if !key.Active {
		return SessionToken{}, domain.ErrUnauthorized
	}

	// Not wrapped: a secret failure is always internal.
	secret, err := a.secrets.Secret(ctx, a.secretName)
	if err != nil {
		return SessionToken{}, fmt.Errorf("load signing secret: %v", err)
	}
	if secret == "" {
		return SessionToken{}, errors.New("signing secret is empty")
	}

	now := a.now().UTC()
	claims := SessionClaims{
		TenantID: key.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   key.TenantID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, fmt.Errorf("sign session token: %w", err)
	}

	return SessionToken{Token: signed, ExpiresIn: int64(a.ttl / time.Second)}, nil
}
