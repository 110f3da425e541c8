package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
	"github.com/atvirokodosprendimai/tenantapi/internal/core/ports"
)

// AuthorizationRequest is what an entry point knows about an inbound call.
// TenantID is the tenant asserted by the request path, if any.
type AuthorizationRequest struct {
	Credential string
	TenantID   string
}

// Authorizer resolves a credential to a tenant. A denial is always
// domain.ErrUnauthorized with a zero Principal, whatever the cause.
type Authorizer interface {
	Authorize(ctx context.Context, req AuthorizationRequest) (domain.Principal, error)
}

var (
	_ Authorizer = (*BearerAuthorizer)(nil)
	_ Authorizer = (*StaticKeyAuthorizer)(nil)
)

// BearerAuthorizer verifies session tokens minted by Authenticator.
type BearerAuthorizer struct {
	secrets    ports.SecretProvider
	secretName string
	log        *zap.Logger
	now        func() time.Time
}

func NewBearerAuthorizer(secrets ports.SecretProvider, signingSecretName string, log *zap.Logger) *BearerAuthorizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &BearerAuthorizer{secrets: secrets, secretName: signingSecretName, log: log, now: time.Now}
}

func (a *BearerAuthorizer) Authorize(ctx context.Context, req AuthorizationRequest) (domain.Principal, error) {
	token := stripBearer(req.Credential)
	if token == "" {
		return domain.Principal{}, domain.ErrUnauthorized
	}

	secret, err := a.secrets.Secret(ctx, a.secretName)
	if err != nil || secret == "" {
		a.log.Warn("signing secret unavailable", zap.Error(err))
		return domain.Principal{}, domain.ErrUnauthorized
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid || claims.TenantID == "" {
		a.log.Debug("session token rejected", zap.Error(err))
		return domain.Principal{}, domain.ErrUnauthorized
	}

	return domain.Principal{TenantID: claims.TenantID}, nil
}

// StaticKeyAuthorizer is the legacy scheme: the presented header value must
// equal the plaintext key stored for the tenant named in the request path.
// No Bearer prefix is recognised.
type StaticKeyAuthorizer struct {
	repo ports.StaticKeyRepository
	log  *zap.Logger
}

func NewStaticKeyAuthorizer(repo ports.StaticKeyRepository, log *zap.Logger) *StaticKeyAuthorizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &StaticKeyAuthorizer{repo: repo, log: log}
}

func (a *StaticKeyAuthorizer) Authorize(ctx context.Context, req AuthorizationRequest) (domain.Principal, error) {
	presented := strings.TrimSpace(req.Credential)
	tenantID := strings.TrimSpace(req.TenantID)
	if presented == "" || tenantID == "" {
		return domain.Principal{}, domain.ErrUnauthorized
	}

	stored, err := a.repo.FindStaticKey(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			a.log.Error("static key lookup failed", zap.String("tenant_id", tenantID), zap.Error(err))
		}
		return domain.Principal{}, domain.ErrUnauthorized
	}
	if stored.APIKey == "" || subtle.ConstantTimeCompare([]byte(stored.APIKey), []byte(presented)) != 1 {
		return domain.Principal{}, domain.ErrUnauthorized
	}

	return domain.Principal{TenantID: tenantID}, nil
}

func stripBearer(credential string) string {
	credential = strings.TrimSpace(credential)
	if len(credential) >= 7 && strings.EqualFold(credential[:7], "bearer ") {
		credential = strings.TrimSpace(credential[7:])
	}
	return credential
}
