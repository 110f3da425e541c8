package usecase

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
	"github.com/atvirokodosprendimai/tenantapi/internal/core/ports"
)

// AdminGuard checks the credential presented on admin calls against the
// admin secret. Every failure is domain.ErrUnauthorized.
type AdminGuard struct {
	secrets    ports.SecretProvider
	secretName string
	log        *zap.Logger
}

func NewAdminGuard(secrets ports.SecretProvider, adminSecretName string, log *zap.Logger) *AdminGuard {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminGuard{secrets: secrets, secretName: adminSecretName, log: log}
}

func (g *AdminGuard) Verify(ctx context.Context, presented string) error {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return domain.ErrUnauthorized
	}

	secret, err := g.secrets.Secret(ctx, g.secretName)
	if err != nil || secret == "" {
		g.log.Warn("admin secret unavailable", zap.Error(err))
		return domain.ErrUnauthorized
	}

	// Digests keep the comparison length-independent.
	want := sha256.Sum256([]byte(secret))
	got := sha256.Sum256([]byte(presented))
	if subtle.ConstantTimeCompare(want[:], got[:]) != 1 {
		return domain.ErrUnauthorized
	}
	return nil
}
