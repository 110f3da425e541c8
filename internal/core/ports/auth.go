package ports

import (
	"context"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

type APIKeyRepository interface {
	FindByKeyHash(ctx context.Context, keyHash string) (domain.APIKey, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.APIKey, error)
	// ActiveNameTaken reports whether an active key of a tenant other than
	// exceptTenantID carries tenantName.
	ActiveNameTaken(ctx context.Context, tenantName, exceptTenantID string) (bool, error)
	Insert(ctx context.Context, key domain.APIKey) error
	// Replace inserts key and removes the row stored under oldKeyHash in one
	// transaction, insert first.
	Replace(ctx context.Context, oldKeyHash string, key domain.APIKey) error
	DeactivateTenant(ctx context.Context, tenantID string) (int64, error)
}

type StaticKeyRepository interface {
	FindStaticKey(ctx context.Context, tenantID string) (domain.StaticKey, error)
	PutStaticKey(ctx context.Context, key domain.StaticKey) error
}

// SecretProvider returns the current value of a named secret. Implementations
// must not cache values across calls.
type SecretProvider interface {
	Secret(ctx context.Context, name string) (string, error)
}
