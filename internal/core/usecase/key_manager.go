package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
	"github.com/atvirokodosprendimai/tenantapi/internal/core/ports"
)

const adminActor = "admin"

// IssuedKey carries a freshly generated plaintext key. It is the only place
// the plaintext ever appears.
type IssuedKey struct {
	APIKey      string
	TenantID    string
	Reactivated bool
}

type KeyManager struct {
	repo     ports.APIKeyRepository
	audit    ports.AuditRepository
	now      func() time.Time
	generate func() (string, error)
}

func NewKeyManager(repo ports.APIKeyRepository, audit ports.AuditRepository) *KeyManager {
	return &KeyManager{repo: repo, audit: audit, now: time.Now, generate: GenerateAPIKey}
}

// Create issues a key for tenantID. A tenant whose keys are all revoked gets
// its oldest row reactivated under a new key.
func (m *KeyManager) Create(ctx context.Context, tenantID, tenantName string) (IssuedKey, error) {
	tenantID = strings.TrimSpace(tenantID)
	tenantName = strings.TrimSpace(tenantName)
	if tenantID == "" || tenantName == "" {
		return IssuedKey{}, domain.NewValidationError("tenant_id and tenant_name are required")
	}

	existing, err := m.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return IssuedKey{}, fmt.Errorf("list tenant keys: %w", err)
	}
	for _, k := range existing {
		if k.Active {
			return IssuedKey{}, domain.ConflictError("active api key for tenant %s already exists", tenantID)
		}
	}

	taken, err := m.repo.ActiveNameTaken(ctx, tenantName, tenantID)
	if err != nil {
		return IssuedKey{}, fmt.Errorf("check tenant name: %w", err)
	}
	if taken {
		return IssuedKey{}, domain.ConflictError("tenant name %q already exists for an active api key", tenantName)
	}

	plaintext, err := m.generate()
	if err != nil {
		return IssuedKey{}, err
	}
	key := domain.APIKey{
		KeyHash:    HashAPIKey(plaintext),
		TenantID:   tenantID,
		TenantName: tenantName,
		Active:     true,
		CreatedAt:  m.now().UTC(),
	}

	if len(existing) == 0 {
		if err := m.repo.Insert(ctx, key); err != nil {
			return IssuedKey{}, fmt.Errorf("store api key: %w", err)
		}
		m.record(ctx, tenantID, domain.AuditKeyCreated, tenantName)
		return IssuedKey{APIKey: plaintext, TenantID: tenantID}, nil
	}

	previous := oldestKey(existing)
	key.CreatedAt = previous.CreatedAt
	if err := m.repo.Replace(ctx, previous.KeyHash, key); err != nil {
		return IssuedKey{}, fmt.Errorf("reactivate api key: %w", err)
	}
	m.record(ctx, tenantID, domain.AuditKeyReactivated, tenantName)
	return IssuedKey{APIKey: plaintext, TenantID: tenantID, Reactivated: true}, nil
}

// Revoke deactivates every key row of tenantID.
func (m *KeyManager) Revoke(ctx context.Context, tenantID string) error {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return domain.NewValidationError("tenant_id is required")
	}

	existing, err := m.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("list tenant keys: %w", err)
	}
	if len(existing) == 0 {
		return domain.NotFoundError("api key for tenant %s not found", tenantID)
	}

	if _, err := m.repo.DeactivateTenant(ctx, tenantID); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	m.record(ctx, tenantID, domain.AuditKeyRevoked, "")
	return nil
}

func (m *KeyManager) record(ctx context.Context, tenantID, action, detail string) {
	if m.audit == nil {
		return
	}
	_ = m.audit.Log(ctx, domain.AuditEvent{
		TenantID: tenantID,
		Action:   action,
		Actor:    adminActor,
		Detail:   detail,
		At:       m.now().UTC(),
	})
}

func oldestKey(keys []domain.APIKey) domain.APIKey {
	oldest := keys[0]
	for _, k := range keys[1:] {
		if k.CreatedAt.Before(oldest.CreatedAt) {
			oldest = k
		}
	}
	return oldest
}
