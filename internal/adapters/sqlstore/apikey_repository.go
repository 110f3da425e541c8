package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atvirokodosprendimai/tenantapi/internal/adapters/sqlstore/gormdb"
	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

type apiKeyModel struct {
	KeyHash    string    `gorm:"column:key_hash;primaryKey"`
	TenantID   string    `gorm:"column:tenant_id;not null"`
	TenantName string    `gorm:"column:tenant_name;not null"`
	Active     bool      `gorm:"column:active;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;autoCreateTime:false"`
}

func (apiKeyModel) TableName() string {
	return "api_keys"
}

type APIKeyRepository struct {
	db *gormdb.DB
}

func NewAPIKeyRepository(db *gormdb.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) FindByKeyHash(ctx context.Context, keyHash string) (domain.APIKey, error) {
	var model apiKeyModel
	err := r.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where("key_hash = ?", keyHash).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.APIKey{}, domain.ErrNotFound
		}
		return domain.APIKey{}, fmt.Errorf("find api key: %w", err)
	}
	return apiKeyToDomain(model), nil
}

// ListByTenant returns every key row of tenantID, oldest first.
func (r *APIKeyRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.APIKey, error) {
	var models []apiKeyModel
	err := r.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where("tenant_id = ?", tenantID).
			Order("created_at ASC").
			Order("key_hash ASC").
			Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}

	out := make([]domain.APIKey, 0, len(models))
	for _, m := range models {
		out = append(out, apiKeyToDomain(m))
	}
	return out, nil
}

func (r *APIKeyRepository) ActiveNameTaken(ctx context.Context, tenantName, exceptTenantID string) (bool, error) {
	var n int64
	err := r.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Model(&apiKeyModel{}).
			Where("tenant_name = ? AND active = ? AND tenant_id <> ?", tenantName, true, exceptTenantID).
			Count(&n).Error
	})
	if err != nil {
		return false, fmt.Errorf("check tenant name: %w", err)
	}
	return n > 0, nil
}

func (r *APIKeyRepository) Insert(ctx context.Context, key domain.APIKey) error {
	model := apiKeyFromDomain(key)
	err := r.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

func (r *APIKeyRepository) Replace(ctx context.Context, oldKeyHash string, key domain.APIKey) error {
	model := apiKeyFromDomain(key)
	err := r.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		if oldKeyHash == key.KeyHash {
			return nil
		}
		return tx.Where("key_hash = ?", oldKeyHash).Delete(&apiKeyModel{}).Error
	})
	if err != nil {
		return fmt.Errorf("replace api key: %w", err)
	}
	return nil
}

func (r *APIKeyRepository) DeactivateTenant(ctx context.Context, tenantID string) (int64, error) {
	var affected int64
	err := r.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		res := tx.Model(&apiKeyModel{}).Where("tenant_id = ?", tenantID).Update("active", false)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("deactivate api keys: %w", err)
	}
	return affected, nil
}

type staticKeyModel struct {
	TenantID string `gorm:"column:tenant_id;primaryKey"`
	APIKey   string `gorm:"column:api_key;not null"`
}

func (staticKeyModel) TableName() string {
	return "static_api_keys"
}

// StaticKeyRepository stores the legacy per-tenant plaintext keys.
type StaticKeyRepository struct {
	db *gormdb.DB
}

func NewStaticKeyRepository(db *gormdb.DB) *StaticKeyRepository {
	return &StaticKeyRepository{db: db}
}

func (r *StaticKeyRepository) FindStaticKey(ctx context.Context, tenantID string) (domain.StaticKey, error) {
	var model staticKeyModel
	err := r.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where("tenant_id = ?", tenantID).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.StaticKey{}, domain.ErrNotFound
		}
		return domain.StaticKey{}, fmt.Errorf("find static key: %w", err)
	}
	return domain.StaticKey{TenantID: model.TenantID, APIKey: model.APIKey}, nil
}

func (r *StaticKeyRepository) PutStaticKey(ctx context.Context, key domain.StaticKey) error {
	model := staticKeyModel{TenantID: key.TenantID, APIKey: key.APIKey}
	err := r.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"api_key"}),
		}).Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("put static key: %w", err)
	}
	return nil
}

func apiKeyFromDomain(key domain.APIKey) apiKeyModel {
	return apiKeyModel{
		KeyHash:    key.KeyHash,
		TenantID:   key.TenantID,
		TenantName: key.TenantName,
		Active:     key.Active,
		CreatedAt:  key.CreatedAt.UTC(),
	}
}

func apiKeyToDomain(m apiKeyModel) domain.APIKey {
	return domain.APIKey{
		KeyHash:    m.KeyHash,
		TenantID:   m.TenantID,
		TenantName: m.TenantName,
		Active:     m.Active,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}
