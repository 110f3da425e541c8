package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atvirokodosprendimai/tenantapi/internal/adapters/sqlstore/gormdb"
	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

type auditModel struct {
	ID       string    `gorm:"column:id;primaryKey"`
	TenantID string    `gorm:"column:tenant_id;not null"`
	Action   string    `gorm:"column:action;not null"`
	Actor    string    `gorm:"column:actor;not null"`
	Detail   string    `gorm:"column:detail;not null"`
	At       time.Time `gorm:"column:at;not null"`
}

func (auditModel) TableName() string {
	return "audit_logs"
}

type AuditRepository struct {
	db *gormdb.DB
}

func NewAuditRepository(db *gormdb.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Log(ctx context.Context, event domain.AuditEvent) error {
	model := auditModel{
		ID:       uuid.NewString(),
		TenantID: event.TenantID,
		Action:   event.Action,
		Actor:    event.Actor,
		Detail:   event.Detail,
		At:       event.At.UTC(),
	}
	if event.At.IsZero() {
		model.At = time.Now().UTC()
	}

	err := r.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// List returns the audit trail of filter.TenantID, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEvent, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	var models []auditModel
	err := r.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		q := tx.Where("tenant_id = ?", filter.TenantID)
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		return q.Order("at DESC").Order("id ASC").Limit(limit).Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}

	out := make([]domain.AuditEvent, 0, len(models))
	for _, m := range models {
		out = append(out, domain.AuditEvent{
			TenantID: m.TenantID,
			Action:   m.Action,
			Actor:    m.Actor,
			Detail:   m.Detail,
			At:       m.At.UTC(),
		})
	}
	return out, nil
}
