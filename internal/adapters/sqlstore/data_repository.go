package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atvirokodosprendimai/tenantapi/internal/adapters/sqlstore/gormdb"
	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

type dataModel struct {
	TenantID  string     `gorm:"column:tenant_id;primaryKey"`
	DataID    string     `gorm:"column:data_id;primaryKey"`
	Fields    string     `gorm:"column:fields;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (dataModel) TableName() string {
	return "customer_data"
}

var dataKeyColumns = []clause.Column{{Name: "tenant_id"}, {Name: "data_id"}}

// DataRepository keeps customer records in one shared table keyed by
// (tenant_id, data_id).
type DataRepository struct {
	db *gormdb.DB
}

func NewDataRepository(db *gormdb.DB) *DataRepository {
	return &DataRepository{db: db}
}

func (r *DataRepository) Put(ctx context.Context, rec domain.DataRecord) error {
	model, err := dataFromDomain(rec)
	if err != nil {
		return err
	}

	err = r.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   dataKeyColumns,
			DoUpdates: clause.AssignmentColumns([]string{"fields", "created_at", "updated_at"}),
		}).Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

func (r *DataRepository) Upsert(ctx context.Context, rec domain.DataRecord) (domain.DataRecord, error) {
	model, err := dataFromDomain(rec)
	if err != nil {
		return domain.DataRecord{}, err
	}

	var stored dataModel
	err = r.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   dataKeyColumns,
			DoUpdates: clause.AssignmentColumns([]string{"fields", "updated_at"}),
		}).Create(&model).Error
		if err != nil {
			return err
		}
		return tx.Where("tenant_id = ? AND data_id = ?", rec.TenantID, rec.DataID).First(&stored).Error
	})
	if err != nil {
		return domain.DataRecord{}, fmt.Errorf("upsert record: %w", err)
	}
	return dataToDomain(stored)
}

// Get reads a single record. The data service only pages, so this is a
// store-level helper outside ports.DataRepository.
func (r *DataRepository) Get(ctx context.Context, tenantID, dataID string) (domain.DataRecord, error) {
	var model dataModel
	err := r.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where("tenant_id = ? AND data_id = ?", tenantID, dataID).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DataRecord{}, domain.ErrNotFound
		}
		return domain.DataRecord{}, fmt.Errorf("get record: %w", err)
	}
	return dataToDomain(model)
}

// Query reads one row past limit to learn whether another page exists.
func (r *DataRepository) Query(ctx context.Context, tenantID string, start *domain.PageKey, limit int) ([]domain.DataRecord, *domain.PageKey, error) {
	if limit <= 0 {
		return []domain.DataRecord{}, nil, nil
	}

	var models []dataModel
	err := r.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		q := tx.Where("tenant_id = ?", tenantID)
		if start != nil {
			q = q.Where("data_id > ?", start.DataID)
		}
		return q.Order("data_id ASC").Limit(limit + 1).Find(&models).Error
	})
	if err != nil {
		return nil, nil, fmt.Errorf("query records: %w", err)
	}

	var next *domain.PageKey
	if len(models) > limit {
		models = models[:limit]
		last := models[len(models)-1]
		next = &domain.PageKey{TenantID: last.TenantID, DataID: last.DataID}
	}

	items := make([]domain.DataRecord, 0, len(models))
	for _, m := range models {
		rec, err := dataToDomain(m)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, rec)
	}
	return items, next, nil
}

func dataFromDomain(rec domain.DataRecord) (dataModel, error) {
	fields := rec.Fields
	if fields == nil {
		fields = domain.Fields{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return dataModel{}, fmt.Errorf("encode fields: %w", err)
	}

	model := dataModel{
		TenantID:  rec.TenantID,
		DataID:    rec.DataID,
		Fields:    string(raw),
		CreatedAt: rec.CreatedAt.UTC(),
	}
	if !rec.UpdatedAt.IsZero() {
		at := rec.UpdatedAt.UTC()
		model.UpdatedAt = &at
	}
	return model, nil
}

func dataToDomain(m dataModel) (domain.DataRecord, error) {
	dec := json.NewDecoder(strings.NewReader(m.Fields))
	dec.UseNumber()
	fields := domain.Fields{}
	if err := dec.Decode(&fields); err != nil {
		return domain.DataRecord{}, fmt.Errorf("decode fields of %s/%s: %w", m.TenantID, m.DataID, err)
	}

	rec := domain.DataRecord{
		TenantID:  m.TenantID,
		DataID:    m.DataID,
		Fields:    fields,
		CreatedAt: m.CreatedAt.UTC(),
	}
	if m.UpdatedAt != nil {
		rec.UpdatedAt = m.UpdatedAt.UTC()
	}
	return rec, nil
}
