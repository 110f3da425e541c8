package ports

import (
	"context"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

type DataRepository interface {
	// Put writes rec as is, overwriting any row with the same key.
	Put(ctx context.Context, rec domain.DataRecord) error
	// Upsert replaces the fields of rec and sets its updated_at. created_at is
	// taken from rec only when no row exists yet.
	Upsert(ctx context.Context, rec domain.DataRecord) (domain.DataRecord, error)
	// Query returns up to limit records of tenantID after start in key order,
	// and the key to resume from when more records remain.
	Query(ctx context.Context, tenantID string, start *domain.PageKey, limit int) ([]domain.DataRecord, *domain.PageKey, error)
}
