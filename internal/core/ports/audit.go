package ports

import (
	"context"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

type AuditRepository interface {
	Log(ctx context.Context, event domain.AuditEvent) error
}

// AuditTrailRepository reads the audit log back, newest event first.
type AuditTrailRepository interface {
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEvent, error)
}
