package usecase

import (
	"context"
	"strings"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
	"github.com/atvirokodosprendimai/tenantapi/internal/core/ports"
)

var auditActions = map[string]struct{}{
	domain.AuditKeyCreated:     {},
	domain.AuditKeyReactivated: {},
	domain.AuditKeyRevoked:     {},
	domain.AuditDataUpserted:   {},
}

type AuditService struct {
	repo ports.AuditTrailRepository
}

func NewAuditService(repo ports.AuditTrailRepository) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEvent, error) {
	if strings.TrimSpace(filter.TenantID) == "" {
		return nil, domain.NewValidationError("tenant_id is required")
	}
	if filter.Action != "" {
		if _, ok := auditActions[filter.Action]; !ok {
			return nil, domain.NewValidationError("unknown audit action " + filter.Action)
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}
	return s.repo.List(ctx, filter)
}
