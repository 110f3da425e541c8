package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
	"github.com/atvirokodosprendimai/tenantapi/internal/core/ports"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// DataService is the tenant-scoped access layer over customer records.
type DataService struct {
	repo         ports.DataRepository
	audit        ports.AuditRepository
	createSchema *santhosh.Schema
	now          func() time.Time
	newID        func() string
}

func NewDataService(repo ports.DataRepository, audit ports.AuditRepository) *DataService {
	return &DataService{
		repo:         repo,
		audit:        audit,
		createSchema: mustCompileSchema("create-record.json", createRecordSchema),
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// Create stores a new record for tenantID. A caller-supplied data_id that
// already exists is overwritten.
func (s *DataService) Create(ctx context.Context, tenantID string, fields domain.Fields) (domain.DataRecord, error) {
	if strings.TrimSpace(tenantID) == "" {
		return domain.DataRecord{}, domain.NewValidationError("tenant_id is required")
	}
	if err := validateFields(s.createSchema, fields); err != nil {
		return domain.DataRecord{}, err
	}

	dataID, _ := fields["data_id"].(string)
	if dataID == "" {
		dataID = s.newID()
	}
	clean := fields.Clean()
	if _, ok := clean["value"]; !ok {
		clean["value"] = domain.DefaultNumber
	}

	rec := domain.DataRecord{
		TenantID:  tenantID,
		DataID:    dataID,
		Fields:    clean,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Put(ctx, rec); err != nil {
		return domain.DataRecord{}, fmt.Errorf("create record: %w", err)
	}
	return rec, nil
}

// List returns one page of tenantID's records. A cursor that cannot be
// decoded, or that belongs to another tenant, is ignored.
func (s *DataService) List(ctx context.Context, tenantID string, limit int, cursor string) (domain.Page, error) {
	if strings.TrimSpace(tenantID) == "" {
		return domain.Page{}, domain.NewValidationError("tenant_id is required")
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	var start *domain.PageKey
	if key, ok := DecodeCursor(cursor); ok && key.TenantID == tenantID {
		start = &key
	}

	items, next, err := s.repo.Query(ctx, tenantID, start, limit)
	if err != nil {
		return domain.Page{}, fmt.Errorf("query records: %w", err)
	}

	page := domain.Page{TenantID: tenantID, Items: items}
	if next != nil {
		page.NextCursor = EncodeCursor(*next)
	}
	return page, nil
}

// ListAll follows cursors until every record of tenantID has been read.
func (s *DataService) ListAll(ctx context.Context, tenantID string) ([]domain.DataRecord, error) {
	all := make([]domain.DataRecord, 0)
	cursor := ""
	for {
		page, err := s.List(ctx, tenantID, MaxPageSize, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

// Upsert replaces the fields stored under (tenantID, dataID). updated_at moves
// on every call, created_at only on the first.
func (s *DataService) Upsert(ctx context.Context, tenantID, dataID string, fields domain.Fields) (domain.DataRecord, error) {
	tenantID = strings.TrimSpace(tenantID)
	dataID = strings.TrimSpace(dataID)
	if tenantID == "" || dataID == "" {
		return domain.DataRecord{}, domain.NewValidationError("tenant_id and data_id are required")
	}

	now := s.now().UTC()
	rec, err := s.repo.Upsert(ctx, domain.DataRecord{
		TenantID:  tenantID,
		DataID:    dataID,
		Fields:    fields.Clean(),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.DataRecord{}, fmt.Errorf("upsert record: %w", err)
	}

	if s.audit != nil {
		_ = s.audit.Log(ctx, domain.AuditEvent{
			TenantID: tenantID,
			Action:   domain.AuditDataUpserted,
			Actor:    adminActor,
			Detail:   dataID,
			At:       now,
		})
	}
	return rec, nil
}
