package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

type memKeyRepo struct {
	mu   sync.Mutex
	rows map[string]domain.APIKey

	listErr error
}

func newMemKeyRepo() *memKeyRepo {
	return &memKeyRepo{rows: map[string]domain.APIKey{}}
}

func (r *memKeyRepo) FindByKeyHash(_ context.Context, keyHash string) (domain.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.rows[keyHash]
	if !ok {
		return domain.APIKey{}, domain.ErrNotFound
	}
	return k, nil
}

func (r *memKeyRepo) ListByTenant(_ context.Context, tenantID string) ([]domain.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.APIKey
	for _, k := range r.rows {
		if k.TenantID == tenantID {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memKeyRepo) ActiveNameTaken(_ context.Context, tenantName, exceptTenantID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.rows {
		if k.Active && k.TenantName == tenantName && k.TenantID != exceptTenantID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memKeyRepo) Insert(_ context.Context, key domain.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[key.KeyHash]; ok {
		return errors.New("duplicate key hash")
	}
	r.rows[key.KeyHash] = key
	return nil
}

func (r *memKeyRepo) Replace(_ context.Context, oldKeyHash string, key domain.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[key.KeyHash]; ok {
		return errors.New("duplicate key hash")
	}
	r.rows[key.KeyHash] = key
	delete(r.rows, oldKeyHash)
	return nil
}

func (r *memKeyRepo) DeactivateTenant(_ context.Context, tenantID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for h, k := range r.rows {
		if k.TenantID == tenantID {
			k.Active = false
			r.rows[h] = k
			n++
		}
	}
	return n, nil
}

type memStaticRepo struct {
	rows map[string]string
	err  error
}

func (r *memStaticRepo) FindStaticKey(_ context.Context, tenantID string) (domain.StaticKey, error) {
	if r.err != nil {
		return domain.StaticKey{}, r.err
	}
	key, ok := r.rows[tenantID]
	if !ok {
		return domain.StaticKey{}, domain.ErrNotFound
	}
	return domain.StaticKey{TenantID: tenantID, APIKey: key}, nil
}

func (r *memStaticRepo) PutStaticKey(_ context.Context, key domain.StaticKey) error {
	if r.rows == nil {
		r.rows = map[string]string{}
	}
	r.rows[key.TenantID] = key.APIKey
	return nil
}

type memDataRepo struct {
	mu   sync.Mutex
	rows map[domain.PageKey]domain.DataRecord
}

func newMemDataRepo() *memDataRepo {
	return &memDataRepo{rows: map[domain.PageKey]domain.DataRecord{}}
}

func (r *memDataRepo) Put(_ context.Context, rec domain.DataRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[domain.PageKey{TenantID: rec.TenantID, DataID: rec.DataID}] = rec
	return nil
}

func (r *memDataRepo) Upsert(_ context.Context, rec domain.DataRecord) (domain.DataRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := domain.PageKey{TenantID: rec.TenantID, DataID: rec.DataID}
	if prev, ok := r.rows[key]; ok {
		rec.CreatedAt = prev.CreatedAt
	}
	r.rows[key] = rec
	return rec, nil
}

func (r *memDataRepo) Get(_ context.Context, tenantID, dataID string) (domain.DataRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[domain.PageKey{TenantID: tenantID, DataID: dataID}]
	if !ok {
		return domain.DataRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

func (r *memDataRepo) Query(_ context.Context, tenantID string, start *domain.PageKey, limit int) ([]domain.DataRecord, *domain.PageKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.DataRecord
	for k, rec := range r.rows {
		if k.TenantID != tenantID {
			continue
		}
		if start != nil && k.DataID <= start.DataID {
			continue
		}
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].DataID < all[j].DataID })
	if len(all) <= limit {
		return all, nil, nil
	}
	page := all[:limit]
	last := page[len(page)-1]
	return page, &domain.PageKey{TenantID: last.TenantID, DataID: last.DataID}, nil
}

type memAudit struct {
	events []domain.AuditEvent
}

func (a *memAudit) Log(_ context.Context, e domain.AuditEvent) error {
	a.events = append(a.events, e)
	return nil
}

func (a *memAudit) List(_ context.Context, filter domain.AuditFilter) ([]domain.AuditEvent, error) {
	var out []domain.AuditEvent
	for i := len(a.events) - 1; i >= 0; i-- {
		e := a.events[i]
		if e.TenantID != filter.TenantID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		out = append(out, e)
		if len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (a *memAudit) actions() []string {
	out := make([]string, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Action)
	}
	return out
}

type secretsStub struct {
	values map[string]string
	err    error
	calls  int
}

func (s *secretsStub) Secret(_ context.Context, name string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	v, ok := s.values[name]
	if !ok {
		return "", domain.NotFoundError("secret %s", name)
	}
	return v, nil
}
