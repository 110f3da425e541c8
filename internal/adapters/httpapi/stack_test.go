package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atvirokodosprendimai/tenantapi/internal/adapters/secrets"
	"github.com/atvirokodosprendimai/tenantapi/internal/adapters/sqlstore"
	"github.com/atvirokodosprendimai/tenantapi/internal/adapters/sqlstore/gormdb"
	"github.com/atvirokodosprendimai/tenantapi/internal/core/usecase"
	"github.com/atvirokodosprendimai/tenantapi/internal/telemetry"
	"github.com/atvirokodosprendimai/tenantapi/migrations"
)

const (
	testAdminKey      = "test-admin-key"
	testSigningSecret = "test-signing-secret"
)

type testStack struct {
	router  http.Handler
	static  *sqlstore.StaticKeyRepository
	metrics *telemetry.Metrics
}

// newTestStack wires the real store and secret provider behind the router.
func newTestStack(t *testing.T) *testStack {
	t.Helper()
	t.Setenv("TENANTAPI_JWT_SECRET", testSigningSecret)
	t.Setenv("TENANTAPI_ADMIN_API_KEY", testAdminKey)

	db, err := gormdb.Open(gormdb.DriverSQLite, filepath.Join(t.TempDir(), "api.sqlite"), nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	wdb, err := db.WriteSQLDB()
	if err != nil {
		t.Fatalf("writer sql db: %v", err)
	}
	if err := migrations.Up(context.Background(), wdb, db.GooseDialect()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sp, err := secrets.NewLocal("", nil)
	if err != nil {
		t.Fatalf("secrets: %v", err)
	}

	keys := sqlstore.NewAPIKeyRepository(db)
	static := sqlstore.NewStaticKeyRepository(db)
	audit := sqlstore.NewAuditRepository(db)
	metrics := telemetry.New()

	h := NewHandler(Services{
		Auth:      usecase.NewAuthenticator(keys, sp, "jwt_secret", 0),
		Keys:      usecase.NewKeyManager(keys, audit),
		Data:      usecase.NewDataService(sqlstore.NewDataRepository(db), audit),
		Audit:     usecase.NewAuditService(audit),
		Admin:     usecase.NewAdminGuard(sp, "admin_api_key", nil),
		Bearer:    usecase.NewBearerAuthorizer(sp, "jwt_secret", nil),
		StaticKey: usecase.NewStaticKeyAuthorizer(static, nil),
	}, nil, metrics)

	return &testStack{router: h.Router(), static: static, metrics: metrics}
}

func (s *testStack) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func adminHeaders() map[string]string {
	return map[string]string{adminKeyHeader: testAdminKey}
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
