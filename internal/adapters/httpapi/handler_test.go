package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

func TestProtectedRouteWithoutAuth(t *testing.T) {
	s := newTestStack(t)
	rec := s.do(http.MethodGet, "/data", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAdminRouteRejectsWrongKey(t *testing.T) {
	s := newTestStack(t)
	for _, headers := range []map[string]string{nil, {adminKeyHeader: "nope"}} {
		rec := s.do(http.MethodPost, "/admin/keys", `{"tenant_id":"T1","tenant_name":"Acme"}`, headers)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	}
}

func TestCreateKeyRejectsUnknownFields(t *testing.T) {
	s := newTestStack(t)
	rec := s.do(http.MethodPost, "/admin/keys", `{"tenant_id":"T1","tenant_name":"Acme","extra":1}`, adminHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateKeyRejectsTrailingJSON(t *testing.T) {
	s := newTestStack(t)
	rec := s.do(http.MethodPost, "/admin/keys", `{"tenant_id":"T1","tenant_name":"Acme"} {}`, adminHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthRequiresAPIKey(t *testing.T) {
	s := newTestStack(t)
	rec := s.do(http.MethodPost, "/auth", `{}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec = s.do(http.MethodPost, "/auth", `{"api_key":"unknown"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUnknownRouteAndMethodAreJSON(t *testing.T) {
	s := newTestStack(t)

	rec := s.do(http.MethodGet, "/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	rec = s.do(http.MethodPatch, "/auth", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "method not allowed") {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestRevokeUnknownTenantReturns404(t *testing.T) {
	s := newTestStack(t)
	rec := s.do(http.MethodDelete, "/admin/keys/ghost", "", adminHeaders())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestWriteJSONEncodeErrorHandled(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]any{"bad": func() {}})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal server error") {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestHandleDomainErrorMapping(t *testing.T) {
	h := NewHandler(Services{}, nil, nil)
	cases := []struct {
		err  error
		want int
	}{
		{domain.NewValidationError("name is required"), http.StatusBadRequest},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.NotFoundError("missing"), http.StatusNotFound},
		{domain.ConflictError("taken"), http.StatusConflict},
		{errors.New("db password is hunter2"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.handleDomainError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		if rec.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
		var payload map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if payload["error"] == "" {
			t.Fatal("expected error message")
		}
		if strings.Contains(payload["error"], "hunter2") {
			t.Fatal("internal error leaked to client")
		}
	}
}

func TestOpenAPIEndpoint(t *testing.T) {
	s := newTestStack(t)
	rec := s.do(http.MethodGet, "/openapi.json", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/admin/keys/{tenantId}") {
		t.Fatalf("openapi missing admin route: %s", rec.Body.String())
	}
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	s := newTestStack(t)
	s.do(http.MethodGet, "/healthz", "", nil)

	rec := s.do(http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `tenantapi_http_requests_total{method="GET",route="/healthz",status="200"} 1`) {
		t.Fatalf("metrics missing healthz request:\n%s", rec.Body.String())
	}
}
