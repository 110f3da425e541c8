package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
	"github.com/atvirokodosprendimai/tenantapi/internal/core/usecase"
	"github.com/atvirokodosprendimai/tenantapi/internal/telemetry"
)

type ctxKey string

const principalCtxKey ctxKey = "principal"

const (
	timeFormat           = "2006-01-02T15:04:05.999999999Z07:00"
	maxJSONBodySize      = 1 << 20
	adminKeyHeader       = "X-Admin-API-Key"
	strategyBearer       = "bearer"
	strategyStaticKey    = "static_key"
	strategyAdmin        = "admin"
	internalErrorMessage = "internal server error"
)

// Services are the use cases the HTTP surface drives.
type Services struct {
	Auth      *usecase.Authenticator
	Keys      *usecase.KeyManager
	Data      *usecase.DataService
	Audit     *usecase.AuditService
	Admin     *usecase.AdminGuard
	Bearer    usecase.Authorizer
	StaticKey usecase.Authorizer
}

type Handler struct {
	svc     Services
	log     *zap.Logger
	metrics *telemetry.Metrics
}

func NewHandler(svc Services, log *zap.Logger, metrics *telemetry.Metrics) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log, metrics: metrics}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", h.healthz)
	r.Get("/openapi.json", h.openapi)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Post("/auth", h.exchange)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireBearer)
		pr.Get("/data", h.listData)
		pr.Post("/data", h.createData)
	})

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(h.requireAdmin)
		ar.Put("/upsert", h.adminUpsert)
		ar.Post("/keys", h.createKey)
		ar.Delete("/keys/{tenantId}", h.revokeKey)
		ar.Get("/audit/{tenantId}", h.listAudit)
	})

	r.Route("/customers/{tenantId}", func(cr chi.Router) {
		cr.Get("/authorize", h.legacyAuthorize)
		cr.With(h.requireStaticKey).Get("/records", h.legacyRecords)
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) openapi(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, openapiSpec())
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be integer")
			return 0, false
		}
		limit = parsed
	}
	return limit, true
}

// decodeBody decodes a single JSON value from the request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, strict bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if strict {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := ensureEOF(decoder); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		zap.L().Error("encode json response", zap.Error(err))
		http.Error(w, internalErrorMessage, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func (h *Handler) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
	}
}

func ensureEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return errors.New("extra json tokens")
}

func withPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

func principalFromContext(ctx context.Context) domain.Principal {
	p, _ := ctx.Value(principalCtxKey).(domain.Principal)
	return p
}

func openapiSpec() map[string]any {
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "tenantapi",
			"version": "1.0.0",
		},
		"paths": map[string]any{
			"/auth": map[string]any{
				"post": map[string]any{"summary": "Exchange an API key for a session token"},
			},
			"/data": map[string]any{
				"get":  map[string]any{"summary": "List the caller's records"},
				"post": map[string]any{"summary": "Create a record"},
			},
			"/admin/upsert": map[string]any{
				"put": map[string]any{"summary": "Upsert a record for any tenant"},
			},
			"/admin/keys": map[string]any{
				"post": map[string]any{"summary": "Create or reactivate a tenant API key"},
			},
			"/admin/keys/{tenantId}": map[string]any{
				"delete": map[string]any{"summary": "Revoke a tenant's API keys"},
			},
			"/admin/audit/{tenantId}": map[string]any{
				"get": map[string]any{"summary": "List a tenant's audit trail"},
			},
			"/customers/{tenantId}/authorize": map[string]any{
				"get": map[string]any{"summary": "Check a legacy static key"},
			},
			"/customers/{tenantId}/records": map[string]any{
				"get": map[string]any{"summary": "List every record of a tenant"},
			},
		},
	}
}
