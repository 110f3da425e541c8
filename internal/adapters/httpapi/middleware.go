package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/usecase"
)

// accessLog logs one line per request and records request metrics under the
// matched route pattern.
func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		took := time.Since(start)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}

		h.metrics.ObserveRequest(r.Method, route, status, took)
		h.log.Info("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", took),
		)
	})
}

func (h *Handler) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := h.svc.Bearer.Authorize(r.Context(), usecase.AuthorizationRequest{
			Credential: r.Header.Get("Authorization"),
		})
		h.metrics.ObserveAuth(strategyBearer, err == nil)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
	})
}

func (h *Handler) requireStaticKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := h.svc.StaticKey.Authorize(r.Context(), usecase.AuthorizationRequest{
			Credential: r.Header.Get("Authorization"),
			TenantID:   chi.URLParam(r, "tenantId"),
		})
		h.metrics.ObserveAuth(strategyStaticKey, err == nil)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
	})
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := h.svc.Admin.Verify(r.Context(), r.Header.Get(adminKeyHeader))
		h.metrics.ObserveAuth(strategyAdmin, err == nil)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid admin api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
