package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/usecase"
)

type legacyAuthorizeResponse struct {
	IsAuthorized bool              `json:"is_authorized"`
	Context      map[string]string `json:"context,omitempty"`
}

// legacyAuthorize answers the simple-response authorizer contract of the
// static key scheme.
func (h *Handler) legacyAuthorize(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.StaticKey.Authorize(r.Context(), usecase.AuthorizationRequest{
		Credential: r.Header.Get("Authorization"),
		TenantID:   chi.URLParam(r, "tenantId"),
	})
	h.metrics.ObserveAuth(strategyStaticKey, err == nil)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, legacyAuthorizeResponse{IsAuthorized: false})
		return
	}

	writeJSON(w, http.StatusOK, legacyAuthorizeResponse{
		IsAuthorized: true,
		Context:      map[string]string{"tenant_id": p.TenantID},
	})
}

func (h *Handler) legacyRecords(w http.ResponseWriter, r *http.Request) {
	p := principalFromContext(r.Context())

	recs, err := h.svc.Data.ListAll(r.Context(), p.TenantID)
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toItemResponses(recs))
}
