package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

type createKeyRequest struct {
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
}

type createKeyResponse struct {
	APIKey   string `json:"api_key"`
	TenantID string `json:"tenant_id"`
	Message  string `json:"message"`
}

type auditEventResponse struct {
	Action string `json:"action"`
	Actor  string `json:"actor"`
	Detail string `json:"detail,omitempty"`
	At     string `json:"at"`
}

func (h *Handler) createKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	issued, err := h.svc.Keys.Create(r.Context(), req.TenantID, req.TenantName)
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	status, message, op := http.StatusCreated, "API key created successfully", "create"
	if issued.Reactivated {
		status, message, op = http.StatusOK, "API key reactivated successfully", "reactivate"
	}
	h.metrics.ObserveKeyOperation(op)

	writeJSON(w, status, createKeyResponse{
		APIKey:   issued.APIKey,
		TenantID: issued.TenantID,
		Message:  message,
	})
}

func (h *Handler) revokeKey(w http.ResponseWriter, r *http.Request) {
	tenantID := strings.TrimSpace(chi.URLParam(r, "tenantId"))

	if err := h.svc.Keys.Revoke(r.Context(), tenantID); err != nil {
		h.handleDomainError(w, r, err)
		return
	}
	h.metrics.ObserveKeyOperation("revoke")

	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("API key for tenant %s revoked successfully", tenantID),
	})
}

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	events, err := h.svc.Audit.List(r.Context(), domain.AuditFilter{
		TenantID: chi.URLParam(r, "tenantId"),
		Action:   r.URL.Query().Get("action"),
		Limit:    limit,
	})
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	out := make([]auditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, auditEventResponse{
			Action: e.Action,
			Actor:  e.Actor,
			Detail: e.Detail,
			At:     e.At.UTC().Format(timeFormat),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out, "count": len(out)})
}
