package httpapi

import (
	"net/http"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

type listDataResponse struct {
	TenantID  string           `json:"tenant_id"`
	Data      []map[string]any `json:"data"`
	Count     int              `json:"count"`
	NextToken string           `json:"nextToken,omitempty"`
}

type mutationResponse struct {
	Message string         `json:"message"`
	Item    map[string]any `json:"item"`
}

type adminUpsertRequest struct {
	TenantID string        `json:"tenant_id"`
	DataID   string        `json:"data_id"`
	Data     domain.Fields `json:"data"`
}

func (h *Handler) listData(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	p := principalFromContext(r.Context())

	page, err := h.svc.Data.List(r.Context(), p.TenantID, limit, r.URL.Query().Get("nextToken"))
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listDataResponse{
		TenantID:  page.TenantID,
		Data:      toItemResponses(page.Items),
		Count:     page.Count(),
		NextToken: page.NextCursor,
	})
}

func (h *Handler) createData(w http.ResponseWriter, r *http.Request) {
	var fields domain.Fields
	if !decodeBody(w, r, &fields, false) {
		return
	}
	if fields == nil {
		writeError(w, http.StatusBadRequest, "request body must be a json object")
		return
	}
	p := principalFromContext(r.Context())

	rec, err := h.svc.Data.Create(r.Context(), p.TenantID, fields)
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, mutationResponse{
		Message: "Data created successfully",
		Item:    toItemResponse(rec),
	})
}

func (h *Handler) adminUpsert(w http.ResponseWriter, r *http.Request) {
	var req adminUpsertRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	rec, err := h.svc.Data.Upsert(r.Context(), req.TenantID, req.DataID, req.Data)
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mutationResponse{
		Message: "Data upserted successfully",
		Item:    toItemResponse(rec),
	})
}

// toItemResponse flattens a record into one JSON object. Fixed columns win
// over same-named fields.
func toItemResponse(rec domain.DataRecord) map[string]any {
	out := make(map[string]any, len(rec.Fields)+4)
	for k, v := range rec.Fields {
		out[k] = v
	}
	out["tenant_id"] = rec.TenantID
	out["data_id"] = rec.DataID
	out["created_at"] = rec.CreatedAt.UTC().Format(timeFormat)
	if !rec.UpdatedAt.IsZero() {
		out["updated_at"] = rec.UpdatedAt.UTC().Format(timeFormat)
	}
	return out
}

func toItemResponses(recs []domain.DataRecord) []map[string]any {
	out := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toItemResponse(rec))
	}
	return out
}
