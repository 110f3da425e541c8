package httpapi

import (
	"errors"
	"net/http"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

type exchangeRequest struct {
	APIKey string `json:"api_key"`
}

type exchangeResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

func (h *Handler) exchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	tok, err := h.svc.Auth.Exchange(r.Context(), req.APIKey)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		h.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, exchangeResponse{Token: tok.Token, ExpiresIn: tok.ExpiresIn})
}
