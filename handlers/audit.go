// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/clubcard/middleware"
	"github.com/danielhkuo/clubcard/service"
)

type AuditHandler struct {
	audit *service.AuditService
}

func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: svc}
}

// ListAudit handles GET /api/audit[?from=&to=]
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	from, to, err := parsePeriod(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := h.audit.List(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, entries)
}

// GetAuditEntry handles GET /api/audit/{id}
func (h *AuditHandler) GetAuditEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.audit.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, e)
}
