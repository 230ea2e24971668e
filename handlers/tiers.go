// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/clubcard/middleware"
	"github.com/danielhkuo/clubcard/models"
	"github.com/danielhkuo/clubcard/service"
)

type TierHandler struct {
	tiers    *service.TierService
	validate *middleware.Validator
}

func NewTierHandler(svc *service.TierService, v *middleware.Validator) *TierHandler {
	return &TierHandler{tiers: svc, validate: v}
}

// ListTiers handles GET /api/tiers
func (h *TierHandler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.tiers.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, tiers)
}

// GetTier handles GET /api/tiers/{id}
func (h *TierHandler) GetTier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.tiers.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, t)
}

// CreateTier handles POST /api/tiers
func (h *TierHandler) CreateTier(w http.ResponseWriter, r *http.Request) {
	var req models.TierRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	t, err := h.tiers.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, t)
}

// UpdateTier handles PUT /api/tiers/{id}
func (h *TierHandler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.TierRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	t, err := h.tiers.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, t)
}

// DeleteTier handles DELETE /api/tiers/{id}
func (h *TierHandler) DeleteTier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.tiers.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.DeleteResponse{Deleted: id})
}
