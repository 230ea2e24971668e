// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/clubcard/middleware"
	"github.com/danielhkuo/clubcard/models"
	"github.com/danielhkuo/clubcard/service"
)

type PromotionHandler struct {
	promotions *service.PromotionService
	validate   *middleware.Validator
}

func NewPromotionHandler(svc *service.PromotionService, v *middleware.Validator) *PromotionHandler {
	return &PromotionHandler{promotions: svc, validate: v}
}

// ListPromotions handles GET /api/promotions
func (h *PromotionHandler) ListPromotions(w http.ResponseWriter, r *http.Request) {
	promotions, err := h.promotions.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, promotions)
}

// ListActivePromotions handles GET /api/promotions/active
func (h *PromotionHandler) ListActivePromotions(w http.ResponseWriter, r *http.Request) {
	promotions, err := h.promotions.Active(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, promotions)
}

// GetPromotion handles GET /api/promotions/{id}
func (h *PromotionHandler) GetPromotion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.promotions.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, p)
}

// CreatePromotion handles POST /api/promotions
func (h *PromotionHandler) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req models.PromotionRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	p, err := h.promotions.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, p)
}

// UpdatePromotion handles PUT /api/promotions/{id}
func (h *PromotionHandler) UpdatePromotion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.PromotionRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	p, err := h.promotions.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, p)
}

// DeletePromotion handles DELETE /api/promotions/{id}
func (h *PromotionHandler) DeletePromotion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.promotions.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.DeleteResponse{Deleted: id})
}
