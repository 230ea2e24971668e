// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/clubcard/middleware"
	"github.com/danielhkuo/clubcard/models"
	"github.com/danielhkuo/clubcard/service"
)

type PromoCodeHandler struct {
	codes    *service.PromoCodeService
	validate *middleware.Validator
}

func NewPromoCodeHandler(svc *service.PromoCodeService, v *middleware.Validator) *PromoCodeHandler {
	return &PromoCodeHandler{codes: svc, validate: v}
}

// ListPromoCodes handles GET /api/promocodes
func (h *PromoCodeHandler) ListPromoCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.codes.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, codes)
}

// GetPromoCode handles GET /api/promocodes/{id}
func (h *PromoCodeHandler) GetPromoCode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	pc, err := h.codes.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, pc)
}

// GetPromoCodeByCode handles GET /api/promocodes/code/{value}
func (h *PromoCodeHandler) GetPromoCodeByCode(w http.ResponseWriter, r *http.Request) {
	pc, err := h.codes.GetByCode(r.Context(), r.PathValue("value"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, pc)
}

// CreatePromoCode handles POST /api/promocodes
func (h *PromoCodeHandler) CreatePromoCode(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePromoCodeRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	pc, err := h.codes.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, pc)
}

// RedeemPromoCode handles POST /api/promocodes/redeem
func (h *PromoCodeHandler) RedeemPromoCode(w http.ResponseWriter, r *http.Request) {
	var req models.RedeemPromoCodeRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	resp, err := h.codes.Redeem(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// DeletePromoCode handles DELETE /api/promocodes/{id}
func (h *PromoCodeHandler) DeletePromoCode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.codes.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.DeleteResponse{Deleted: id})
}
