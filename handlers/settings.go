// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/clubcard/middleware"
	"github.com/danielhkuo/clubcard/models"
	"github.com/danielhkuo/clubcard/service"
)

type SettingHandler struct {
	settings *service.SettingService
	validate *middleware.Validator
}

func NewSettingHandler(svc *service.SettingService, v *middleware.Validator) *SettingHandler {
	return &SettingHandler{settings: svc, validate: v}
}

// ListSettings handles GET /api/settings
func (h *SettingHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, settings)
}

// GetSetting handles GET /api/settings/{key}
func (h *SettingHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	st, err := h.settings.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, st)
}

// PutSetting handles PUT /api/settings/{key}
func (h *SettingHandler) PutSetting(w http.ResponseWriter, r *http.Request) {
	var req models.SettingRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	st, err := h.settings.Set(r.Context(), r.PathValue("key"), req.Value)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, st)
}
