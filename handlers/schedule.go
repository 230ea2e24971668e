// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/danielhkuo/clubcard/middleware"
	"github.com/danielhkuo/clubcard/models"
	"github.com/danielhkuo/clubcard/service"
)

type ScheduleHandler struct {
	schedule *service.ScheduleService
	validate *middleware.Validator
}

func NewScheduleHandler(svc *service.ScheduleService, v *middleware.Validator) *ScheduleHandler {
	return &ScheduleHandler{schedule: svc, validate: v}
}

// ListSchedule handles GET /api/schedule
func (h *ScheduleHandler) ListSchedule(w http.ResponseWriter, r *http.Request) {
	days, err := h.schedule.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, days)
}

// PutScheduleDay handles PUT /api/schedule/{day}
func (h *ScheduleHandler) PutScheduleDay(w http.ResponseWriter, r *http.Request) {
	day, err := strconv.Atoi(r.PathValue("day"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid day")
		return
	}
	var req models.ScheduleRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	d, err := h.schedule.Set(r.Context(), day, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, d)
}
