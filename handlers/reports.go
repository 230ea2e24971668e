// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/clubcard/middleware"
	"github.com/danielhkuo/clubcard/service"
)

// ReportHandler serves the read-only aggregates: reports and statistics.
type ReportHandler struct {
	reports    *service.ReportService
	statistics *service.StatisticsService
}

func NewReportHandler(reports *service.ReportService, statistics *service.StatisticsService) *ReportHandler {
	return &ReportHandler{reports: reports, statistics: statistics}
}

// PointsReport handles GET /api/reports/points?from=&to=
func (h *ReportHandler) PointsReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := parsePeriod(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if from == nil || to == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "from and to are required")
		return
	}
	report, err := h.reports.PointsByDay(r.Context(), *from, *to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, report)
}

// Statistics handles GET /api/statistics
func (h *ReportHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	st, err := h.statistics.Get(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, st)
}
