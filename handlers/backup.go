// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/clubcard/middleware"
	"github.com/danielhkuo/clubcard/service"
)

type BackupHandler struct {
	backup *service.BackupService
}

func NewBackupHandler(svc *service.BackupService) *BackupHandler {
	return &BackupHandler{backup: svc}
}

// ListBackups handles GET /api/backup
func (h *BackupHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backup.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, backups)
}

// CreateBackup handles POST /api/backup
func (h *BackupHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	b, err := h.backup.Create(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, b)
}
