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

type SessionHandler struct {
	sessions *service.SessionService
	validate *middleware.Validator
}

func NewSessionHandler(svc *service.SessionService, v *middleware.Validator) *SessionHandler {
	return &SessionHandler{sessions: svc, validate: v}
}

// ListSessions handles GET /api/sessions[?active=true]
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		var err error
		if activeOnly, err = strconv.ParseBool(raw); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "active must be true or false")
			return
		}
	}
	sessions, err := h.sessions.List(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, sessions)
}

// GetSession handles GET /api/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, sess)
}

// ListCardSessions handles GET /api/sessions/card/{cardId}
func (h *SessionHandler) ListCardSessions(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "cardId")
	if !ok {
		return
	}
	sessions, err := h.sessions.ListByCard(r.Context(), cardID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, sessions)
}

// StartSession handles POST /api/sessions
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	sess, err := h.sessions.Start(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, sess)
}

// FinishSession handles POST /api/sessions/{id}/finish
func (h *SessionHandler) FinishSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sess, err := h.sessions.Finish(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /api/sessions/{id}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.DeleteResponse{Deleted: id})
}
