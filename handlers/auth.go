// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/clubcard/auth"
	"github.com/danielhkuo/clubcard/middleware"
	"github.com/danielhkuo/clubcard/models"
	"github.com/danielhkuo/clubcard/service"
)

type AuthHandler struct {
	auth     *service.AuthService
	validate *middleware.Validator
}

func NewAuthHandler(svc *service.AuthService, v *middleware.Validator) *AuthHandler {
	return &AuthHandler{auth: svc, validate: v}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}

	resp, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slog.Info("user logged in", "user_id", resp.User.ID, "client_ip", middleware.GetClientIP(r))
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := auth.ParseBearer(r.Header.Get("Authorization"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "missing bearer token")
		return
	}
	if err := h.auth.Logout(r.Context(), token); err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.LogoutResponse{LoggedOut: true})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if u, ok := middleware.UserFrom(r.Context()); ok {
		middleware.JSONResponse(w, http.StatusOK, u)
		return
	}

	token, err := auth.ParseBearer(r.Header.Get("Authorization"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	u, err := h.auth.Verify(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, u)
}
