// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/clubcard/auth"
	"github.com/danielhkuo/clubcard/models"
	"github.com/danielhkuo/clubcard/service"
)

// TokenVerifier resolves a bearer token to its user.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (models.User, error)
}

type userKey struct{}

// RequireToken rejects /api requests without a valid bearer token, except
// for the paths listed in public. The verified user becomes the audit actor.
func RequireToken(v TokenVerifier, public ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") || isPublic(r.URL.Path, public) {
				next.ServeHTTP(w, r)
				return
			}

			token, err := auth.ParseBearer(r.Header.Get("Authorization"))
			if err != nil {
				ErrorResponse(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			user, err := v.Verify(r.Context(), token)
			if errors.Is(err, service.ErrUnauthorized) {
				ErrorResponse(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			if err != nil {
				slog.Error("token verification failed", "path", r.URL.Path, "error", err)
				ErrorResponse(w, http.StatusInternalServerError, "failed to verify token")
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, user)
			ctx = service.WithActor(ctx, user.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFrom returns the user stored by RequireToken.
func UserFrom(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey{}).(models.User)
	return u, ok
}

func isPublic(path string, public []string) bool {
	for _, p := range public {
		if path == p {
			return true
		}
	}
	return false
}
