// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/clubcard/auth"
	"github.com/danielhkuo/clubcard/models"
)

type AuthService struct {
	db    *sql.DB
	audit *AuditService
	salt  string
}

// Login checks credentials and issues a bearer token.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (models.LoginResponse, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM app_user WHERE username = $1`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return models.LoginResponse{}, Unauthorized("invalid username or password")
	}
	if err != nil {
		return models.LoginResponse{}, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		slog.Warn("login rejected", "username", username)
		return models.LoginResponse{}, Unauthorized("invalid username or password")
	}

	token, err := auth.GenerateBearerToken()
	if err != nil {
		return models.LoginResponse{}, err
	}

	ctx = WithActor(ctx, u.Username)
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO api_token (token_hash, user_id, created_at)
			VALUES ($1, $2, $3)
		`, auth.HashToken(token, s.salt), u.ID, now())
		if err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
		return s.audit.record(ctx, tx, "login", "user", u.ID, "")
	})
	if err != nil {
		return models.LoginResponse{}, err
	}

	return models.LoginResponse{Token: token, User: u}, nil
}

// Verify resolves a bearer token to its user.
func (s *AuthService) Verify(ctx context.Context, token string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.full_name, u.phone, u.email, u.role, u.password_hash, u.created_at
		FROM api_token t
		JOIN app_user u ON u.id = t.user_id
		WHERE t.token_hash = $1
	`, auth.HashToken(token, s.salt)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, Unauthorized("invalid or expired token")
	}
	return u, err
}

// Logout revokes a token. Revoking an unknown token is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM api_token WHERE token_hash = $1`, auth.HashToken(token, s.salt))
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
