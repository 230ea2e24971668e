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
	"github.com/danielhkuo/clubcard/db"
	"github.com/danielhkuo/clubcard/models"
)

const userColumns = `id, username, full_name, phone, email, role, password_hash, created_at`

type UserService struct {
	db    *sql.DB
	audit *AuditService
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM app_user ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *UserService) Get(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM app_user WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, NotFound("user %d not found", id)
	}
	return u, err
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM app_user WHERE username = $1`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, NotFound("user %q not found", username)
	}
	return u, err
}

func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest) (models.User, error) {
	if _, err := s.GetByUsername(ctx, req.Username); err == nil {
		return models.User{}, InvalidArgument("username %q is already taken", req.Username)
	} else if !errors.Is(err, ErrNotFound) {
		return models.User{}, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.User{}, err
	}

	u := models.User{
		Username:     req.Username,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Email:        req.Email,
		Role:         req.Role,
		PasswordHash: hash,
		CreatedAt:    now(),
	}
	if u.Role == "" {
		u.Role = models.RoleClient
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO app_user (username, full_name, phone, email, role, password_hash, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, u.Username, u.FullName, u.Phone, u.Email, u.Role, u.PasswordHash, u.CreatedAt).Scan(&u.ID)
		if db.IsUniqueViolation(err) {
			return InvalidArgument("username %q is already taken", u.Username)
		}
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		return s.audit.record(ctx, tx, "create", "user", u.ID, u.Username)
	})
	if err != nil {
		return models.User{}, err
	}

	slog.Info("user created", "user_id", u.ID, "username", u.Username)
	return u, nil
}

func (s *UserService) Update(ctx context.Context, id int64, req models.UpdateUserRequest) (models.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	u.FullName, u.Phone, u.Email = req.FullName, req.Phone, req.Email
	if req.Role != "" {
		u.Role = req.Role
	}
	if req.Password != "" {
		if u.PasswordHash, err = auth.HashPassword(req.Password); err != nil {
			return models.User{}, err
		}
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE app_user
			SET full_name = $1, phone = $2, email = $3, role = $4, password_hash = $5
			WHERE id = $6
		`, u.FullName, u.Phone, u.Email, u.Role, u.PasswordHash, id)
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return s.audit.record(ctx, tx, "update", "user", id, u.Username)
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Delete refuses to remove a user who still owns cards.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	var cards int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM card WHERE user_id = $1`, id).Scan(&cards); err != nil {
		return fmt.Errorf("failed to count cards: %w", err)
	}
	if cards > 0 {
		return InvalidArgument("user %d still owns %d card(s)", id, cards)
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM app_user WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if err := mustAffect(res, NotFound("user %d not found", id)); err != nil {
			return err
		}
		return s.audit.record(ctx, tx, "delete", "user", id, "")
	})
}

// EnsureAdmin creates an admin account when the user table is empty.
// It reports whether a user was created.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM app_user`).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	_, err := s.Create(ctx, models.CreateUserRequest{
		Username: username,
		Password: password,
		Role:     models.RoleAdmin,
	})
	return err == nil, err
}

func scanUser(row scanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.Phone, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return u, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, err
}
