// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/danielhkuo/clubcard/models"
)

type SettingService struct {
	db    *sql.DB
	audit *AuditService
}

func (s *SettingService) List(ctx context.Context) ([]models.Setting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT setting_key, setting_value FROM setting ORDER BY setting_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := []models.Setting{}
	for rows.Next() {
		var st models.Setting
		if err := rows.Scan(&st.Key, &st.Value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, st)
	}
	return settings, rows.Err()
}

func (s *SettingService) Get(ctx context.Context, key string) (models.Setting, error) {
	st := models.Setting{Key: key}
	err := s.db.QueryRowContext(ctx, `SELECT setting_value FROM setting WHERE setting_key = $1`, key).Scan(&st.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Setting{}, NotFound("setting %q not found", key)
	}
	if err != nil {
		return models.Setting{}, fmt.Errorf("failed to query setting: %w", err)
	}
	return st, nil
}

// Set creates or replaces a setting.
func (s *SettingService) Set(ctx context.Context, key, value string) (models.Setting, error) {
	if key == models.SettingPointsPerHour {
		if n, err := strconv.ParseInt(value, 10, 64); err != nil || n < 0 {
			return models.Setting{}, InvalidArgument("%s must be a non-negative integer", key)
		}
	}

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO setting (setting_key, setting_value)
			VALUES ($1, $2)
			ON CONFLICT (setting_key) DO UPDATE SET setting_value = excluded.setting_value
		`, key, value)
		if err != nil {
			return fmt.Errorf("failed to store setting: %w", err)
		}
		return s.audit.record(ctx, tx, "update", "setting", 0, key+"="+value)
	})
	if err != nil {
		return models.Setting{}, err
	}
	return models.Setting{Key: key, Value: value}, nil
}

// getInt reads an integer setting, falling back to def when unset or malformed.
func (s *SettingService) getInt(ctx context.Context, q querier, key string, def int64) (int64, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT setting_value FROM setting WHERE setting_key = $1`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query setting: %w", err)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def, nil
	}
	return n, nil
}
