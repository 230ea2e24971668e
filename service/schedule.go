// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danielhkuo/clubcard/models"
)

type ScheduleService struct {
	db    *sql.DB
	audit *AuditService
}

// List returns all seven weekdays; a day never configured is reported closed.
func (s *ScheduleService) List(ctx context.Context) ([]models.ScheduleDay, error) {
	days := make([]models.ScheduleDay, 7)
	for i := range days {
		days[i] = models.ScheduleDay{Day: i, Closed: true}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT day, opens_at, closes_at, closed FROM schedule_day ORDER BY day`)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d models.ScheduleDay
		if err := rows.Scan(&d.Day, &d.OpensAt, &d.ClosesAt, &d.Closed); err != nil {
			return nil, fmt.Errorf("failed to scan schedule day: %w", err)
		}
		if d.Day >= 0 && d.Day < len(days) {
			days[d.Day] = d
		}
	}
	return days, rows.Err()
}

// Set replaces the opening hours of one weekday (0 = Sunday).
func (s *ScheduleService) Set(ctx context.Context, day int, req models.ScheduleRequest) (models.ScheduleDay, error) {
	if day < 0 || day > 6 {
		return models.ScheduleDay{}, InvalidArgument("day must be between 0 and 6")
	}

	d := models.ScheduleDay{Day: day, Closed: req.Closed}
	if !req.Closed {
		opens, err := time.Parse("15:04", req.OpensAt)
		if err != nil {
			return models.ScheduleDay{}, InvalidArgument("opensAt must be HH:MM")
		}
		closes, err := time.Parse("15:04", req.ClosesAt)
		if err != nil {
			return models.ScheduleDay{}, InvalidArgument("closesAt must be HH:MM")
		}
		if opens.Equal(closes) {
			return models.ScheduleDay{}, InvalidArgument("opensAt and closesAt must differ")
		}
		d.OpensAt, d.ClosesAt = req.OpensAt, req.ClosesAt
	}

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_day (day, opens_at, closes_at, closed)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (day) DO UPDATE SET
				opens_at = excluded.opens_at,
				closes_at = excluded.closes_at,
				closed = excluded.closed
		`, d.Day, d.OpensAt, d.ClosesAt, d.Closed)
		if err != nil {
			return fmt.Errorf("failed to store schedule day: %w", err)
		}
		return s.audit.record(ctx, tx, "update", "schedule", int64(day), time.Weekday(day).String())
	})
	if err != nil {
		return models.ScheduleDay{}, err
	}
	return d, nil
}
