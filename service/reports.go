// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/danielhkuo/clubcard/models"
)

type ReportService struct {
	db *sql.DB
}

// PointsByDay totals points added and deducted per UTC day within [from, to].
// Days without movement are omitted.
func (s *ReportService) PointsByDay(ctx context.Context, from, to time.Time) ([]models.PointsReportRow, error) {
	if from.After(to) {
		return nil, InvalidArgument("from must not be after to")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT delta, created_at FROM point_transaction
		WHERE created_at >= $1 AND created_at <= $2
	`, normalize(from), normalize(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	// Grouped here rather than in SQL: date functions differ between dialects.
	byDay := map[string]*models.PointsReportRow{}
	for rows.Next() {
		var (
			delta int64
			at    time.Time
		)
		if err := rows.Scan(&delta, &at); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		day := at.UTC().Format(time.DateOnly)
		row, ok := byDay[day]
		if !ok {
			row = &models.PointsReportRow{Day: day}
			byDay[day] = row
		}
		if delta >= 0 {
			row.Added += delta
		} else {
			row.Deducted += -delta
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	report := make([]models.PointsReportRow, 0, len(byDay))
	for _, row := range byDay {
		report = append(report, *row)
	}
	sort.Slice(report, func(i, j int) bool { return report[i].Day < report[j].Day })
	return report, nil
}
