// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/clubcard/models"
)

type StatisticsService struct {
	db *sql.DB
}

func (s *StatisticsService) Get(ctx context.Context) (models.Statistics, error) {
	var st models.Statistics
	counts := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM app_user`, &st.Users},
		{`SELECT COUNT(*) FROM card`, &st.Cards},
		{`SELECT COUNT(*) FROM card WHERE status = 'blocked'`, &st.BlockedCards},
		{`SELECT COALESCE(SUM(points), 0) FROM card`, &st.TotalPoints},
		{`SELECT COUNT(*) FROM session`, &st.Sessions},
		{`SELECT COUNT(*) FROM session WHERE finished_at IS NULL`, &st.ActiveSessions},
		{`SELECT COUNT(*) FROM promo_code`, &st.PromoCodes},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return models.Statistics{}, fmt.Errorf("failed to compute statistics: %w", err)
		}
	}
	return st, nil
}
