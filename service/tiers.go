// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/clubcard/db"
	"github.com/danielhkuo/clubcard/models"
)

type TierService struct {
	db    *sql.DB
	audit *AuditService
}

func (s *TierService) List(ctx context.Context) ([]models.Tier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, min_points, discount_percent
		FROM tier
		ORDER BY min_points, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tiers: %w", err)
	}
	defer rows.Close()

	tiers := []models.Tier{}
	for rows.Next() {
		var t models.Tier
		if err := rows.Scan(&t.ID, &t.Name, &t.MinPoints, &t.DiscountPercent); err != nil {
			return nil, fmt.Errorf("failed to scan tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (s *TierService) Get(ctx context.Context, id int64) (models.Tier, error) {
	var t models.Tier
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, min_points, discount_percent
		FROM tier
		WHERE id = $1
	`, id).Scan(&t.ID, &t.Name, &t.MinPoints, &t.DiscountPercent)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tier{}, NotFound("tier %d not found", id)
	}
	if err != nil {
		return models.Tier{}, fmt.Errorf("failed to query tier: %w", err)
	}
	return t, nil
}

func (s *TierService) Create(ctx context.Context, req models.TierRequest) (models.Tier, error) {
	if err := s.checkName(ctx, req.Name, 0); err != nil {
		return models.Tier{}, err
	}

	t := models.Tier{Name: req.Name, MinPoints: req.MinPoints, DiscountPercent: req.DiscountPercent}
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO tier (name, min_points, discount_percent)
			VALUES ($1, $2, $3)
			RETURNING id
		`, t.Name, t.MinPoints, t.DiscountPercent).Scan(&t.ID)
		if db.IsUniqueViolation(err) {
			return InvalidArgument("tier %q already exists", t.Name)
		}
		if err != nil {
			return fmt.Errorf("failed to insert tier: %w", err)
		}
		if err := s.reassign(ctx, tx); err != nil {
			return err
		}
		return s.audit.record(ctx, tx, "create", "tier", t.ID, t.Name)
	})
	if err != nil {
		return models.Tier{}, err
	}
	return t, nil
}

func (s *TierService) Update(ctx context.Context, id int64, req models.TierRequest) (models.Tier, error) {
	if err := s.checkName(ctx, req.Name, id); err != nil {
		return models.Tier{}, err
	}

	t := models.Tier{ID: id, Name: req.Name, MinPoints: req.MinPoints, DiscountPercent: req.DiscountPercent}
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE tier
			SET name = $1, min_points = $2, discount_percent = $3
			WHERE id = $4
		`, t.Name, t.MinPoints, t.DiscountPercent, id)
		if db.IsUniqueViolation(err) {
			return InvalidArgument("tier %q already exists", t.Name)
		}
		if err != nil {
			return fmt.Errorf("failed to update tier: %w", err)
		}
		if err := mustAffect(res, NotFound("tier %d not found", id)); err != nil {
			return err
		}
		if err := s.reassign(ctx, tx); err != nil {
			return err
		}
		return s.audit.record(ctx, tx, "update", "tier", id, t.Name)
	})
	if err != nil {
		return models.Tier{}, err
	}
	return t, nil
}

func (s *TierService) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM tier WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete tier: %w", err)
		}
		if err := mustAffect(res, NotFound("tier %d not found", id)); err != nil {
			return err
		}
		if err := s.reassign(ctx, tx); err != nil {
			return err
		}
		return s.audit.record(ctx, tx, "delete", "tier", id, "")
	})
}

// tierFor returns the highest tier reachable with points, or nil.
func (s *TierService) tierFor(ctx context.Context, q querier, points int64) (*int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		SELECT id FROM tier
		WHERE min_points <= $1
		ORDER BY min_points DESC, id DESC
		LIMIT 1
	`, points).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tier: %w", err)
	}
	return &id, nil
}

// reassign recomputes every card's tier after the tier table changed.
func (s *TierService) reassign(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE card SET tier_id = (
			SELECT t.id FROM tier t
			WHERE t.min_points <= card.points
			ORDER BY t.min_points DESC, t.id DESC
			LIMIT 1
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to reassign tiers: %w", err)
	}
	return nil
}

func (s *TierService) checkName(ctx context.Context, name string, self int64) error {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM tier WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && id == self) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to query tier: %w", err)
	}
	return InvalidArgument("tier %q already exists", name)
}
