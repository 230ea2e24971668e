// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/clubcard/models"
)

const promotionColumns = `id, name, description, multiplier, starts_at, ends_at`

type PromotionService struct {
	db    *sql.DB
	audit *AuditService
}

func (s *PromotionService) List(ctx context.Context) ([]models.Promotion, error) {
	return s.query(ctx, `SELECT `+promotionColumns+` FROM promotion ORDER BY starts_at DESC, id DESC`)
}

// Active returns promotions running right now.
func (s *PromotionService) Active(ctx context.Context) ([]models.Promotion, error) {
	return s.query(ctx, `
		SELECT `+promotionColumns+` FROM promotion
		WHERE starts_at <= $1 AND ends_at >= $1
		ORDER BY multiplier DESC, id
	`, now())
}

func (s *PromotionService) Get(ctx context.Context, id int64) (models.Promotion, error) {
	p, err := scanPromotion(s.db.QueryRowContext(ctx, `SELECT `+promotionColumns+` FROM promotion WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Promotion{}, NotFound("promotion %d not found", id)
	}
	return p, err
}

func (s *PromotionService) Create(ctx context.Context, req models.PromotionRequest) (models.Promotion, error) {
	p := promotionFrom(req)
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO promotion (name, description, multiplier, starts_at, ends_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, p.Name, p.Description, p.Multiplier, p.StartsAt, p.EndsAt).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("failed to insert promotion: %w", err)
		}
		return s.audit.record(ctx, tx, "create", "promotion", p.ID, p.Name)
	})
	if err != nil {
		return models.Promotion{}, err
	}
	return p, nil
}

func (s *PromotionService) Update(ctx context.Context, id int64, req models.PromotionRequest) (models.Promotion, error) {
	p := promotionFrom(req)
	p.ID = id
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE promotion
			SET name = $1, description = $2, multiplier = $3, starts_at = $4, ends_at = $5
			WHERE id = $6
		`, p.Name, p.Description, p.Multiplier, p.StartsAt, p.EndsAt, id)
		if err != nil {
			return fmt.Errorf("failed to update promotion: %w", err)
		}
		if err := mustAffect(res, NotFound("promotion %d not found", id)); err != nil {
			return err
		}
		return s.audit.record(ctx, tx, "update", "promotion", id, p.Name)
	})
	if err != nil {
		return models.Promotion{}, err
	}
	return p, nil
}

func (s *PromotionService) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM promotion WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete promotion: %w", err)
		}
		if err := mustAffect(res, NotFound("promotion %d not found", id)); err != nil {
			return err
		}
		return s.audit.record(ctx, tx, "delete", "promotion", id, "")
	})
}

// multiplierAt returns the highest multiplier of the promotions running at t, or 1.
func (s *PromotionService) multiplierAt(ctx context.Context, q querier, t time.Time) (float64, error) {
	var m sql.NullFloat64
	err := q.QueryRowContext(ctx, `
		SELECT MAX(multiplier) FROM promotion
		WHERE starts_at <= $1 AND ends_at >= $1
	`, normalize(t)).Scan(&m)
	if err != nil {
		return 0, fmt.Errorf("failed to query promotions: %w", err)
	}
	if !m.Valid || m.Float64 < 1 {
		return 1, nil
	}
	return m.Float64, nil
}

func (s *PromotionService) query(ctx context.Context, query string, args ...any) ([]models.Promotion, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query promotions: %w", err)
	}
	defer rows.Close()

	promotions := []models.Promotion{}
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		promotions = append(promotions, p)
	}
	return promotions, rows.Err()
}

func promotionFrom(req models.PromotionRequest) models.Promotion {
	return models.Promotion{
		Name:        req.Name,
		Description: req.Description,
		Multiplier:  req.Multiplier,
		StartsAt:    normalize(req.StartsAt),
		EndsAt:      normalize(req.EndsAt),
	}
}

func scanPromotion(row scanner) (models.Promotion, error) {
	var p models.Promotion
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Multiplier, &p.StartsAt, &p.EndsAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("failed to scan promotion: %w", err)
	}
	return p, err
}
