// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielhkuo/clubcard/auth"
	"github.com/danielhkuo/clubcard/db"
	"github.com/danielhkuo/clubcard/models"
)

const promoCodeColumns = `id, code, bonus_points, max_uses, used_count, expires_at, created_at`

type PromoCodeService struct {
	db    *sql.DB
	audit *AuditService
	cards *CardService
}

func (s *PromoCodeService) List(ctx context.Context) ([]models.PromoCode, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+promoCodeColumns+` FROM promo_code ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query promo codes: %w", err)
	}
	defer rows.Close()

	codes := []models.PromoCode{}
	for rows.Next() {
		pc, err := scanPromoCode(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, pc)
	}
	return codes, rows.Err()
}

func (s *PromoCodeService) Get(ctx context.Context, id int64) (models.PromoCode, error) {
	pc, err := scanPromoCode(s.db.QueryRowContext(ctx, `SELECT `+promoCodeColumns+` FROM promo_code WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.PromoCode{}, NotFound("promo code %d not found", id)
	}
	return pc, err
}

// GetByCode looks a code up case-insensitively.
func (s *PromoCodeService) GetByCode(ctx context.Context, code string) (models.PromoCode, error) {
	return s.byCode(ctx, s.db, code)
}

// Create stores a promo code, generating one when req.Code is empty.
func (s *PromoCodeService) Create(ctx context.Context, req models.CreatePromoCodeRequest) (models.PromoCode, error) {
	code := strings.ToUpper(req.Code)
	if code == "" {
		var err error
		if code, err = auth.GeneratePromoCode(); err != nil {
			return models.PromoCode{}, err
		}
	}
	if _, err := s.byCode(ctx, s.db, code); err == nil {
		return models.PromoCode{}, InvalidArgument("promo code %s already exists", code)
	} else if !errors.Is(err, ErrNotFound) {
		return models.PromoCode{}, err
	}

	pc := models.PromoCode{
		Code:        code,
		BonusPoints: req.BonusPoints,
		MaxUses:     req.MaxUses,
		CreatedAt:   now(),
	}
	if req.ExpiresAt != nil {
		exp := normalize(*req.ExpiresAt)
		pc.ExpiresAt = &exp
	}

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO promo_code (code, bonus_points, max_uses, used_count, expires_at, created_at)
			VALUES ($1, $2, $3, 0, $4, $5)
			RETURNING id
		`, pc.Code, pc.BonusPoints, pc.MaxUses, pc.ExpiresAt, pc.CreatedAt).Scan(&pc.ID)
		if db.IsUniqueViolation(err) {
			return InvalidArgument("promo code %s already exists", pc.Code)
		}
		if err != nil {
			return fmt.Errorf("failed to insert promo code: %w", err)
		}
		return s.audit.record(ctx, tx, "create", "promo_code", pc.ID, pc.Code)
	})
	if err != nil {
		return models.PromoCode{}, err
	}
	return pc, nil
}

// Redeem credits the code's bonus to a card and counts one use.
func (s *PromoCodeService) Redeem(ctx context.Context, req models.RedeemPromoCodeRequest) (models.RedeemPromoCodeResponse, error) {
	var resp models.RedeemPromoCodeResponse
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		// Validate the code
		pc, err := s.byCode(ctx, tx, req.Code)
		if err != nil {
			return err
		}
		if pc.ExpiresAt != nil && now().After(*pc.ExpiresAt) {
			return InvalidArgument("promo code %s has expired", pc.Code)
		}
		if pc.MaxUses > 0 && pc.UsedCount >= pc.MaxUses {
			return InvalidArgument("promo code %s has been used up", pc.Code)
		}

		// Count the use; the WHERE guard wins against concurrent redeems
		res, err := tx.ExecContext(ctx, `
			UPDATE promo_code SET used_count = used_count + 1
			WHERE id = $1 AND (max_uses = 0 OR used_count < max_uses)
		`, pc.ID)
		if err != nil {
			return fmt.Errorf("failed to update promo code: %w", err)
		}
		if err := mustAffect(res, InvalidArgument("promo code %s has been used up", pc.Code)); err != nil {
			return err
		}
		pc.UsedCount++

		// Credit the card
		card, err := s.cards.adjust(ctx, tx, req.CardID, pc.BonusPoints, "promo code "+pc.Code)
		if err != nil {
			return err
		}
		resp = models.RedeemPromoCodeResponse{Card: card, PromoCode: pc}
		return s.audit.record(ctx, tx, "redeem", "promo_code", pc.ID, card.CardNumber)
	})
	if err != nil {
		return models.RedeemPromoCodeResponse{}, err
	}

	slog.Info("promo code redeemed", "code", resp.PromoCode.Code, "card_id", resp.Card.ID)
	return resp, nil
}

func (s *PromoCodeService) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM promo_code WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete promo code: %w", err)
		}
		if err := mustAffect(res, NotFound("promo code %d not found", id)); err != nil {
			return err
		}
		return s.audit.record(ctx, tx, "delete", "promo_code", id, "")
	})
}

func (s *PromoCodeService) byCode(ctx context.Context, q querier, code string) (models.PromoCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	pc, err := scanPromoCode(q.QueryRowContext(ctx, `SELECT `+promoCodeColumns+` FROM promo_code WHERE code = $1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return models.PromoCode{}, NotFound("promo code %s not found", code)
	}
	return pc, err
}

func scanPromoCode(row scanner) (models.PromoCode, error) {
	var pc models.PromoCode
	err := row.Scan(&pc.ID, &pc.Code, &pc.BonusPoints, &pc.MaxUses, &pc.UsedCount, &pc.ExpiresAt, &pc.CreatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return pc, fmt.Errorf("failed to scan promo code: %w", err)
	}
	return pc, err
}
