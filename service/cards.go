// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/clubcard/db"
	"github.com/danielhkuo/clubcard/models"
)

const cardColumns = `id, user_id, card_number, points, tier_id, status, created_at`

type CardService struct {
	db    *sql.DB
	audit *AuditService
	tiers *TierService
}

func (s *CardService) List(ctx context.Context) ([]models.Card, error) {
	return s.query(ctx, `SELECT `+cardColumns+` FROM card ORDER BY id`)
}

func (s *CardService) ListByUser(ctx context.Context, userID int64) ([]models.Card, error) {
	return s.query(ctx, `SELECT `+cardColumns+` FROM card WHERE user_id = $1 ORDER BY id`, userID)
}

func (s *CardService) Get(ctx context.Context, id int64) (models.Card, error) {
	return s.get(ctx, s.db, id)
}

func (s *CardService) GetByNumber(ctx context.Context, number string) (models.Card, error) {
	c, err := scanCard(s.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM card WHERE card_number = $1`, number))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Card{}, NotFound("card %q not found", number)
	}
	return c, err
}

func (s *CardService) Create(ctx context.Context, req models.CreateCardRequest) (models.Card, error) {
	if err := s.checkOwner(ctx, req.UserID); err != nil {
		return models.Card{}, err
	}
	if err := s.checkNumber(ctx, req.CardNumber, 0); err != nil {
		return models.Card{}, err
	}

	c := models.Card{
		UserID:     req.UserID,
		CardNumber: req.CardNumber,
		Status:     models.CardActive,
		CreatedAt:  now(),
	}
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		tierID, err := s.tiers.tierFor(ctx, tx, 0)
		if err != nil {
			return err
		}
		c.TierID = tierID

		err = tx.QueryRowContext(ctx, `
			INSERT INTO card (user_id, card_number, points, tier_id, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, c.UserID, c.CardNumber, c.Points, c.TierID, c.Status, c.CreatedAt).Scan(&c.ID)
		if db.IsUniqueViolation(err) {
			return InvalidArgument("card number %s already exists", c.CardNumber)
		}
		if err != nil {
			return fmt.Errorf("failed to insert card: %w", err)
		}
		return s.audit.record(ctx, tx, "create", "card", c.ID, c.CardNumber)
	})
	if err != nil {
		return models.Card{}, err
	}

	slog.Info("card created", "card_id", c.ID, "card_number", c.CardNumber, "user_id", c.UserID)
	return c, nil
}

func (s *CardService) Update(ctx context.Context, id int64, req models.UpdateCardRequest) (models.Card, error) {
	if err := s.checkOwner(ctx, req.UserID); err != nil {
		return models.Card{}, err
	}
	if err := s.checkNumber(ctx, req.CardNumber, id); err != nil {
		return models.Card{}, err
	}

	var c models.Card
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE card SET user_id = $1, card_number = $2 WHERE id = $3
		`, req.UserID, req.CardNumber, id)
		if db.IsUniqueViolation(err) {
			return InvalidArgument("card number %s already exists", req.CardNumber)
		}
		if err != nil {
			return fmt.Errorf("failed to update card: %w", err)
		}
		if err := mustAffect(res, NotFound("card %d not found", id)); err != nil {
			return err
		}
		if c, err = s.get(ctx, tx, id); err != nil {
			return err
		}
		return s.audit.record(ctx, tx, "update", "card", id, c.CardNumber)
	})
	if err != nil {
		return models.Card{}, err
	}
	return c, nil
}

func (s *CardService) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		// Children first; SQLite only cascades with foreign_keys enabled.
		if _, err := tx.ExecContext(ctx, `DELETE FROM point_transaction WHERE card_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete card history: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM session WHERE card_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete card sessions: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM card WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete card: %w", err)
		}
		if err := mustAffect(res, NotFound("card %d not found", id)); err != nil {
			return err
		}
		return s.audit.record(ctx, tx, "delete", "card", id, "")
	})
}

// AddPoints credits a card.
func (s *CardService) AddPoints(ctx context.Context, id int64, req models.PointsRequest) (models.Card, error) {
	return s.change(ctx, id, req.Points, req.Reason)
}

// DeductPoints debits a card. The balance never goes negative.
func (s *CardService) DeductPoints(ctx context.Context, id int64, req models.PointsRequest) (models.Card, error) {
	return s.change(ctx, id, -req.Points, req.Reason)
}

func (s *CardService) change(ctx context.Context, id, delta int64, reason string) (models.Card, error) {
	var c models.Card
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		c, err = s.adjust(ctx, tx, id, delta, reason)
		return err
	})
	if err != nil {
		return models.Card{}, err
	}
	slog.Info("card points changed", "card_id", id, "delta", delta, "balance", c.Points)
	return c, nil
}

// SetStatus blocks or unblocks a card.
func (s *CardService) SetStatus(ctx context.Context, id int64, status string) (models.Card, error) {
	var c models.Card
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE card SET status = $1 WHERE id = $2`, status, id)
		if err != nil {
			return fmt.Errorf("failed to update card status: %w", err)
		}
		if err := mustAffect(res, NotFound("card %d not found", id)); err != nil {
			return err
		}
		if c, err = s.get(ctx, tx, id); err != nil {
			return err
		}
		return s.audit.record(ctx, tx, status, "card", id, "")
	})
	if err != nil {
		return models.Card{}, err
	}
	return c, nil
}

func (s *CardService) Transactions(ctx context.Context, id int64) ([]models.PointTransaction, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, card_id, delta, balance_after, reason, created_at
		FROM point_transaction
		WHERE card_id = $1
		ORDER BY id DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txs := []models.PointTransaction{}
	for rows.Next() {
		var pt models.PointTransaction
		if err := rows.Scan(&pt.ID, &pt.CardID, &pt.Delta, &pt.BalanceAfter, &pt.Reason, &pt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, pt)
	}
	return txs, rows.Err()
}

// adjust applies delta to a card inside tx: balance, tier, ledger row, audit entry.
// Sessions and promo codes reuse it so every balance change is recorded the same way.
func (s *CardService) adjust(ctx context.Context, tx *sql.Tx, id, delta int64, reason string) (models.Card, error) {
	// Validate the card
	c, err := s.get(ctx, tx, id)
	if err != nil {
		return models.Card{}, err
	}
	if c.Status == models.CardBlocked {
		return models.Card{}, InvalidArgument("card %s is blocked", c.CardNumber)
	}
	if c.Points+delta < 0 {
		return models.Card{}, InvalidArgument("insufficient points: balance %d, requested %d", c.Points, -delta)
	}

	// Apply the delta. The row lock taken here orders concurrent changes on
	// Postgres, so the returned balance is the one this change produced.
	err = tx.QueryRowContext(ctx, `
		UPDATE card SET points = points + $1
		WHERE id = $2 AND status = 'active' AND points + $1 >= 0
		RETURNING points
	`, delta, id).Scan(&c.Points)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Card{}, InvalidArgument("insufficient points")
	}
	if err != nil {
		return models.Card{}, fmt.Errorf("failed to update points: %w", err)
	}

	// Re-evaluate the tier
	if c.TierID, err = s.tiers.tierFor(ctx, tx, c.Points); err != nil {
		return models.Card{}, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE card SET tier_id = $1 WHERE id = $2`, c.TierID, id); err != nil {
		return models.Card{}, fmt.Errorf("failed to update tier: %w", err)
	}

	// Record the ledger row and audit entry
	_, err = tx.ExecContext(ctx, `
		INSERT INTO point_transaction (card_id, delta, balance_after, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, delta, c.Points, reason, now())
	if err != nil {
		return models.Card{}, fmt.Errorf("failed to record transaction: %w", err)
	}

	action := "add_points"
	if delta < 0 {
		action = "deduct_points"
	}
	details := fmt.Sprintf("%+d: %s", delta, reason)
	if err := s.audit.record(ctx, tx, action, "card", id, details); err != nil {
		return models.Card{}, err
	}
	return c, nil
}

func (s *CardService) get(ctx context.Context, q querier, id int64) (models.Card, error) {
	c, err := scanCard(q.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM card WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Card{}, NotFound("card %d not found", id)
	}
	return c, err
}

func (s *CardService) query(ctx context.Context, query string, args ...any) ([]models.Card, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (s *CardService) checkOwner(ctx context.Context, userID int64) error {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM app_user WHERE id = $1`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return InvalidArgument("user %d does not exist", userID)
	}
	if err != nil {
		return fmt.Errorf("failed to query user: %w", err)
	}
	return nil
}

func (s *CardService) checkNumber(ctx context.Context, number string, self int64) error {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM card WHERE card_number = $1`, number).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && id == self) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to query card: %w", err)
	}
	return InvalidArgument("card number %s already exists", number)
}

func scanCard(row scanner) (models.Card, error) {
	var c models.Card
	err := row.Scan(&c.ID, &c.UserID, &c.CardNumber, &c.Points, &c.TierID, &c.Status, &c.CreatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("failed to scan card: %w", err)
	}
	return c, err
}
