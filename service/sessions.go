// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/danielhkuo/clubcard/db"
	"github.com/danielhkuo/clubcard/models"
)

// DefaultPointsPerHour applies when the points_per_hour setting is missing.
const DefaultPointsPerHour = 10

const sessionColumns = `id, card_id, station, started_at, finished_at, minutes, points_earned`

type SessionService struct {
	db         *sql.DB
	audit      *AuditService
	cards      *CardService
	settings   *SettingService
	promotions *PromotionService
}

func (s *SessionService) List(ctx context.Context, activeOnly bool) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM session`
	if activeOnly {
		query += ` WHERE finished_at IS NULL`
	}
	return s.query(ctx, query+` ORDER BY started_at DESC, id DESC`)
}

func (s *SessionService) ListByCard(ctx context.Context, cardID int64) ([]models.Session, error) {
	if _, err := s.cards.Get(ctx, cardID); err != nil {
		return nil, err
	}
	return s.query(ctx, `SELECT `+sessionColumns+` FROM session WHERE card_id = $1 ORDER BY started_at DESC, id DESC`, cardID)
}

func (s *SessionService) Get(ctx context.Context, id int64) (models.Session, error) {
	return s.get(ctx, s.db, id)
}

// Start opens a session at a station. A card has at most one open session.
func (s *SessionService) Start(ctx context.Context, req models.StartSessionRequest) (models.Session, error) {
	sess := models.Session{
		CardID:    req.CardID,
		Station:   req.Station,
		StartedAt: now(),
		Active:    true,
	}
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		// Validate the card
		card, err := s.cards.get(ctx, tx, req.CardID)
		if errors.Is(err, ErrNotFound) {
			return InvalidArgument("card %d does not exist", req.CardID)
		}
		if err != nil {
			return err
		}
		if card.Status == models.CardBlocked {
			return InvalidArgument("card %s is blocked", card.CardNumber)
		}

		// Check for an open session
		var open int64
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM session WHERE card_id = $1 AND finished_at IS NULL
		`, req.CardID).Scan(&open)
		if err != nil {
			return fmt.Errorf("failed to query sessions: %w", err)
		}
		if open > 0 {
			return InvalidArgument("card %s already has an active session", card.CardNumber)
		}

		// Insert; idx_session_active_card catches a concurrent start
		err = tx.QueryRowContext(ctx, `
			INSERT INTO session (card_id, station, started_at)
			VALUES ($1, $2, $3)
			RETURNING id
		`, sess.CardID, sess.Station, sess.StartedAt).Scan(&sess.ID)
		if db.IsUniqueViolation(err) {
			return InvalidArgument("card %s already has an active session", card.CardNumber)
		}
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return s.audit.record(ctx, tx, "start", "session", sess.ID, sess.Station)
	})
	if err != nil {
		return models.Session{}, err
	}

	slog.Info("session started", "session_id", sess.ID, "card_id", sess.CardID, "station", sess.Station)
	return sess, nil
}

// Finish closes a session and credits the card for the time played.
func (s *SessionService) Finish(ctx context.Context, id int64) (models.Session, error) {
	var sess models.Session
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		if sess, err = s.get(ctx, tx, id); err != nil {
			return err
		}
		if !sess.Active {
			return InvalidArgument("session %d is already finished", id)
		}

		// Work out the points earned
		finished := now()
		sess.Minutes = minutesBetween(sess.StartedAt, finished)

		perHour, err := s.settings.getInt(ctx, tx, models.SettingPointsPerHour, DefaultPointsPerHour)
		if err != nil {
			return err
		}
		multiplier, err := s.promotions.multiplierAt(ctx, tx, finished)
		if err != nil {
			return err
		}
		sess.PointsEarned = sessionPoints(sess.Minutes, perHour, multiplier)

		card, err := s.cards.get(ctx, tx, sess.CardID)
		if err != nil {
			return err
		}
		// A card blocked mid-session still gets its session closed, without points.
		if card.Status == models.CardBlocked {
			sess.PointsEarned = 0
		}

		// Close the session; only one concurrent Finish can match
		res, err := tx.ExecContext(ctx, `
			UPDATE session SET finished_at = $1, minutes = $2, points_earned = $3
			WHERE id = $4 AND finished_at IS NULL
		`, finished, sess.Minutes, sess.PointsEarned, id)
		if err != nil {
			return fmt.Errorf("failed to finish session: %w", err)
		}
		if err := mustAffect(res, InvalidArgument("session %d is already finished", id)); err != nil {
			return err
		}
		sess.FinishedAt = &finished
		sess.Active = false

		// Credit the card
		if sess.PointsEarned > 0 {
			reason := fmt.Sprintf("session %d at %s", id, sess.Station)
			if _, err := s.cards.adjust(ctx, tx, sess.CardID, sess.PointsEarned, reason); err != nil {
				return err
			}
		}
		return s.audit.record(ctx, tx, "finish", "session", id, fmt.Sprintf("%d min, %d points", sess.Minutes, sess.PointsEarned))
	})
	if err != nil {
		return models.Session{}, err
	}

	slog.Info("session finished", "session_id", id, "minutes", sess.Minutes, "points", sess.PointsEarned)
	return sess, nil
}

func (s *SessionService) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM session WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		if err := mustAffect(res, NotFound("session %d not found", id)); err != nil {
			return err
		}
		return s.audit.record(ctx, tx, "delete", "session", id, "")
	})
}

// minutesBetween rounds up to whole minutes, never below one.
func minutesBetween(start, end time.Time) int64 {
	m := int64(math.Ceil(end.Sub(start).Minutes()))
	if m < 1 {
		return 1
	}
	return m
}

func sessionPoints(minutes, perHour int64, multiplier float64) int64 {
	return int64(math.Floor(float64(minutes*perHour) / 60 * multiplier))
}

func (s *SessionService) get(ctx context.Context, q querier, id int64) (models.Session, error) {
	sess, err := scanSession(q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM session WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, NotFound("session %d not found", id)
	}
	return sess, err
}

func (s *SessionService) query(ctx context.Context, query string, args ...any) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func scanSession(row scanner) (models.Session, error) {
	var sess models.Session
	err := row.Scan(&sess.ID, &sess.CardID, &sess.Station, &sess.StartedAt, &sess.FinishedAt, &sess.Minutes, &sess.PointsEarned)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("failed to scan session: %w", err)
		}
		return sess, err
	}
	sess.Active = sess.FinishedAt == nil
	return sess, nil
}
