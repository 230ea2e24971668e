// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/clubcard/models"
)

// auditLimit caps a single audit listing.
const auditLimit = 1000

type AuditService struct {
	db *sql.DB
}

// record appends an entry using q, so callers can make it part of their transaction.
func (s *AuditService) record(ctx context.Context, q querier, action, entity string, entityID int64, details string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO audit_entry (actor, action, entity, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ActorFrom(ctx), action, entity, entityID, details, now())
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// List returns entries newest first, optionally bounded by [from, to].
func (s *AuditService) List(ctx context.Context, from, to *time.Time) ([]models.AuditEntry, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, InvalidArgument("from must not be after to")
	}

	var (
		where []string
		args  []any
	)
	if from != nil {
		args = append(args, normalize(*from))
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, normalize(*to))
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `SELECT id, actor, action, entity, entity_id, details, created_at FROM audit_entry`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT %d", auditLimit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *AuditService) Get(ctx context.Context, id int64) (models.AuditEntry, error) {
	e, err := scanAudit(s.db.QueryRowContext(ctx, `
		SELECT id, actor, action, entity, entity_id, details, created_at
		FROM audit_entry
		WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.AuditEntry{}, NotFound("audit entry %d not found", id)
	}
	return e, err
}

func scanAudit(row scanner) (models.AuditEntry, error) {
	var e models.AuditEntry
	err := row.Scan(&e.ID, &e.Actor, &e.Action, &e.Entity, &e.EntityID, &e.Details, &e.CreatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("failed to scan audit entry: %w", err)
	}
	return e, err
}
