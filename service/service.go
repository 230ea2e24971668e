// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

type Options struct {
	TokenSalt string
	BackupDir string
}

// Services bundles one service per resource. All of them share the same
// *sql.DB and are safe for concurrent use.
type Services struct {
	Auth       *AuthService
	Users      *UserService
	Tiers      *TierService
	Cards      *CardService
	Sessions   *SessionService
	Promotions *PromotionService
	PromoCodes *PromoCodeService
	Settings   *SettingService
	Audit      *AuditService
	Reports    *ReportService
	Statistics *StatisticsService
	Schedule   *ScheduleService
	Backup     *BackupService
}

func New(db *sql.DB, opts Options) *Services {
	audit := &AuditService{db: db}
	settings := &SettingService{db: db, audit: audit}
	tiers := &TierService{db: db, audit: audit}
	cards := &CardService{db: db, audit: audit, tiers: tiers}
	promotions := &PromotionService{db: db, audit: audit}

	return &Services{
		Auth:       &AuthService{db: db, audit: audit, salt: opts.TokenSalt},
		Users:      &UserService{db: db, audit: audit},
		Tiers:      tiers,
		Cards:      cards,
		Sessions:   &SessionService{db: db, audit: audit, cards: cards, settings: settings, promotions: promotions},
		Promotions: promotions,
		PromoCodes: &PromoCodeService{db: db, audit: audit, cards: cards},
		Settings:   settings,
		Audit:      audit,
		Reports:    &ReportService{db: db},
		Statistics: &StatisticsService{db: db},
		Schedule:   &ScheduleService{db: db, audit: audit},
		Backup:     &BackupService{db: db, audit: audit, dir: opts.BackupDir},
	}
}

// now is truncated to whole seconds in UTC so stored timestamps compare
// correctly as text on SQLite.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func mustAffect(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

type actorKey struct{}

// WithActor records who is acting for the audit trail.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the acting user, or "system" when none was recorded.
func ActorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
		return a
	}
	return "system"
}
