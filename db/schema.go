// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/danielhkuo/clubcard/cliparse"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dialect string) error {
	ddl, err := schemaFor(dialect)
	if err != nil {
		return err
	}

	// One statement per Exec keeps both drivers happy.
	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

func schemaFor(dialect string) (string, error) {
	var r *strings.Replacer
	switch dialect {
	case cliparse.DatabaseSQLite:
		r = strings.NewReplacer(
			"{{ID}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
			"{{TS}}", "TIMESTAMP",
		)
	case cliparse.DatabasePostgres:
		r = strings.NewReplacer(
			"{{ID}}", "BIGSERIAL PRIMARY KEY",
			"{{TS}}", "TIMESTAMPTZ",
		)
	default:
		return "", fmt.Errorf("unsupported dialect %q", dialect)
	}
	return r.Replace(schema), nil
}

// Tables lists every table in dependency order; backups dump them in this order.
var Tables = []string{
	"app_user",
	"api_token",
	"tier",
	"card",
	"point_transaction",
	"session",
	"promotion",
	"promo_code",
	"setting",
	"schedule_day",
	"audit_entry",
}

const schema = `
-- Users
CREATE TABLE IF NOT EXISTS app_user (
    id {{ID}},
    username TEXT NOT NULL UNIQUE,
    full_name TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL DEFAULT 'client' CHECK (role IN ('admin', 'operator', 'client')),
    password_hash TEXT NOT NULL,
    created_at {{TS}} NOT NULL
);

-- Bearer tokens (only the salted digest is stored)
CREATE TABLE IF NOT EXISTS api_token (
    token_hash TEXT PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    created_at {{TS}} NOT NULL
);

-- Tiers
CREATE TABLE IF NOT EXISTS tier (
    id {{ID}},
    name TEXT NOT NULL UNIQUE,
    min_points BIGINT NOT NULL DEFAULT 0,
    discount_percent REAL NOT NULL DEFAULT 0
);

-- Cards
CREATE TABLE IF NOT EXISTS card (
    id {{ID}},
    user_id BIGINT NOT NULL REFERENCES app_user(id),
    card_number TEXT NOT NULL UNIQUE,
    points BIGINT NOT NULL DEFAULT 0 CHECK (points >= 0),
    tier_id BIGINT REFERENCES tier(id) ON DELETE SET NULL,
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'blocked')),
    created_at {{TS}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_card_user_id ON card(user_id);

-- Points ledger
CREATE TABLE IF NOT EXISTS point_transaction (
    id {{ID}},
    card_id BIGINT NOT NULL REFERENCES card(id) ON DELETE CASCADE,
    delta BIGINT NOT NULL,
    balance_after BIGINT NOT NULL,
    reason TEXT NOT NULL DEFAULT '',
    created_at {{TS}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_point_transaction_card ON point_transaction(card_id);
CREATE INDEX IF NOT EXISTS idx_point_transaction_created ON point_transaction(created_at);

-- Computer sessions
CREATE TABLE IF NOT EXISTS session (
    id {{ID}},
    card_id BIGINT NOT NULL REFERENCES card(id) ON DELETE CASCADE,
    station TEXT NOT NULL,
    started_at {{TS}} NOT NULL,
    finished_at {{TS}},
    minutes BIGINT NOT NULL DEFAULT 0,
    points_earned BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_session_card ON session(card_id);

-- At most one open session per card
CREATE UNIQUE INDEX IF NOT EXISTS idx_session_active_card ON session(card_id) WHERE finished_at IS NULL;

-- Promotions
CREATE TABLE IF NOT EXISTS promotion (
    id {{ID}},
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    multiplier REAL NOT NULL DEFAULT 1 CHECK (multiplier >= 1),
    starts_at {{TS}} NOT NULL,
    ends_at {{TS}} NOT NULL
);

-- Promo codes
CREATE TABLE IF NOT EXISTS promo_code (
    id {{ID}},
    code TEXT NOT NULL UNIQUE,
    bonus_points BIGINT NOT NULL,
    max_uses BIGINT NOT NULL DEFAULT 0,
    used_count BIGINT NOT NULL DEFAULT 0,
    expires_at {{TS}},
    created_at {{TS}} NOT NULL
);

-- Settings
CREATE TABLE IF NOT EXISTS setting (
    setting_key TEXT PRIMARY KEY,
    setting_value TEXT NOT NULL
);

-- Opening hours, day follows Go's time.Weekday
CREATE TABLE IF NOT EXISTS schedule_day (
    day INTEGER PRIMARY KEY CHECK (day BETWEEN 0 AND 6),
    opens_at TEXT NOT NULL DEFAULT '',
    closes_at TEXT NOT NULL DEFAULT '',
    closed BOOLEAN NOT NULL DEFAULT FALSE
);

-- Audit trail
CREATE TABLE IF NOT EXISTS audit_entry (
    id {{ID}},
    actor TEXT NOT NULL,
    action TEXT NOT NULL,
    entity TEXT NOT NULL,
    entity_id BIGINT NOT NULL DEFAULT 0,
    details TEXT NOT NULL DEFAULT '',
    created_at {{TS}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_entry_created ON audit_entry(created_at)
`
