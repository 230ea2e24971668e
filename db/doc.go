// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Drivers

Two dialects are supported:

  - sqlite: modernc.org/sqlite (pure Go, default, used by the tests)
  - postgres: github.com/lib/pq

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
Column types that differ between dialects (auto-increment ids, timestamps)
are substituted per dialect; everything else is shared SQL.

# Tables

  - app_user: members and staff
  - api_token: bearer token digests
  - tier: loyalty tiers
  - card: loyalty cards and their balances
  - point_transaction: balance history
  - session: computer sessions
  - promotion, promo_code: bonus mechanics
  - setting, schedule_day: club configuration
  - audit_entry: append-only audit trail

# Relationships

	app_user 1──* card
	app_user 1──* api_token
	tier 1──* card
	card 1──* point_transaction
	card 1──* session
*/
package db
