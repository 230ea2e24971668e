// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Precedence

Flags win over environment variables. Variables loaded from the dotenv file
(-env-file, default ".env") fill only what the process environment lacks.

# CLI Flags

	-p               Server port (PORT, default 3318)
	-d               Database URL or SQLite path (DATABASE_URL)
	-t               sqlite or postgres (DATABASE_TYPE, default sqlite)
	-workers         Handler concurrency (WORKERS, default 32)
	-backup-dir      Backup directory (BACKUP_DIR, default "backups")
	-log-format      text or json (LOG_FORMAT)
	-login-rps       Login attempts per second per IP (LOGIN_RPS, default 1)
	-shutdown-grace  Graceful shutdown timeout (default 10s)
	-require-auth    Bearer tokens on /api routes (REQUIRE_AUTH)
	-expose-errors   Forward internal errors to clients (EXPOSE_ERRORS)
	-token-salt      Token hash salt (TOKEN_SALT)

# Validation

ParseFlags returns an error if:

  - TOKEN_SALT is missing
  - the database type is neither sqlite nor postgres
  - DATABASE_URL is missing for postgres
  - a numeric variable does not parse
*/
package cliparse
