// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

type Config struct {
	Port          int
	DatabaseURL   string
	DatabaseType  string
	TokenSalt     string
	Workers       int
	RequireAuth   bool
	ExposeErrors  bool
	BackupDir     string
	LogFormat     string
	LoginRPS      float64
	ShutdownGrace time.Duration

	// Bootstrap account created when the user table is empty
	AdminUsername string
	AdminPassword string
}

// ParseFlags validates flags and fills the gaps from the environment.
// Variables from an .env file (-env-file, default ".env") never override
// variables already set in the process environment.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile string

	flags := flag.NewFlagSet("clubcard", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	flags.IntVar(&cfg.Port, "p", 0, "Server port")
	flags.StringVar(&cfg.DatabaseURL, "d", "", "Database URL or sqlite file path")
	flags.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	flags.IntVar(&cfg.Workers, "workers", 0, "Maximum concurrently executing handlers")
	flags.StringVar(&cfg.BackupDir, "backup-dir", "", "Directory for database backups")
	flags.StringVar(&cfg.LogFormat, "log-format", "", "Log format (text or json)")
	flags.Float64Var(&cfg.LoginRPS, "login-rps", 0, "Login attempts per second per client IP")
	flags.DurationVar(&cfg.ShutdownGrace, "shutdown-grace", 0, "Graceful shutdown timeout")
	flags.BoolVar(&cfg.RequireAuth, "require-auth", false, "Require a bearer token on /api routes")
	flags.BoolVar(&cfg.ExposeErrors, "expose-errors", false, "Forward internal error messages to clients (development only)")
	flags.StringVar(&envFile, "env-file", ".env", "Optional dotenv file")

	// Secrets (prefer env variables, but allow CLI for dev)
	flags.StringVar(&cfg.TokenSalt, "token-salt", "", "Bearer token salt (prefer env)")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		port, err := envInt("PORT", 3318)
		if err != nil {
			return Config{}, err
		}
		cfg.Port = port
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = DatabaseSQLite
		}
	}
	if cfg.DatabaseType != DatabaseSQLite && cfg.DatabaseType != DatabasePostgres {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType != DatabaseSQLite {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = "clubcard.db"
	}
	if cfg.Workers == 0 {
		workers, err := envInt("WORKERS", 32)
		if err != nil {
			return Config{}, err
		}
		cfg.Workers = workers
	}
	if cfg.BackupDir == "" {
		cfg.BackupDir = envOr("BACKUP_DIR", "backups")
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = envOr("LOG_FORMAT", "text")
	}
	if cfg.LoginRPS == 0 {
		cfg.LoginRPS = 1
		if v := os.Getenv("LOGIN_RPS"); v != "" {
			rps, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return Config{}, errors.New("invalid LOGIN_RPS env variable")
			}
			cfg.LoginRPS = rps
		}
	}
	if cfg.ShutdownGrace == 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if !cfg.RequireAuth {
		cfg.RequireAuth = envBool("REQUIRE_AUTH")
	}
	if !cfg.ExposeErrors {
		cfg.ExposeErrors = envBool("EXPOSE_ERRORS")
	}

	cfg.AdminUsername = envOr("ADMIN_USERNAME", "admin")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")

	// Secrets - MUST be provided
	if cfg.TokenSalt == "" {
		cfg.TokenSalt = os.Getenv("TOKEN_SALT")
	}
	if cfg.TokenSalt == "" {
		return Config{}, errors.New("TOKEN_SALT required")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return n, nil
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}
