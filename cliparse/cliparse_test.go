// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "DATABASE_URL", "DATABASE_TYPE", "TOKEN_SALT", "WORKERS",
		"BACKUP_DIR", "LOG_FORMAT", "LOGIN_RPS", "REQUIRE_AUTH", "EXPOSE_ERRORS", "ADMIN_USERNAME", "ADMIN_PASSWORD"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("TOKEN_SALT", "test-salt")
	t.Setenv("REQUIRE_AUTH", "true")

	cfg, err := ParseFlags([]string{"-env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != DatabasePostgres {
		t.Errorf("expected postgres, got %s", cfg.DatabaseType)
	}
	if !cfg.RequireAuth {
		t.Error("expected REQUIRE_AUTH to enable auth")
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-token-salt", "s1", "-env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{"-token-salt", "s1", "-env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected default port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != DatabaseSQLite || cfg.DatabaseURL != "clubcard.db" {
		t.Errorf("expected sqlite clubcard.db, got %s %s", cfg.DatabaseType, cfg.DatabaseURL)
	}
	if cfg.Workers != 32 {
		t.Errorf("expected 32 workers, got %d", cfg.Workers)
	}
	if cfg.ShutdownGrace != 10*time.Second {
		t.Errorf("expected 10s shutdown grace, got %s", cfg.ShutdownGrace)
	}
}

func TestParseFlags_RequiresSalt(t *testing.T) {
	clearEnv(t)

	if _, err := ParseFlags([]string{"-env-file", ""}); err == nil {
		t.Error("expected error without TOKEN_SALT")
	}
}

func TestParseFlags_PostgresNeedsURL(t *testing.T) {
	clearEnv(t)

	if _, err := ParseFlags([]string{"-t", "postgres", "-token-salt", "s", "-env-file", ""}); err == nil {
		t.Error("expected error without DATABASE_URL for postgres")
	}
}

func TestParseFlags_RejectsUnknownDatabase(t *testing.T) {
	clearEnv(t)

	if _, err := ParseFlags([]string{"-t", "mysql", "-token-salt", "s", "-env-file", ""}); err == nil {
		t.Error("expected error for unsupported database type")
	}
}

func TestParseFlags_DotEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("TOKEN_SALT=from-file\nPORT=7000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7100")
	// godotenv.Load sets variables process-wide; restore afterwards.
	t.Cleanup(func() { os.Unsetenv("TOKEN_SALT") })

	cfg, err := ParseFlags([]string{"-env-file", path})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.TokenSalt != "from-file" {
		t.Errorf("expected salt from .env, got %q", cfg.TokenSalt)
	}
	// Existing environment wins over the file
	if cfg.Port != 7100 {
		t.Errorf("expected env port 7100, got %d", cfg.Port)
	}
}

func TestParseFlags_AdminBootstrap(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_SALT", "salt")
	t.Setenv("ADMIN_PASSWORD", "hunter22")

	cfg, err := ParseFlags([]string{"-env-file", ""})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AdminUsername != "admin" {
		t.Errorf("expected default admin username, got %q", cfg.AdminUsername)
	}
	if cfg.AdminPassword != "hunter22" {
		t.Errorf("expected admin password from env, got %q", cfg.AdminPassword)
	}
}
