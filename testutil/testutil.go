// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/clubcard/auth"
	"github.com/danielhkuo/clubcard/cliparse"
	"github.com/danielhkuo/clubcard/db"
)

// TestTokenSalt is the token salt used by GetTestConfig
const TestTokenSalt = "test-token-salt"

// SetupTestDB creates a fresh file-backed SQLite database with the full schema.
// Every test gets its own file, so tests may run in parallel.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(cliparse.DatabaseSQLite, filepath.Join(t.TempDir(), "club.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, cliparse.DatabaseSQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig(t *testing.T) cliparse.Config {
	t.Helper()
	return cliparse.Config{
		Port:          3318,
		DatabaseType:  cliparse.DatabaseSQLite,
		TokenSalt:     TestTokenSalt,
		Workers:       8,
		BackupDir:     t.TempDir(),
		LogFormat:     "text",
		LoginRPS:      100,
		ShutdownGrace: time.Second,
	}
}

// CreateTestUser inserts a user with the given role and password and returns its ID
func CreateTestUser(t *testing.T, conn *sql.DB, username, password, role string) int64 {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	var id int64
	err = conn.QueryRow(`
		INSERT INTO app_user (username, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, username, role, hash, time.Now().UTC().Truncate(time.Second)).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return id
}

// CreateTestCard inserts an active card with the given balance and returns its ID
func CreateTestCard(t *testing.T, conn *sql.DB, userID int64, number string, points int64) int64 {
	t.Helper()

	var id int64
	err := conn.QueryRow(`
		INSERT INTO card (user_id, card_number, points, status, created_at)
		VALUES ($1, $2, $3, 'active', $4)
		RETURNING id
	`, userID, number, points, time.Now().UTC().Truncate(time.Second)).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test card: %v", err)
	}

	return id
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
