// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bytes"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/clubcard/models"
	"github.com/danielhkuo/clubcard/router"
	"github.com/danielhkuo/clubcard/testutil"
	"github.com/danielhkuo/clubcard/workpool"
)

func startServer(t *testing.T) (string, int64) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig(t)
	userID := testutil.CreateTestUser(t, conn, "admin", "hunter22", models.RoleAdmin)

	srv := httptest.NewServer(router.NewRouter(conn, cfg, workpool.New(cfg.Workers)))
	t.Cleanup(srv.Close)
	return srv.URL, userID
}

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", server}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestPing(t *testing.T) {
	server, _ := startServer(t)

	out, err := run(t, server, "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "is up")

	_, err = run(t, "http://127.0.0.1:1", "ping", "--probe=false", "--timeout=500ms")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	server, _ := startServer(t)

	out, err := run(t, server, "login", "-u", "admin", "-P", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	_, err = run(t, server, "login", "-u", "admin", "-P", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid username or password")
}

func TestCardWorkflow(t *testing.T) {
	server, userID := startServer(t)

	out, err := run(t, server, "cards", "create", "--user", strconv.FormatInt(userID, 10), "--number", "C-100")
	require.NoError(t, err)
	assert.Contains(t, out, "C-100")

	out, err = run(t, server, "--json", "cards", "get", "C-100")
	require.NoError(t, err)
	assert.Contains(t, out, `"cardNumber": "C-100"`)

	out, err = run(t, server, "cards", "add", "1", "40", "--reason", "welcome")
	require.NoError(t, err)
	assert.Contains(t, out, "40")

	_, err = run(t, server, "cards", "deduct", "1", "999999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient points")

	out, err = run(t, server, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Cards:           1 (0 blocked)")

	out, err = run(t, server, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "add_points")
}
