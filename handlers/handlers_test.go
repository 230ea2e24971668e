// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/danielhkuo/clubcard/middleware"
	"github.com/danielhkuo/clubcard/models"
	"github.com/danielhkuo/clubcard/service"
	"github.com/danielhkuo/clubcard/testutil"
)

// envelope mirrors the wire shape of every response.
type envelope[T any] struct {
	Success      bool    `json:"success"`
	Data         *T      `json:"data"`
	ErrorMessage *string `json:"errorMessage"`
}

func setup(t *testing.T) (*service.Services, *sql.DB, *middleware.Validator) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	svc := service.New(conn, service.Options{TokenSalt: testutil.TestTokenSalt, BackupDir: t.TempDir()})
	return svc, conn, middleware.NewValidator()
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode envelope: %v. Body: %s", err, w.Body.String())
	}
	if env.Success == (env.ErrorMessage != nil) {
		t.Fatalf("Envelope violates exclusivity: %s", w.Body.String())
	}
	return env
}

func TestCreateAndFetchCard(t *testing.T) {
	svc, conn, v := setup(t)
	h := NewCardHandler(svc.Cards, v)
	userID := testutil.CreateTestUser(t, conn, "alice", "secret1", models.RoleClient)

	req := testutil.MakeRequest("POST", "/api/cards", models.CreateCardRequest{UserID: userID, CardNumber: "C-100"}, nil)
	w := httptest.NewRecorder()
	h.CreateCard(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)
	created := decode[models.Card](t, w)
	if created.Data == nil || created.Data.ID == 0 {
		t.Fatalf("Expected card in response, got %s", w.Body.String())
	}
	if created.Data.CardNumber != "C-100" || created.Data.Points != 0 || created.Data.Status != models.CardActive {
		t.Errorf("Unexpected card: %+v", *created.Data)
	}

	req = testutil.MakeRequest("GET", "/api/cards/number/C-100", nil, nil)
	req.SetPathValue("value", "C-100")
	w = httptest.NewRecorder()
	h.GetCardByNumber(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	fetched := decode[models.Card](t, w)
	if fetched.Data.ID != created.Data.ID {
		t.Errorf("Expected card %d, got %d", created.Data.ID, fetched.Data.ID)
	}
}

func TestCreateCardValidation(t *testing.T) {
	svc, conn, v := setup(t)
	h := NewCardHandler(svc.Cards, v)
	userID := testutil.CreateTestUser(t, conn, "alice", "secret1", models.RoleClient)
	testutil.CreateTestCard(t, conn, userID, "C-1", 0)

	testCases := []struct {
		name   string
		body   any
		status int
	}{
		{"missing card number", models.CreateCardRequest{UserID: userID}, http.StatusBadRequest},
		{"missing user", models.CreateCardRequest{CardNumber: "C-2"}, http.StatusBadRequest},
		{"unknown user", models.CreateCardRequest{UserID: 999, CardNumber: "C-2"}, http.StatusBadRequest},
		{"duplicate number", models.CreateCardRequest{UserID: userID, CardNumber: "C-1"}, http.StatusBadRequest},
		{"malformed body", "not an object", http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.CreateCard(w, testutil.MakeRequest("POST", "/api/cards", tc.body, nil))

			testutil.AssertStatus(t, w, tc.status)
			env := decode[models.Card](t, w)
			if env.Success || env.Data != nil {
				t.Errorf("Expected failure without data, got %s", w.Body.String())
			}
		})
	}
}

func TestGetCardNotFound(t *testing.T) {
	svc, _, v := setup(t)
	h := NewCardHandler(svc.Cards, v)

	req := testutil.MakeRequest("GET", "/api/cards/999999", nil, nil)
	req.SetPathValue("id", "999999")
	w := httptest.NewRecorder()
	h.GetCard(w, req)

	testutil.AssertStatus(t, w, http.StatusNotFound)
	env := decode[models.Card](t, w)
	if *env.ErrorMessage == "" {
		t.Error("Expected a displayable error message")
	}
}

func TestInvalidPathID(t *testing.T) {
	svc, _, v := setup(t)
	h := NewCardHandler(svc.Cards, v)

	for _, id := range []string{"abc", "0", "-3"} {
		req := testutil.MakeRequest("GET", "/api/cards/"+id, nil, nil)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		h.GetCard(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	}
}

func TestChangePoints(t *testing.T) {
	svc, conn, v := setup(t)
	h := NewCardHandler(svc.Cards, v)
	userID := testutil.CreateTestUser(t, conn, "alice", "secret1", models.RoleClient)
	cardID := testutil.CreateTestCard(t, conn, userID, "C-1", 50)

	id := strconv.FormatInt(cardID, 10)

	call := func(fn http.HandlerFunc, points int64) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/api/cards/"+id, models.PointsRequest{Points: points, Reason: "test"}, nil)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		fn(w, req)
		return w
	}

	w := call(h.AddPoints, 25)
	testutil.AssertStatus(t, w, http.StatusOK)
	if card := decode[models.Card](t, w); card.Data.Points != 75 {
		t.Errorf("Expected 75 points, got %d", card.Data.Points)
	}

	w = call(h.DeductPoints, 999999)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = call(h.DeductPoints, 75)
	testutil.AssertStatus(t, w, http.StatusOK)
	if card := decode[models.Card](t, w); card.Data.Points != 0 {
		t.Errorf("Expected 0 points, got %d", card.Data.Points)
	}

	w = call(h.AddPoints, 0)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestBlockedCardRejectsPoints(t *testing.T) {
	svc, conn, v := setup(t)
	h := NewCardHandler(svc.Cards, v)
	userID := testutil.CreateTestUser(t, conn, "alice", "secret1", models.RoleClient)
	cardID := testutil.CreateTestCard(t, conn, userID, "C-1", 10)
	id := strconv.FormatInt(cardID, 10)

	req := testutil.MakeRequest("POST", "/api/cards/"+id+"/block", nil, nil)
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	h.BlockCard(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)
	if card := decode[models.Card](t, w); card.Data.ID != cardID || card.Data.Status != models.CardBlocked {
		t.Errorf("Expected blocked card, got %s", w.Body.String())
	}

	req = testutil.MakeRequest("POST", "/api/cards/"+id+"/add", models.PointsRequest{Points: 5}, nil)
	req.SetPathValue("id", id)
	w = httptest.NewRecorder()
	h.AddPoints(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestDeleteCard(t *testing.T) {
	svc, conn, v := setup(t)
	h := NewCardHandler(svc.Cards, v)
	userID := testutil.CreateTestUser(t, conn, "alice", "secret1", models.RoleClient)
	cardID := testutil.CreateTestCard(t, conn, userID, "C-1", 10)
	id := strconv.FormatInt(cardID, 10)

	req := testutil.MakeRequest("DELETE", "/api/cards/"+id, nil, nil)
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	h.DeleteCard(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	if env := decode[models.DeleteResponse](t, w); env.Data.Deleted != cardID {
		t.Errorf("Expected deleted %d, got %d", cardID, env.Data.Deleted)
	}

	w = httptest.NewRecorder()
	h.DeleteCard(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestLogin(t *testing.T) {
	svc, conn, v := setup(t)
	h := NewAuthHandler(svc.Auth, v)
	testutil.CreateTestUser(t, conn, "admin", "hunter22", models.RoleAdmin)

	testCases := []struct {
		name   string
		body   models.LoginRequest
		status int
	}{
		{"valid credentials", models.LoginRequest{Username: "admin", Password: "hunter22"}, http.StatusOK},
		{"wrong password", models.LoginRequest{Username: "admin", Password: "nope"}, http.StatusUnauthorized},
		{"unknown user", models.LoginRequest{Username: "ghost", Password: "hunter22"}, http.StatusUnauthorized},
		{"missing password", models.LoginRequest{Username: "admin"}, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Login(w, testutil.MakeRequest("POST", "/api/auth/login", tc.body, nil))
			testutil.AssertStatus(t, w, tc.status)

			env := decode[models.LoginResponse](t, w)
			if tc.status == http.StatusOK && env.Data.Token == "" {
				t.Error("Expected a token")
			}
		})
	}
}

func TestLoginMeLogout(t *testing.T) {
	svc, conn, v := setup(t)
	h := NewAuthHandler(svc.Auth, v)
	testutil.CreateTestUser(t, conn, "admin", "hunter22", models.RoleAdmin)

	w := httptest.NewRecorder()
	h.Login(w, testutil.MakeRequest("POST", "/api/auth/login", models.LoginRequest{Username: "admin", Password: "hunter22"}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	token := decode[models.LoginResponse](t, w).Data.Token
	bearer := map[string]string{"Authorization": "Bearer " + token}

	w = httptest.NewRecorder()
	h.Me(w, testutil.MakeRequest("GET", "/api/auth/me", nil, bearer))
	testutil.AssertStatus(t, w, http.StatusOK)
	if me := decode[models.User](t, w); me.Data.Username != "admin" {
		t.Errorf("Expected admin, got %q", me.Data.Username)
	}

	w = httptest.NewRecorder()
	h.Logout(w, testutil.MakeRequest("POST", "/api/auth/logout", nil, bearer))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = httptest.NewRecorder()
	h.Me(w, testutil.MakeRequest("GET", "/api/auth/me", nil, bearer))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestUserLifecycle(t *testing.T) {
	svc, _, v := setup(t)
	h := NewUserHandler(svc.Users, v)

	w := httptest.NewRecorder()
	h.CreateUser(w, testutil.MakeRequest("POST", "/api/users", models.CreateUserRequest{
		Username: "bob", Password: "secret1", Email: "bob@example.com",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)
	if w.Body.String() == "" || containsHash(w.Body.String()) {
		t.Errorf("Password hash leaked: %s", w.Body.String())
	}

	req := testutil.MakeRequest("GET", "/api/users/username/bob", nil, nil)
	req.SetPathValue("value", "bob")
	w = httptest.NewRecorder()
	h.GetUserByUsername(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)
	u := decode[models.User](t, w)
	if u.Data.Role != models.RoleClient {
		t.Errorf("Expected default role client, got %q", u.Data.Role)
	}

	w = httptest.NewRecorder()
	h.CreateUser(w, testutil.MakeRequest("POST", "/api/users", models.CreateUserRequest{Username: "bob", Password: "secret1"}, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = httptest.NewRecorder()
	h.CreateUser(w, testutil.MakeRequest("POST", "/api/users", models.CreateUserRequest{Username: "carol", Password: "secret1", Email: "not-an-email"}, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func containsHash(body string) bool {
	var raw map[string]map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return false
	}
	for k := range raw["data"] {
		if k == "passwordHash" || k == "PasswordHash" {
			return true
		}
	}
	return false
}

func TestAuditPeriodQuery(t *testing.T) {
	svc, conn, v := setup(t)
	cards := NewCardHandler(svc.Cards, v)
	h := NewAuditHandler(svc.Audit)
	userID := testutil.CreateTestUser(t, conn, "alice", "secret1", models.RoleClient)

	w := httptest.NewRecorder()
	cards.CreateCard(w, testutil.MakeRequest("POST", "/api/cards", models.CreateCardRequest{UserID: userID, CardNumber: "C-1"}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	testCases := []struct {
		name    string
		path    string
		status  int
		entries int
	}{
		{"no bounds", "/api/audit", http.StatusOK, 1},
		{"encoded local bounds", "/api/audit?from=2024-01-01T00%3A00%3A00&to=2999-01-01T00%3A00%3A00", http.StatusOK, 1},
		{"rfc3339 bounds", "/api/audit?from=2024-01-01T00%3A00%3A00Z", http.StatusOK, 1},
		{"date bounds", "/api/audit?from=2024-01-01&to=2024-12-31", http.StatusOK, 0},
		{"malformed bound", "/api/audit?from=yesterday", http.StatusBadRequest, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ListAudit(w, testutil.MakeRequest("GET", tc.path, nil, nil))

			testutil.AssertStatus(t, w, tc.status)
			if tc.status != http.StatusOK {
				return
			}
			env := decode[[]models.AuditEntry](t, w)
			if len(*env.Data) != tc.entries {
				t.Errorf("Expected %d entries, got %d", tc.entries, len(*env.Data))
			}
		})
	}
}

func TestPointsReportRequiresPeriod(t *testing.T) {
	svc, _, _ := setup(t)
	h := NewReportHandler(svc.Reports, svc.Statistics)

	w := httptest.NewRecorder()
	h.PointsReport(w, testutil.MakeRequest("GET", "/api/reports/points?from=2024-01-01", nil, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = httptest.NewRecorder()
	h.PointsReport(w, testutil.MakeRequest("GET", "/api/reports/points?from=2024-01-01&to=2024-02-01", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = httptest.NewRecorder()
	h.Statistics(w, testutil.MakeRequest("GET", "/api/statistics", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestScheduleDay(t *testing.T) {
	svc, _, v := setup(t)
	h := NewScheduleHandler(svc.Schedule, v)

	testCases := []struct {
		name   string
		day    string
		body   models.ScheduleRequest
		status int
	}{
		{"open day", "1", models.ScheduleRequest{OpensAt: "10:00", ClosesAt: "22:00"}, http.StatusOK},
		{"closed day", "0", models.ScheduleRequest{Closed: true}, http.StatusOK},
		{"same open and close", "2", models.ScheduleRequest{OpensAt: "10:00", ClosesAt: "10:00"}, http.StatusBadRequest},
		{"bad time", "3", models.ScheduleRequest{OpensAt: "25:00", ClosesAt: "22:00"}, http.StatusBadRequest},
		{"day out of range", "7", models.ScheduleRequest{Closed: true}, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest("PUT", "/api/schedule/"+tc.day, tc.body, nil)
			req.SetPathValue("day", tc.day)
			w := httptest.NewRecorder()
			h.PutScheduleDay(w, req)
			testutil.AssertStatus(t, w, tc.status)
		})
	}

	w := httptest.NewRecorder()
	h.ListSchedule(w, testutil.MakeRequest("GET", "/api/schedule", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	env := decode[[]models.ScheduleDay](t, w)
	if len(*env.Data) != 7 {
		t.Fatalf("Expected 7 days, got %d", len(*env.Data))
	}
	if monday := (*env.Data)[1]; monday.Closed || monday.OpensAt != "10:00" {
		t.Errorf("Unexpected monday: %+v", monday)
	}
}

func TestSettingValidation(t *testing.T) {
	svc, _, v := setup(t)
	h := NewSettingHandler(svc.Settings, v)

	put := func(value string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("PUT", "/api/settings/points_per_hour", models.SettingRequest{Value: value}, nil)
		req.SetPathValue("key", models.SettingPointsPerHour)
		w := httptest.NewRecorder()
		h.PutSetting(w, req)
		return w
	}

	testutil.AssertStatus(t, put("12"), http.StatusOK)
	testutil.AssertStatus(t, put("lots"), http.StatusBadRequest)
	testutil.AssertStatus(t, put(""), http.StatusBadRequest)

	req := testutil.MakeRequest("GET", "/api/settings/points_per_hour", nil, nil)
	req.SetPathValue("key", models.SettingPointsPerHour)
	w := httptest.NewRecorder()
	h.GetSetting(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)
	if s := decode[models.Setting](t, w); s.Data.Value != "12" {
		t.Errorf("Expected 12, got %q", s.Data.Value)
	}
}
