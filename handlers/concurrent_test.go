// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/clubcard/models"
	"github.com/danielhkuo/clubcard/testutil"
)

// TestConcurrentPointChanges verifies that simultaneous credits and debits on
// one card never lose an update or drive the balance negative
func TestConcurrentPointChanges(t *testing.T) {
	svc, conn, v := setup(t)
	h := NewCardHandler(svc.Cards, v)
	userID := testutil.CreateTestUser(t, conn, "alice", "secret1", models.RoleClient)
	cardID := testutil.CreateTestCard(t, conn, userID, "C-1", 0)
	id := strconv.FormatInt(cardID, 10)

	const workers = 10
	var wg sync.WaitGroup
	var credited, debited atomic.Int64

	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			req := testutil.MakeRequest("POST", "/api/cards/"+id+"/add", models.PointsRequest{Points: 10}, nil)
			req.SetPathValue("id", id)
			w := httptest.NewRecorder()
			h.AddPoints(w, req)
			if w.Code == http.StatusOK {
				credited.Add(10)
			}
		}()
		go func() {
			defer wg.Done()
			req := testutil.MakeRequest("POST", "/api/cards/"+id+"/deduct", models.PointsRequest{Points: 5}, nil)
			req.SetPathValue("id", id)
			w := httptest.NewRecorder()
			h.DeductPoints(w, req)
			switch w.Code {
			case http.StatusOK:
				debited.Add(5)
			case http.StatusBadRequest:
				// balance was too low at that moment
			default:
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}()
	}
	wg.Wait()

	if credited.Load() != workers*10 {
		t.Errorf("Expected every credit to succeed, got %d", credited.Load())
	}

	card, err := svc.Cards.Get(t.Context(), cardID)
	if err != nil {
		t.Fatalf("Failed to load card: %v", err)
	}
	if want := credited.Load() - debited.Load(); card.Points != want {
		t.Errorf("Expected balance %d, got %d", want, card.Points)
	}

	txs, err := svc.Cards.Transactions(t.Context(), cardID)
	if err != nil {
		t.Fatalf("Failed to load transactions: %v", err)
	}
	if want := workers + int(debited.Load()/5); len(txs) != want {
		t.Errorf("Expected %d transactions, got %d", want, len(txs))
	}
}

// TestConcurrentSessionStart verifies a card never gets two active sessions
func TestConcurrentSessionStart(t *testing.T) {
	svc, conn, v := setup(t)
	h := NewSessionHandler(svc.Sessions, v)
	userID := testutil.CreateTestUser(t, conn, "alice", "secret1", models.RoleClient)
	cardID := testutil.CreateTestCard(t, conn, userID, "C-1", 0)

	const attempts = 8
	var wg sync.WaitGroup
	var started atomic.Int32

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := testutil.MakeRequest("POST", "/api/sessions", models.StartSessionRequest{
				CardID:  cardID,
				Station: "PC-" + strconv.Itoa(i),
			}, nil)
			w := httptest.NewRecorder()
			h.StartSession(w, req)
			if w.Code == http.StatusCreated {
				started.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if started.Load() != 1 {
		t.Errorf("Expected exactly one session to start, got %d", started.Load())
	}
}
