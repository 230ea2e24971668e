// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/clubcard/models"
	"github.com/danielhkuo/clubcard/testutil"
)

func setup(t *testing.T) (*Services, *sql.DB) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	return New(conn, Options{TokenSalt: testutil.TestTokenSalt, BackupDir: t.TempDir()}), conn
}

func TestErrorKinds(t *testing.T) {
	err := NotFound("card %d not found", 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "card 7 not found", err.Error())

	assert.ErrorIs(t, InvalidArgument("bad"), ErrInvalidArgument)
	assert.ErrorIs(t, Unauthorized("no"), ErrUnauthorized)
}

func TestActor(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "system", ActorFrom(ctx))
	assert.Equal(t, "alice", ActorFrom(WithActor(ctx, "alice")))
}

func TestUsers_CreateDuplicateAndDelete(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()

	u, err := svc.Users.Create(ctx, models.CreateUserRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleClient, u.Role)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	_, err = svc.Users.Create(ctx, models.CreateUserRequest{Username: "alice", Password: "secret2"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	testutil.CreateTestCard(t, conn, u.ID, "C-1", 0)
	assert.ErrorIs(t, svc.Users.Delete(ctx, u.ID), ErrInvalidArgument)

	assert.ErrorIs(t, svc.Users.Delete(ctx, 9999), ErrNotFound)
}

func TestUsers_EnsureAdmin(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	created, err := svc.Users.EnsureAdmin(ctx, "admin", "changeme")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Users.EnsureAdmin(ctx, "admin", "changeme")
	require.NoError(t, err)
	assert.False(t, created)

	u, err := svc.Users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestAuth_LoginVerifyLogout(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()
	testutil.CreateTestUser(t, conn, "operator", "pa55word", models.RoleOperator)

	_, err := svc.Auth.Login(ctx, "operator", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Auth.Login(ctx, "nobody", "pa55word")
	assert.ErrorIs(t, err, ErrUnauthorized)

	resp, err := svc.Auth.Login(ctx, "operator", "pa55word")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "operator", resp.User.Username)

	u, err := svc.Auth.Verify(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, u.ID)

	require.NoError(t, svc.Auth.Logout(ctx, resp.Token))
	_, err = svc.Auth.Verify(ctx, resp.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCards_CreateAndGet(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()
	userID := testutil.CreateTestUser(t, conn, "bob", "secret1", models.RoleClient)

	card, err := svc.Cards.Create(ctx, models.CreateCardRequest{UserID: userID, CardNumber: "C-100"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), card.Points)
	assert.Equal(t, models.CardActive, card.Status)

	got, err := svc.Cards.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, card.CardNumber, got.CardNumber)
	assert.Equal(t, userID, got.UserID)
	assert.True(t, card.CreatedAt.Equal(got.CreatedAt))

	byNumber, err := svc.Cards.GetByNumber(ctx, "C-100")
	require.NoError(t, err)
	assert.Equal(t, card.ID, byNumber.ID)

	_, err = svc.Cards.Create(ctx, models.CreateCardRequest{UserID: userID, CardNumber: "C-100"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Cards.Create(ctx, models.CreateCardRequest{UserID: 4242, CardNumber: "C-101"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Cards.Get(ctx, 999999)
	assert.ErrorIs(t, err, ErrNotFound)

	cards, err := svc.Cards.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, cards, 1)
}

func TestCards_PointsAndTiers(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()
	userID := testutil.CreateTestUser(t, conn, "carol", "secret1", models.RoleClient)

	bronze, err := svc.Tiers.Create(ctx, models.TierRequest{Name: "Bronze", MinPoints: 0})
	require.NoError(t, err)
	silver, err := svc.Tiers.Create(ctx, models.TierRequest{Name: "Silver", MinPoints: 100, DiscountPercent: 5})
	require.NoError(t, err)

	card, err := svc.Cards.Create(ctx, models.CreateCardRequest{UserID: userID, CardNumber: "C-200"})
	require.NoError(t, err)
	require.NotNil(t, card.TierID)
	assert.Equal(t, bronze.ID, *card.TierID)

	card, err = svc.Cards.AddPoints(ctx, card.ID, models.PointsRequest{Points: 150, Reason: "welcome"})
	require.NoError(t, err)
	assert.Equal(t, int64(150), card.Points)
	require.NotNil(t, card.TierID)
	assert.Equal(t, silver.ID, *card.TierID)

	card, err = svc.Cards.DeductPoints(ctx, card.ID, models.PointsRequest{Points: 60})
	require.NoError(t, err)
	assert.Equal(t, int64(90), card.Points)
	assert.Equal(t, bronze.ID, *card.TierID)

	_, err = svc.Cards.DeductPoints(ctx, card.ID, models.PointsRequest{Points: 999999})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	got, err := svc.Cards.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(90), got.Points)

	txs, err := svc.Cards.Transactions(ctx, card.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, int64(-60), txs[0].Delta)
	assert.Equal(t, int64(90), txs[0].BalanceAfter)
	assert.Equal(t, int64(150), txs[1].Delta)
}

func TestCards_LedgerFollowsBalance(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()
	userID := testutil.CreateTestUser(t, conn, "erin", "secret1", models.RoleClient)
	cardID := testutil.CreateTestCard(t, conn, userID, "C-300", 100)

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Cards.AddPoints(ctx, cardID, models.PointsRequest{Points: 10})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	card, err := svc.Cards.Get(ctx, cardID)
	require.NoError(t, err)
	assert.Equal(t, int64(100+workers*10), card.Points)

	// Each ledger row records the balance its own change produced
	txs, err := svc.Cards.Transactions(ctx, cardID)
	require.NoError(t, err)
	require.Len(t, txs, workers)
	seen := map[int64]bool{}
	for _, pt := range txs {
		assert.False(t, seen[pt.BalanceAfter], "balance %d recorded twice", pt.BalanceAfter)
		seen[pt.BalanceAfter] = true
	}
	assert.True(t, seen[card.Points])
}

func TestCards_BlockedCardRejectsChanges(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()
	userID := testutil.CreateTestUser(t, conn, "dave", "secret1", models.RoleClient)
	cardID := testutil.CreateTestCard(t, conn, userID, "C-300", 10)

	card, err := svc.Cards.SetStatus(ctx, cardID, models.CardBlocked)
	require.NoError(t, err)
	assert.Equal(t, models.CardBlocked, card.Status)

	_, err = svc.Cards.AddPoints(ctx, cardID, models.PointsRequest{Points: 5})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Sessions.Start(ctx, models.StartSessionRequest{CardID: cardID, Station: "PC-1"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Cards.SetStatus(ctx, cardID, models.CardActive)
	require.NoError(t, err)
	_, err = svc.Cards.AddPoints(ctx, cardID, models.PointsRequest{Points: 5})
	assert.NoError(t, err)
}

func TestCards_Delete(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()
	userID := testutil.CreateTestUser(t, conn, "erin", "secret1", models.RoleClient)
	cardID := testutil.CreateTestCard(t, conn, userID, "C-400", 0)

	_, err := svc.Cards.AddPoints(ctx, cardID, models.PointsRequest{Points: 5})
	require.NoError(t, err)

	require.NoError(t, svc.Cards.Delete(ctx, cardID))
	assert.ErrorIs(t, svc.Cards.Delete(ctx, cardID), ErrNotFound)
}

func TestTiers_DuplicateNameAndReassign(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()
	userID := testutil.CreateTestUser(t, conn, "fay", "secret1", models.RoleClient)
	cardID := testutil.CreateTestCard(t, conn, userID, "C-500", 500)

	gold, err := svc.Tiers.Create(ctx, models.TierRequest{Name: "Gold", MinPoints: 300})
	require.NoError(t, err)

	card, err := svc.Cards.Get(ctx, cardID)
	require.NoError(t, err)
	require.NotNil(t, card.TierID)
	assert.Equal(t, gold.ID, *card.TierID)

	_, err = svc.Tiers.Create(ctx, models.TierRequest{Name: "Gold", MinPoints: 1})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, svc.Tiers.Delete(ctx, gold.ID))
	card, err = svc.Cards.Get(ctx, cardID)
	require.NoError(t, err)
	assert.Nil(t, card.TierID)

	tiers, err := svc.Tiers.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tiers)
}

func TestSettings_SetAndGet(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Settings.Get(ctx, "club_name")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Settings.Set(ctx, "club_name", "Pixel")
	require.NoError(t, err)
	_, err = svc.Settings.Set(ctx, "club_name", "Pixel Arena")
	require.NoError(t, err)

	st, err := svc.Settings.Get(ctx, "club_name")
	require.NoError(t, err)
	assert.Equal(t, "Pixel Arena", st.Value)

	_, err = svc.Settings.Set(ctx, models.SettingPointsPerHour, "lots")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	all, err := svc.Settings.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAudit_RecordsActorAndPeriod(t *testing.T) {
	svc, conn := setup(t)
	ctx := WithActor(context.Background(), "manager")
	userID := testutil.CreateTestUser(t, conn, "gus", "secret1", models.RoleClient)

	_, err := svc.Cards.Create(ctx, models.CreateCardRequest{UserID: userID, CardNumber: "C-600"})
	require.NoError(t, err)

	entries, err := svc.Audit.List(ctx, nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "manager", entries[0].Actor)
	assert.Equal(t, "card", entries[0].Entity)

	got, err := svc.Audit.Get(ctx, entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "create", got.Action)

	past := time.Now().Add(-48 * time.Hour)
	yesterday := time.Now().Add(-24 * time.Hour)
	entries, err = svc.Audit.List(ctx, &past, &yesterday)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.Audit.List(ctx, &yesterday, &past)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestReports_PointsByDay(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()
	userID := testutil.CreateTestUser(t, conn, "hal", "secret1", models.RoleClient)
	cardID := testutil.CreateTestCard(t, conn, userID, "C-700", 0)

	_, err := svc.Cards.AddPoints(ctx, cardID, models.PointsRequest{Points: 100})
	require.NoError(t, err)
	_, err = svc.Cards.DeductPoints(ctx, cardID, models.PointsRequest{Points: 30})
	require.NoError(t, err)

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	report, err := svc.Reports.PointsByDay(ctx, from, to)
	require.NoError(t, err)
	require.NotEmpty(t, report)

	var added, deducted int64
	for _, row := range report {
		added += row.Added
		deducted += row.Deducted
	}
	assert.Equal(t, int64(100), added)
	assert.Equal(t, int64(30), deducted)

	_, err = svc.Reports.PointsByDay(ctx, to, from)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStatistics(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()
	userID := testutil.CreateTestUser(t, conn, "ivy", "secret1", models.RoleClient)
	testutil.CreateTestCard(t, conn, userID, "C-800", 40)
	blocked := testutil.CreateTestCard(t, conn, userID, "C-801", 2)
	_, err := svc.Cards.SetStatus(ctx, blocked, models.CardBlocked)
	require.NoError(t, err)

	st, err := svc.Statistics.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Statistics{Users: 1, Cards: 2, BlockedCards: 1, TotalPoints: 42}, st)
}

func TestSchedule(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	days, err := svc.Schedule.List(ctx)
	require.NoError(t, err)
	require.Len(t, days, 7)
	for _, d := range days {
		assert.True(t, d.Closed)
	}

	d, err := svc.Schedule.Set(ctx, 1, models.ScheduleRequest{OpensAt: "10:00", ClosesAt: "02:00"})
	require.NoError(t, err)
	assert.False(t, d.Closed)

	days, err = svc.Schedule.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleDay{Day: 1, OpensAt: "10:00", ClosesAt: "02:00"}, days[1])

	_, err = svc.Schedule.Set(ctx, 7, models.ScheduleRequest{Closed: true})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.Schedule.Set(ctx, 2, models.ScheduleRequest{OpensAt: "25:00", ClosesAt: "10:00"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
