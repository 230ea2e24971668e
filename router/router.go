// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/danielhkuo/clubcard/cliparse"
	"github.com/danielhkuo/clubcard/handlers"
	"github.com/danielhkuo/clubcard/middleware"
	"github.com/danielhkuo/clubcard/service"
	"github.com/danielhkuo/clubcard/workpool"
)

// Path parameter patterns
const (
	id    = `(?P<id>\d+)`
	value = `(?P<value>[^/]+)`
)

// loginBurst is how many login attempts a client may make back to back.
const loginBurst = 5

// NewRouter builds the dispatcher with every API route and wraps it in the
// request middleware chain.
func NewRouter(db *sql.DB, cfg cliparse.Config, pool *workpool.Pool) http.Handler {
	svc := service.New(db, service.Options{TokenSalt: cfg.TokenSalt, BackupDir: cfg.BackupDir})
	v := middleware.NewValidator()
	metrics := middleware.NewMetrics()

	d := NewDispatcher(pool,
		WithExposeErrors(cfg.ExposeErrors),
		WithObserver(func(route, method string, status int, elapsed time.Duration) {
			metrics.Observe(route, method, status, elapsed)
			metrics.SetInFlight(int64(pool.InFlight()))
		}),
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Auth, v)
	userHandler := handlers.NewUserHandler(svc.Users, v)
	tierHandler := handlers.NewTierHandler(svc.Tiers, v)
	cardHandler := handlers.NewCardHandler(svc.Cards, v)
	sessionHandler := handlers.NewSessionHandler(svc.Sessions, v)
	promotionHandler := handlers.NewPromotionHandler(svc.Promotions, v)
	promoCodeHandler := handlers.NewPromoCodeHandler(svc.PromoCodes, v)
	settingHandler := handlers.NewSettingHandler(svc.Settings, v)
	auditHandler := handlers.NewAuditHandler(svc.Audit)
	reportHandler := handlers.NewReportHandler(svc.Reports, svc.Statistics)
	scheduleHandler := handlers.NewScheduleHandler(svc.Schedule, v)
	backupHandler := handlers.NewBackupHandler(svc.Backup)

	// Health check and metrics
	d.Handle("GET|HEAD", `/health`, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	d.Handle("GET", `/metrics`, metrics.Handler().ServeHTTP)

	// Authentication
	loginLimiter := middleware.NewRateLimiter(cfg.LoginRPS, loginBurst)
	d.Handle("POST", `/api/auth/login`, loginLimiter.Handler(http.HandlerFunc(authHandler.Login)).ServeHTTP)
	d.Handle("POST", `/api/auth/logout`, authHandler.Logout)
	d.Handle("GET", `/api/auth/me`, authHandler.Me)

	// Users
	d.Handle("GET", `/api/users`, userHandler.ListUsers)
	d.Handle("GET", `/api/users/username/`+value, userHandler.GetUserByUsername)
	d.Handle("GET", `/api/users/`+id, userHandler.GetUser)
	d.Handle("POST", `/api/users`, userHandler.CreateUser)
	d.Handle("PUT", `/api/users/`+id, userHandler.UpdateUser)
	d.Handle("DELETE", `/api/users/`+id, userHandler.DeleteUser)

	// Tiers
	d.Handle("GET", `/api/tiers`, tierHandler.ListTiers)
	d.Handle("GET", `/api/tiers/`+id, tierHandler.GetTier)
	d.Handle("POST", `/api/tiers`, tierHandler.CreateTier)
	d.Handle("PUT", `/api/tiers/`+id, tierHandler.UpdateTier)
	d.Handle("DELETE", `/api/tiers/`+id, tierHandler.DeleteTier)

	// Cards
	d.Handle("GET", `/api/cards`, cardHandler.ListCards)
	d.Handle("GET", `/api/cards/number/`+value, cardHandler.GetCardByNumber)
	d.Handle("GET", `/api/cards/user/(?P<userId>\d+)`, cardHandler.ListUserCards)
	d.Handle("GET", `/api/cards/`+id+`/transactions`, cardHandler.ListTransactions)
	d.Handle("GET", `/api/cards/`+id, cardHandler.GetCard)
	d.Handle("POST", `/api/cards`, cardHandler.CreateCard)
	d.Handle("POST", `/api/cards/`+id+`/add`, cardHandler.AddPoints)
	d.Handle("POST", `/api/cards/`+id+`/deduct`, cardHandler.DeductPoints)
	d.Handle("POST", `/api/cards/`+id+`/block`, cardHandler.BlockCard)
	d.Handle("POST", `/api/cards/`+id+`/unblock`, cardHandler.UnblockCard)
	d.Handle("PUT", `/api/cards/`+id, cardHandler.UpdateCard)
	d.Handle("DELETE", `/api/cards/`+id, cardHandler.DeleteCard)

	// Sessions
	d.Handle("GET", `/api/sessions`, sessionHandler.ListSessions)
	d.Handle("GET", `/api/sessions/card/(?P<cardId>\d+)`, sessionHandler.ListCardSessions)
	d.Handle("GET", `/api/sessions/`+id, sessionHandler.GetSession)
	d.Handle("POST", `/api/sessions`, sessionHandler.StartSession)
	d.Handle("POST", `/api/sessions/`+id+`/finish`, sessionHandler.FinishSession)
	d.Handle("DELETE", `/api/sessions/`+id, sessionHandler.DeleteSession)

	// Promotions
	d.Handle("GET", `/api/promotions`, promotionHandler.ListPromotions)
	d.Handle("GET", `/api/promotions/active`, promotionHandler.ListActivePromotions)
	d.Handle("GET", `/api/promotions/`+id, promotionHandler.GetPromotion)
	d.Handle("POST", `/api/promotions`, promotionHandler.CreatePromotion)
	d.Handle("PUT", `/api/promotions/`+id, promotionHandler.UpdatePromotion)
	d.Handle("DELETE", `/api/promotions/`+id, promotionHandler.DeletePromotion)

	// Promo codes
	d.Handle("GET", `/api/promocodes`, promoCodeHandler.ListPromoCodes)
	d.Handle("GET", `/api/promocodes/code/`+value, promoCodeHandler.GetPromoCodeByCode)
	d.Handle("GET", `/api/promocodes/`+id, promoCodeHandler.GetPromoCode)
	d.Handle("POST", `/api/promocodes/redeem`, promoCodeHandler.RedeemPromoCode)
	d.Handle("POST", `/api/promocodes`, promoCodeHandler.CreatePromoCode)
	d.Handle("DELETE", `/api/promocodes/`+id, promoCodeHandler.DeletePromoCode)

	// Settings
	d.Handle("GET", `/api/settings`, settingHandler.ListSettings)
	d.Handle("GET", `/api/settings/(?P<key>[A-Za-z0-9_.-]+)`, settingHandler.GetSetting)
	d.Handle("PUT", `/api/settings/(?P<key>[A-Za-z0-9_.-]+)`, settingHandler.PutSetting)

	// Audit, reports, statistics
	d.Handle("GET", `/api/audit`, auditHandler.ListAudit)
	d.Handle("GET", `/api/audit/`+id, auditHandler.GetAuditEntry)
	d.Handle("GET", `/api/reports/points`, reportHandler.PointsReport)
	d.Handle("GET", `/api/statistics`, reportHandler.Statistics)

	// Opening hours
	d.Handle("GET", `/api/schedule`, scheduleHandler.ListSchedule)
	d.Handle("PUT", `/api/schedule/(?P<day>[0-6])`, scheduleHandler.PutScheduleDay)

	// Backups
	d.Handle("GET", `/api/backup`, backupHandler.ListBackups)
	d.Handle("POST", `/api/backup`, backupHandler.CreateBackup)

	var h http.Handler = d
	if cfg.RequireAuth {
		h = middleware.RequireToken(svc.Auth, "/api/auth/login")(h)
	}
	h = middleware.Compression(h)
	h = middleware.CORS(h)
	h = middleware.WithLogging(h)
	return chimw.RequestID(h)
}
