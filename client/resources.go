// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/danielhkuo/clubcard/models"
)

func idPath(prefix string, id int64, suffix ...string) string {
	p := prefix + "/" + strconv.FormatInt(id, 10)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// Health resolves to nil when GET /health answers 200.
func (c *Client) Health(ctx context.Context) *Future[struct{}] {
	return async(ctx, c, func(ctx context.Context) (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String()+"/health", nil)
		if err != nil {
			return struct{}{}, &Error{Kind: KindNetwork, Msg: err.Error(), Err: err}
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return struct{}{}, networkError(err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if resp.StatusCode != http.StatusOK {
			return struct{}{}, &Error{Kind: KindHTTP, Status: resp.StatusCode, Msg: fmt.Sprintf("server returned %s", resp.Status)}
		}
		return struct{}{}, nil
	})
}

// Auth

// Login stores the returned token on the client for later calls.
func (c *Client) Login(ctx context.Context, username, password string) *Future[models.LoginResponse] {
	return async(ctx, c, func(ctx context.Context) (models.LoginResponse, error) {
		resp, err := call[models.LoginResponse](ctx, c, http.MethodPost, "/api/auth/login",
			models.LoginRequest{Username: username, Password: password})
		if err == nil {
			c.SetToken(resp.Token)
		}
		return resp, err
	})
}

func (c *Client) Logout(ctx context.Context) *Future[models.LogoutResponse] {
	return async(ctx, c, func(ctx context.Context) (models.LogoutResponse, error) {
		resp, err := call[models.LogoutResponse](ctx, c, http.MethodPost, "/api/auth/logout", nil)
		if err == nil {
			c.SetToken("")
		}
		return resp, err
	})
}

func (c *Client) Me(ctx context.Context) *Future[models.User] {
	return Go[models.User](ctx, c, http.MethodGet, "/api/auth/me", nil)
}

// Users

func (c *Client) ListUsers(ctx context.Context) *Future[[]models.User] {
	return Go[[]models.User](ctx, c, http.MethodGet, "/api/users", nil)
}

func (c *Client) GetUserByUsername(ctx context.Context, username string) *Future[models.User] {
	return Go[models.User](ctx, c, http.MethodGet, "/api/users/username/"+url.PathEscape(username), nil)
}

func (c *Client) CreateUser(ctx context.Context, req models.CreateUserRequest) *Future[models.User] {
	return Go[models.User](ctx, c, http.MethodPost, "/api/users", req)
}

// Tiers

func (c *Client) ListTiers(ctx context.Context) *Future[[]models.Tier] {
	return Go[[]models.Tier](ctx, c, http.MethodGet, "/api/tiers", nil)
}

// Cards

func (c *Client) ListCards(ctx context.Context) *Future[[]models.Card] {
	return Go[[]models.Card](ctx, c, http.MethodGet, "/api/cards", nil)
}

func (c *Client) GetCard(ctx context.Context, id int64) *Future[models.Card] {
	return Go[models.Card](ctx, c, http.MethodGet, idPath("/api/cards", id), nil)
}

func (c *Client) GetCardByNumber(ctx context.Context, number string) *Future[models.Card] {
	return Go[models.Card](ctx, c, http.MethodGet, "/api/cards/number/"+url.PathEscape(number), nil)
}

func (c *Client) CreateCard(ctx context.Context, req models.CreateCardRequest) *Future[models.Card] {
	return Go[models.Card](ctx, c, http.MethodPost, "/api/cards", req)
}

func (c *Client) AddPoints(ctx context.Context, id int64, req models.PointsRequest) *Future[models.Card] {
	return Go[models.Card](ctx, c, http.MethodPost, idPath("/api/cards", id, "add"), req)
}

func (c *Client) DeductPoints(ctx context.Context, id int64, req models.PointsRequest) *Future[models.Card] {
	return Go[models.Card](ctx, c, http.MethodPost, idPath("/api/cards", id, "deduct"), req)
}

func (c *Client) BlockCard(ctx context.Context, id int64) *Future[models.Card] {
	return Go[models.Card](ctx, c, http.MethodPost, idPath("/api/cards", id, "block"), nil)
}

func (c *Client) UnblockCard(ctx context.Context, id int64) *Future[models.Card] {
	return Go[models.Card](ctx, c, http.MethodPost, idPath("/api/cards", id, "unblock"), nil)
}

func (c *Client) CardTransactions(ctx context.Context, id int64) *Future[[]models.PointTransaction] {
	return Go[[]models.PointTransaction](ctx, c, http.MethodGet, idPath("/api/cards", id, "transactions"), nil)
}

// Sessions

func (c *Client) ListSessions(ctx context.Context, activeOnly bool) *Future[[]models.Session] {
	path := "/api/sessions"
	if activeOnly {
		path += "?active=true"
	}
	return Go[[]models.Session](ctx, c, http.MethodGet, path, nil)
}

func (c *Client) StartSession(ctx context.Context, req models.StartSessionRequest) *Future[models.Session] {
	return Go[models.Session](ctx, c, http.MethodPost, "/api/sessions", req)
}

func (c *Client) FinishSession(ctx context.Context, id int64) *Future[models.Session] {
	return Go[models.Session](ctx, c, http.MethodPost, idPath("/api/sessions", id, "finish"), nil)
}

// Promo codes

func (c *Client) RedeemPromoCode(ctx context.Context, req models.RedeemPromoCodeRequest) *Future[models.RedeemPromoCodeResponse] {
	return Go[models.RedeemPromoCodeResponse](ctx, c, http.MethodPost, "/api/promocodes/redeem", req)
}

// Settings

func (c *Client) ListSettings(ctx context.Context) *Future[[]models.Setting] {
	return Go[[]models.Setting](ctx, c, http.MethodGet, "/api/settings", nil)
}

func (c *Client) PutSetting(ctx context.Context, key, value string) *Future[models.Setting] {
	return Go[models.Setting](ctx, c, http.MethodPut, "/api/settings/"+url.PathEscape(key), models.SettingRequest{Value: value})
}

// Audit and statistics

// ListAudit filters by period; a zero bound is left open.
func (c *Client) ListAudit(ctx context.Context, from, to time.Time) *Future[[]models.AuditEntry] {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.UTC().Format(time.RFC3339))
	}
	if !to.IsZero() {
		q.Set("to", to.UTC().Format(time.RFC3339))
	}
	path := "/api/audit"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return Go[[]models.AuditEntry](ctx, c, http.MethodGet, path, nil)
}

func (c *Client) Statistics(ctx context.Context) *Future[models.Statistics] {
	return Go[models.Statistics](ctx, c, http.MethodGet, "/api/statistics", nil)
}

func (c *Client) CreateBackup(ctx context.Context) *Future[models.Backup] {
	return Go[models.Backup](ctx, c, http.MethodPost, "/api/backup", nil)
}
