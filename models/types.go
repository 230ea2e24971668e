// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Card status constants
const (
	CardActive  = "active"
	CardBlocked = "blocked"
)

// User role constants
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleClient   = "client"
)

// Setting keys read by the services
const (
	SettingPointsPerHour = "points_per_hour"
)

// Request types

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"max=128"`
	Phone    string `json:"phone" validate:"max=32"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"omitempty,oneof=admin operator client"`
}

// Empty Password keeps the stored hash.
type UpdateUserRequest struct {
	FullName string `json:"fullName" validate:"max=128"`
	Phone    string `json:"phone" validate:"max=32"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"omitempty,oneof=admin operator client"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

type TierRequest struct {
	Name            string  `json:"name" validate:"required,max=64"`
	MinPoints       int64   `json:"minPoints" validate:"min=0"`
	DiscountPercent float64 `json:"discountPercent" validate:"min=0,max=100"`
}

type CreateCardRequest struct {
	UserID     int64  `json:"userId" validate:"required,gt=0"`
	CardNumber string `json:"cardNumber" validate:"required,max=32"`
}

type UpdateCardRequest struct {
	UserID     int64  `json:"userId" validate:"required,gt=0"`
	CardNumber string `json:"cardNumber" validate:"required,max=32"`
}

type PointsRequest struct {
	Points int64  `json:"points" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"max=256"`
}

type StartSessionRequest struct {
	CardID  int64  `json:"cardId" validate:"required,gt=0"`
	Station string `json:"station" validate:"required,max=32"`
}

type PromotionRequest struct {
	Name        string    `json:"name" validate:"required,max=128"`
	Description string    `json:"description" validate:"max=1024"`
	Multiplier  float64   `json:"multiplier" validate:"required,gte=1"`
	StartsAt    time.Time `json:"startsAt" validate:"required"`
	EndsAt      time.Time `json:"endsAt" validate:"required,gtfield=StartsAt"`
}

// Empty Code asks the server to generate one. MaxUses 0 means unlimited.
type CreatePromoCodeRequest struct {
	Code        string     `json:"code" validate:"omitempty,alphanum,max=32"`
	BonusPoints int64      `json:"bonusPoints" validate:"required,gt=0"`
	MaxUses     int64      `json:"maxUses" validate:"min=0"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

type RedeemPromoCodeRequest struct {
	Code   string `json:"code" validate:"required"`
	CardID int64  `json:"cardId" validate:"required,gt=0"`
}

type SettingRequest struct {
	Value string `json:"value" validate:"required,max=256"`
}

// OpensAt and ClosesAt use HH:MM and are ignored when Closed is set.
type ScheduleRequest struct {
	OpensAt  string `json:"opensAt" validate:"omitempty,len=5"`
	ClosesAt string `json:"closesAt" validate:"omitempty,len=5"`
	Closed   bool   `json:"closed"`
}

// Response types

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

type RedeemPromoCodeResponse struct {
	Card      Card      `json:"card"`
	PromoCode PromoCode `json:"promoCode"`
}

// Domain types

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	CreatedAt    time.Time `json:"createdAt"`
}

type Tier struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	MinPoints       int64   `json:"minPoints"`
	DiscountPercent float64 `json:"discountPercent"`
}

type Card struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	CardNumber string    `json:"cardNumber"`
	Points     int64     `json:"points"`
	TierID     *int64    `json:"tierId,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

type PointTransaction struct {
	ID           int64     `json:"id"`
	CardID       int64     `json:"cardId"`
	Delta        int64     `json:"delta"`
	BalanceAfter int64     `json:"balanceAfter"`
	Reason       string    `json:"reason,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Session struct {
	ID           int64      `json:"id"`
	CardID       int64      `json:"cardId"`
	Station      string     `json:"station"`
	StartedAt    time.Time  `json:"startedAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	Minutes      int64      `json:"minutes"`
	PointsEarned int64      `json:"pointsEarned"`
	Active       bool       `json:"active"`
}

type Promotion struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Multiplier  float64   `json:"multiplier"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
}

type PromoCode struct {
	ID          int64      `json:"id"`
	Code        string     `json:"code"`
	BonusPoints int64      `json:"bonusPoints"`
	MaxUses     int64      `json:"maxUses"`
	UsedCount   int64      `json:"usedCount"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type AuditEntry struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  int64     `json:"entityId"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Day is YYYY-MM-DD in UTC.
type PointsReportRow struct {
	Day      string `json:"day"`
	Added    int64  `json:"added"`
	Deducted int64  `json:"deducted"`
}

type Statistics struct {
	Users          int64 `json:"users"`
	Cards          int64 `json:"cards"`
	BlockedCards   int64 `json:"blockedCards"`
	TotalPoints    int64 `json:"totalPoints"`
	Sessions       int64 `json:"sessions"`
	ActiveSessions int64 `json:"activeSessions"`
	PromoCodes     int64 `json:"promoCodes"`
}

// Day follows time.Weekday: 0 is Sunday.
type ScheduleDay struct {
	Day      int    `json:"day"`
	OpensAt  string `json:"opensAt,omitempty"`
	ClosesAt string `json:"closesAt,omitempty"`
	Closed   bool   `json:"closed"`
}

type Backup struct {
	ID        string           `json:"id"`
	File      string           `json:"file"`
	SizeBytes int64            `json:"sizeBytes"`
	Tables    map[string]int64 `json:"tables,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

type LogoutResponse struct {
	LoggedOut bool `json:"loggedOut"`
}
