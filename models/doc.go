// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

All JSON field names are camelCase. Times encode as RFC 3339 strings.

# Request Types

Types for parsing incoming JSON, validated with validator/v10 struct tags:

  - LoginRequest: username, password
  - CreateUserRequest / UpdateUserRequest
  - TierRequest: name, minPoints, discountPercent
  - CreateCardRequest / UpdateCardRequest: userId, cardNumber
  - PointsRequest: points, reason (add and deduct)
  - StartSessionRequest: cardId, station
  - PromotionRequest: name, multiplier, startsAt, endsAt
  - CreatePromoCodeRequest / RedeemPromoCodeRequest
  - SettingRequest: value
  - ScheduleRequest: opensAt, closesAt, closed

# Domain Types

  - User: club member or staff account (password hash never serialised)
  - Tier: loyalty level reached at minPoints
  - Card: loyalty card with a points balance
  - PointTransaction: one balance change on a card
  - Session: a computer session paid for with a card
  - Promotion: time-boxed points multiplier
  - PromoCode: one-off bonus points code
  - Setting, AuditEntry, ScheduleDay, Backup, Statistics, PointsReportRow

# Constants

Card status:

	CardActive  = "active"
	CardBlocked = "blocked"

User roles:

	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleClient   = "client"
*/
package models
