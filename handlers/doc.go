// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the clubcard API.

# Handler Types

Each resource has a handler struct holding its service and the shared
request validator:

  - AuthHandler: login, logout, current user
  - UserHandler, TierHandler, CardHandler: account and card management
  - SessionHandler: station sessions and point awards
  - PromotionHandler, PromoCodeHandler: multipliers and bonus codes
  - SettingHandler, ScheduleHandler: club configuration
  - AuditHandler, ReportHandler, BackupHandler: history and maintenance

Handlers are created via constructor functions:

	cardHandler := handlers.NewCardHandler(svc.Cards, validator)

# Request Flow

A handler reads path values set by the router, decodes and validates a JSON
body on POST and PUT, makes one service call and writes one envelope:

	{"success":true,"data":{...}}
	{"success":false,"errorMessage":"card 7 not found"}

# Status Codes

	200 read, update, delete
	201 create
	400 malformed body, bad path value, failed validation, rejected business rule
	401 bad credentials or unknown token
	404 unknown entity
	500 anything unexpected; the message is generic unless error exposure is on
*/
package handlers
