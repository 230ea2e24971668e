// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap the server handler with request ids and logging:

	handler := chimw.RequestID(middleware.WithLogging(dispatcher))

Logs request start (method, path, remote, request_id) and completion
(status, bytes, duration_ms). Completion is logged at warn for 4xx and
at error for 5xx.

# JSON Helpers

Every response body is an envelope:

	middleware.JSONResponse(w, http.StatusOK, card)           // {"success":true,"data":{...}}
	middleware.ErrorResponse(w, http.StatusNotFound, "card 9 not found")

Parse and validate request bodies:

	var req models.CreateCardRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validator.Struct(req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

Validation messages use JSON field names ("cardNumber is required").

# Authentication

RequireToken checks the bearer token of every /api request except the
listed public paths and records the token owner as the audit actor.

# Other Middleware

  - CORS: permissive cross-origin headers for the operator console
  - Compression: zstd or gzip response encoding
  - RateLimiter: per client IP token buckets, used on login
  - Metrics: Prometheus counters and histograms served at /metrics
*/
package middleware
