// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielhkuo/clubcard/middleware"
	"github.com/danielhkuo/clubcard/service"
)

// Accepted forms of a period bound. The zone-less form is read as UTC.
var periodLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// writeServiceError maps a service error onto its status code.
// Unexpected errors are logged and reported generically unless error
// exposure is enabled for the request.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidArgument):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		middleware.ErrorResponse(w, http.StatusUnauthorized, err.Error())
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg := "internal server error"
		if middleware.ExposeErrors(r.Context()) {
			msg = err.Error()
		}
		middleware.ErrorResponse(w, http.StatusInternalServerError, msg)
	}
}

// pathID reads a numeric path value captured by the route pattern.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}

// decodeBody parses and validates a JSON request body, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v *middleware.Validator, dst any) bool {
	if err := middleware.ParseJSONBody(r, dst); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := v.Struct(dst); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// parsePeriod reads the optional from/to query parameters. Query values
// arrive URL-decoded.
func parsePeriod(r *http.Request) (from, to *time.Time, err error) {
	q := r.URL.Query()
	if from, err = parseBound(q.Get("from"), "from"); err != nil {
		return nil, nil, err
	}
	if to, err = parseBound(q.Get("to"), "to"); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func parseBound(raw, name string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s: %q is not an ISO-8601 timestamp", name, raw)
}
