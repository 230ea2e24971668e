// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router maps requests onto handlers for the clubcard API.

# Routes

A Route pairs a method pattern and a path pattern, both regular expressions
matched against the whole string. Anything after '?' is ignored. Named
groups become path values:

	rt := router.MustRoute("GET", `/api/cards/(?P<id>\d+)`, h)
	// inside h: r.PathValue("id")

# Dispatcher

Dispatcher keeps routes in registration order and serves the first one that
matches. Unmatched requests get a 404 envelope. Handlers run inside the
shared workpool.Pool; a request that cannot get a slot before its context
ends is answered with 503.

Each request produces exactly one response: a second status line is dropped
and logged, a handler that writes nothing yields a 500 envelope, and a
panicking handler is recovered into a 500 envelope.

# Wiring

NewRouter registers every API route and wraps the dispatcher in the request
middleware chain:

	pool := workpool.New(cfg.Workers)
	handler := router.NewRouter(db, cfg, pool)
*/
package router
