// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the clubcard API server.

clubcard runs the loyalty program of a computer club: members hold cards,
earn points for the time they spend at stations, and spend them at the desk.
Tiers, promotions and promo codes shape how points accrue.

# Starting the Server

With no configuration the server uses a SQLite file in the working
directory; only the token salt is mandatory:

	TOKEN_SALT=change-me go run .

Or with PostgreSQL:

	go run . -t postgres -d "postgres://..." -token-salt change-me

# Configuration

Required settings:

  - TOKEN_SALT (-token-salt): Secret mixed into stored bearer token hashes

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string or SQLite file (default: clubcard.db)
  - WORKERS (-workers): Concurrently executing handlers (default: 32)
  - REQUIRE_AUTH (-require-auth): Demand a bearer token on /api routes
  - EXPOSE_ERRORS (-expose-errors): Send internal error text to clients
  - ADMIN_USERNAME, ADMIN_PASSWORD: Bootstrap admin for an empty user table

A .env file is read when present; it never overrides the real environment.

# Architecture

  - router: Regex route table and dispatcher over a shared worker pool
  - handlers: HTTP request handlers, one per resource
  - service: Domain rules and persistence
  - envelope: The {success, data, errorMessage} response wrapper
  - middleware: Logging, CORS, compression, auth, rate limiting, metrics
  - client: Go client for the API with futures and reachability probing
  - cmd/clubctl: Command-line admin tool built on client

See package documentation for each component.
*/
package main
