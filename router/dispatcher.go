// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/danielhkuo/clubcard/middleware"
	"github.com/danielhkuo/clubcard/workpool"
)

const unmatchedRoute = "unmatched"

// Observer is told about every request the dispatcher answers.
type Observer func(route, method string, status int, elapsed time.Duration)

type Option func(*Dispatcher)

// WithExposeErrors forwards internal error and panic messages to clients.
func WithExposeErrors(expose bool) Option {
	return func(d *Dispatcher) { d.exposeErrors = expose }
}

func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// Dispatcher serves requests from an ordered route table. The first route
// whose method and path match wins; registration order is significant.
//
// Handlers run inside the shared worker pool. Routes must be registered
// before the first request is served.
type Dispatcher struct {
	routes       []*Route
	pool         *workpool.Pool
	exposeErrors bool
	observer     Observer
	serving      atomic.Bool
}

func NewDispatcher(pool *workpool.Pool, opts ...Option) *Dispatcher {
	d := &Dispatcher{pool: pool}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle appends a route. It panics on a malformed pattern or once serving has started.
func (d *Dispatcher) Handle(methods, pattern string, h http.HandlerFunc) {
	d.Add(MustRoute(methods, pattern, h))
}

func (d *Dispatcher) Add(rt *Route) {
	if d.serving.Load() {
		panic(fmt.Sprintf("router: route %q registered after serving started", rt.Pattern))
	}
	d.routes = append(d.routes, rt)
}

// Routes returns the table in registration order.
func (d *Dispatcher) Routes() []*Route {
	return d.routes
}

// Match returns the first route claiming path and method, or nil.
func (d *Dispatcher) Match(path, method string) *Route {
	for _, rt := range d.routes {
		if rt.Matches(path, method) {
			return rt
		}
	}
	return nil
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.serving.Store(true)
	start := time.Now()

	rt := d.Match(r.URL.Path, r.Method)
	if rt == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "resource not found")
		d.observe(unmatchedRoute, r.Method, http.StatusNotFound, start)
		return
	}

	for name, value := range rt.PathValues(r.URL.Path) {
		r.SetPathValue(name, value)
	}
	r = r.WithContext(middleware.WithErrorExposure(r.Context(), d.exposeErrors))

	gw := &guardWriter{ResponseWriter: w, method: r.Method, path: r.URL.Path}
	err := d.pool.Do(r.Context(), func() { d.run(gw, r, rt) })
	if err != nil {
		slog.Warn("request not admitted", "method", r.Method, "path", r.URL.Path, "error", err)
		if !gw.wroteHeader {
			middleware.ErrorResponse(gw, http.StatusServiceUnavailable, "server busy")
		}
	}

	if !gw.wroteHeader {
		slog.Error("handler returned without a response", "method", r.Method, "path", r.URL.Path, "route", rt.Pattern)
		middleware.ErrorResponse(gw, http.StatusInternalServerError, "internal server error")
	}
	d.observe(rt.Pattern, r.Method, gw.status, start)
}

// run invokes the handler and turns a panic into a 500 envelope.
func (d *Dispatcher) run(w *guardWriter, r *http.Request, rt *Route) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if rec == http.ErrAbortHandler {
			panic(rec)
		}
		slog.Error("handler panicked",
			"method", r.Method,
			"path", r.URL.Path,
			"panic", rec,
			"stack", string(debug.Stack()),
		)
		if w.wroteHeader {
			return
		}
		msg := "internal server error"
		if d.exposeErrors {
			msg = fmt.Sprint(rec)
		}
		middleware.ErrorResponse(w, http.StatusInternalServerError, msg)
	}()

	rt.Handler.ServeHTTP(w, r)
}

func (d *Dispatcher) observe(route, method string, status int, start time.Time) {
	if d.observer != nil {
		d.observer(route, method, status, time.Since(start))
	}
}

// guardWriter lets a response be committed once. A second status line is
// logged and it, along with every write after it, is discarded.
type guardWriter struct {
	http.ResponseWriter
	method, path string
	wroteHeader  bool
	dropping     bool
	status       int
}

func (g *guardWriter) WriteHeader(code int) {
	if g.wroteHeader {
		g.dropping = true
		slog.Error("duplicate response suppressed",
			"method", g.method,
			"path", g.path,
			"status", g.status,
			"dropped_status", code,
		)
		return
	}
	g.wroteHeader = true
	g.status = code
	g.ResponseWriter.WriteHeader(code)
}

func (g *guardWriter) Write(b []byte) (int, error) {
	if g.dropping {
		return len(b), nil
	}
	if !g.wroteHeader {
		g.WriteHeader(http.StatusOK)
	}
	return g.ResponseWriter.Write(b)
}

func (g *guardWriter) Flush() {
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (g *guardWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}
