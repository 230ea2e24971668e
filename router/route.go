// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Route claims the requests whose path and method both fully match its patterns.
type Route struct {
	Methods string
	Pattern string
	Handler http.Handler

	method *regexp.Regexp
	path   *regexp.Regexp
}

// NewRoute compiles methods (e.g. "GET", "GET|POST", ".*") and pattern as
// whole-string regular expressions.
func NewRoute(methods, pattern string, h http.Handler) (*Route, error) {
	m, err := regexp.Compile(`^(?:` + methods + `)$`)
	if err != nil {
		return nil, fmt.Errorf("route %q: bad method pattern: %w", pattern, err)
	}
	p, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("route %q: bad path pattern: %w", pattern, err)
	}
	return &Route{Methods: methods, Pattern: pattern, Handler: h, method: m, path: p}, nil
}

// MustRoute is NewRoute for route tables built at startup.
func MustRoute(methods, pattern string, h http.Handler) *Route {
	rt, err := NewRoute(methods, pattern, h)
	if err != nil {
		panic(err)
	}
	return rt
}

// Matches reports whether the route claims path and method. Anything after
// the first '?' in path is ignored.
func (rt *Route) Matches(path, method string) bool {
	return rt.method.MatchString(method) && rt.path.MatchString(StripQuery(path))
}

// PathValues returns the named capture groups of the route's path pattern.
func (rt *Route) PathValues(path string) map[string]string {
	m := rt.path.FindStringSubmatch(StripQuery(path))
	if m == nil {
		return nil
	}
	values := make(map[string]string)
	for i, name := range rt.path.SubexpNames() {
		if name != "" && i < len(m) {
			values[name] = m[i]
		}
	}
	return values
}

// StripQuery cuts path at the first '?'.
func StripQuery(path string) string {
	p, _, _ := strings.Cut(path, "?")
	return p
}
