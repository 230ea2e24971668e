// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/danielhkuo/clubcard/envelope"
	"github.com/danielhkuo/clubcard/workpool"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// Client talks to a clubcard server. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	pool    *workpool.Pool
	cfg     Config

	probeBeforeCall bool

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

// WithToken sets the bearer token sent with every call.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the client built from Config.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPool shares an existing pool instead of creating one from Config.Workers.
func WithPool(p *workpool.Pool) Option {
	return func(c *Client) { c.pool = p }
}

// WithProbeBeforeCall dials the server before each call and fails fast
// with KindUnreachable when it does not answer.
func WithProbeBeforeCall(enabled bool) Option {
	return func(c *Client) { c.probeBeforeCall = enabled }
}

func New(baseURL string, cfg Config, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", baseURL)
	}

	c := &Client{baseURL: u, cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = newHTTPClient(cfg)
	}
	if c.pool == nil {
		c.pool = workpool.New(cfg.Workers)
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.baseURL.String() }

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// call performs one request synchronously and unwraps the envelope.
func call[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T

	if c.probeBeforeCall && !c.Probe(ctx) {
		return zero, &Error{
			Kind: KindUnreachable,
			Msg:  fmt.Sprintf("server %s is unreachable", c.baseURL.Host),
		}
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return zero, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, networkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return zero, networkError(err)
	}

	return unwrap[T](resp, raw)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := envelope.Default.Encode(&buf, body); err != nil {
			return nil, &Error{Kind: KindDecode, Msg: "could not encode request: " + err.Error(), Err: err}
		}
		r = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, r)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Msg: "could not build request: " + err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// unwrap applies the same rule to every response: an envelope with
// success=false is a remote failure regardless of status.
func unwrap[T any](resp *http.Response, raw []byte) (T, error) {
	var zero T
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	env, err := envelope.Decode[T](raw)
	if err != nil {
		if !ok {
			return zero, &Error{
				Kind:   KindHTTP,
				Status: resp.StatusCode,
				Msg:    fmt.Sprintf("server returned %s", resp.Status),
				Err:    err,
			}
		}
		return zero, &Error{
			Kind:   KindDecode,
			Status: resp.StatusCode,
			Msg:    "could not read server response: " + err.Error(),
			Err:    err,
		}
	}

	if !env.Success {
		return zero, &Error{Kind: KindRemote, Status: resp.StatusCode, Msg: env.ErrorMessage}
	}
	if !ok {
		return zero, &Error{
			Kind:   KindHTTP,
			Status: resp.StatusCode,
			Msg:    fmt.Sprintf("server returned %s", resp.Status),
		}
	}
	return env.Data, nil
}

func networkError(err error) *Error {
	msg := "could not reach server: " + err.Error()
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		msg = "request timed out"
	case errors.Is(err, context.Canceled):
		msg = "request canceled"
	}
	return &Error{Kind: KindNetwork, Msg: msg, Err: err}
}
