// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"context"
	"net"
	"time"
)

// Reachable reports whether a TCP connection to addr (host:port) can be
// opened within timeout.
func Reachable(ctx context.Context, addr string, timeout time.Duration) bool {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Probe checks whether the client's server accepts connections.
func (c *Client) Probe(ctx context.Context) bool {
	return Reachable(ctx, c.addr(), c.cfg.ProbeTimeout)
}

func (c *Client) addr() string {
	if c.baseURL.Port() != "" {
		return c.baseURL.Host
	}
	port := "80"
	if c.baseURL.Scheme == "https" {
		port = "443"
	}
	return net.JoinHostPort(c.baseURL.Hostname(), port)
}
