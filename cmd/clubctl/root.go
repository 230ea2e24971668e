// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/clubcard/client"
)

type globals struct {
	server  string
	token   string
	timeout time.Duration
	probe   bool
	asJSON  bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:          "clubctl",
		Short:        "Command-line admin for a clubcard server",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&g.server, "server", envOr("CLUBCARD_SERVER", "http://localhost:3318"), "Server base URL")
	cmd.PersistentFlags().StringVar(&g.token, "token", os.Getenv("CLUBCARD_TOKEN"), "Bearer token")
	cmd.PersistentFlags().DurationVar(&g.timeout, "timeout", 10*time.Second, "Per-command timeout")
	cmd.PersistentFlags().BoolVar(&g.probe, "probe", true, "Check the server is reachable before each call")
	cmd.PersistentFlags().BoolVar(&g.asJSON, "json", false, "Print raw JSON")

	cmd.AddCommand(
		pingCmd(g),
		loginCmd(g),
		cardsCmd(g),
		sessionsCmd(g),
		statsCmd(g),
		auditCmd(g),
		backupCmd(g),
	)
	return cmd
}

func (g *globals) client() (*client.Client, error) {
	cfg := client.DefaultConfig()
	cfg.Timeout = g.timeout
	return client.New(g.server, cfg, client.WithToken(g.token), client.WithProbeBeforeCall(g.probe))
}

func (g *globals) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), g.timeout)
}

// await resolves f and prints the value as JSON or through text.
func await[T any](cmd *cobra.Command, g *globals, f *client.Future[T], text func(io.Writer, T)) error {
	ctx, cancel := g.context(cmd)
	defer cancel()

	v, err := f.Await(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if g.asJSON || text == nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(out, v)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func pingCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is up",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			ctx, cancel := g.context(cmd)
			defer cancel()
			if _, err := c.Health(ctx).Await(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is up\n", c.BaseURL())
			return nil
		},
	}
}
