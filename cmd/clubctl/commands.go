// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/clubcard/models"
)

func loginCmd(g *globals) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			ctx, cancel := g.context(cmd)
			defer cancel()
			resp, err := c.Login(ctx, username, password).Await(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "P", "", "Password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func cardsCmd(g *globals) *cobra.Command {
	c := &cobra.Command{
		Use:   "cards",
		Short: "Manage loyalty cards",
	}

	c.AddCommand(
		cardsListCmd(g),
		cardsGetCmd(g),
		cardsCreateCmd(g),
		cardsPointsCmd(g, "add", "Credit points to a card"),
		cardsPointsCmd(g, "deduct", "Debit points from a card"),
	)
	return c
}

func printCards(w io.Writer, cards []models.Card) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNUMBER\tUSER\tPOINTS\tSTATUS")
	for _, c := range cards {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", c.ID, c.CardNumber, c.UserID, c.Points, c.Status)
	}
	tw.Flush()
}

func printCard(w io.Writer, c models.Card) {
	printCards(w, []models.Card{c})
}

func cardsListCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			return await(cmd, g, c.ListCards(cmd.Context()), printCards)
		},
	}
}

func cardsGetCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id|number>",
		Short: "Show one card by id or card number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
				return await(cmd, g, c.GetCard(cmd.Context(), id), printCard)
			}
			return await(cmd, g, c.GetCardByNumber(cmd.Context(), args[0]), printCard)
		},
	}
}

func cardsCreateCmd(g *globals) *cobra.Command {
	var req models.CreateCardRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a card to a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			return await(cmd, g, c.CreateCard(cmd.Context(), req), printCard)
		},
	}

	cmd.Flags().Int64Var(&req.UserID, "user", 0, "Owner user id")
	cmd.Flags().StringVar(&req.CardNumber, "number", "", "Card number")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("number")
	return cmd
}

func cardsPointsCmd(g *globals, action, short string) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   action + " <id> <points>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid card id %q", args[0])
			}
			points, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid points %q", args[1])
			}
			c, err := g.client()
			if err != nil {
				return err
			}
			req := models.PointsRequest{Points: points, Reason: reason}
			if action == "deduct" {
				return await(cmd, g, c.DeductPoints(cmd.Context(), id, req), printCard)
			}
			return await(cmd, g, c.AddPoints(cmd.Context(), id, req), printCard)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded with the transaction")
	return cmd
}

func sessionsCmd(g *globals) *cobra.Command {
	var all bool

	c := &cobra.Command{
		Use:   "sessions",
		Short: "List station sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			return await(cmd, g, c.ListSessions(cmd.Context(), !all), func(w io.Writer, sessions []models.Session) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCARD\tSTATION\tSTARTED\tMINUTES\tPOINTS")
				for _, s := range sessions {
					fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\t%d\n",
						s.ID, s.CardID, s.Station, s.StartedAt.Local().Format(time.DateTime), s.Minutes, s.PointsEarned)
				}
				tw.Flush()
			})
		},
	}

	c.Flags().BoolVar(&all, "all", false, "Include finished sessions")
	return c
}

func statsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show club statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			return await(cmd, g, c.Statistics(cmd.Context()), func(w io.Writer, st models.Statistics) {
				fmt.Fprintf(w, "Users:           %d\n", st.Users)
				fmt.Fprintf(w, "Cards:           %d (%d blocked)\n", st.Cards, st.BlockedCards)
				fmt.Fprintf(w, "Points issued:   %d\n", st.TotalPoints)
				fmt.Fprintf(w, "Sessions:        %d (%d active)\n", st.Sessions, st.ActiveSessions)
				fmt.Fprintf(w, "Promo codes:     %d\n", st.PromoCodes)
			})
		},
	}
}

func auditCmd(g *globals) *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent audit entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			var from time.Time
			if since > 0 {
				from = time.Now().Add(-since)
			}
			return await(cmd, g, c.ListAudit(cmd.Context(), from, time.Time{}), func(w io.Writer, entries []models.AuditEntry) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TIME\tACTOR\tACTION\tENTITY\tDETAILS")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s #%d\t%s\n",
						e.CreatedAt.Local().Format(time.DateTime), e.Actor, e.Action, e.Entity, e.EntityID, e.Details)
				}
				tw.Flush()
			})
		},
	}

	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "How far back to look (0 for everything)")
	return cmd
}

func backupCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write a database backup on the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			return await(cmd, g, c.CreateBackup(cmd.Context()), func(w io.Writer, b models.Backup) {
				fmt.Fprintf(w, "%s (%d bytes)\n", b.File, b.SizeBytes)
			})
		},
	}
}
