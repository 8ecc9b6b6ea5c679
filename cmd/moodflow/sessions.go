package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/moodflow/backend/internal/client"
	"github.com/zhouzirui/moodflow/backend/internal/model/session"
)

var sessionsFormat string

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect recorded sessions",
	Long:  `Query the moodflow API for recorded sessions.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Args:  cobra.NoArgs,
	RunE: listRunner(func(ctx context.Context, c *client.Client, _ []string) ([]session.Session, error) {
		return c.ListSessions(ctx)
	}),
}

var sessionsCompletedCmd = &cobra.Command{
	Use:   "completed",
	Short: "List completed sessions",
	Args:  cobra.NoArgs,
	RunE: listRunner(func(ctx context.Context, c *client.Client, _ []string) ([]session.Session, error) {
		return c.ListCompleted(ctx)
	}),
}

var sessionsMoodCmd = &cobra.Command{
	Use:   "mood <happy|okay|stressed>",
	Short: "List sessions started with a mood",
	Args:  cobra.ExactArgs(1),
	RunE: listRunner(func(ctx context.Context, c *client.Client, args []string) ([]session.Session, error) {
		mood, err := session.ParseMood(args[0])
		if err != nil {
			return nil, err
		}
		return c.ListByMood(ctx, mood)
	}),
}

var sessionsStepCmd = &cobra.Command{
	Use:   "step <1|2|3>",
	Short: "List sessions currently at a step",
	Args:  cobra.ExactArgs(1),
	RunE: listRunner(func(ctx context.Context, c *client.Client, args []string) ([]session.Session, error) {
		step, err := session.ParseStep(args[0])
		if err != nil {
			return nil, err
		}
		return c.ListByStep(ctx, step)
	}),
}

var sessionsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a single session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id < 0 {
			return fmt.Errorf("invalid session id %q", args[0])
		}

		c, _, err := newAPIClient()
		if err != nil {
			return err
		}

		found, err := c.GetSession(cmd.Context(), id)
		if client.IsNotFound(err) {
			return fmt.Errorf("session %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("failed to fetch session: %w", err)
		}
		return writeSessions(cmd.OutOrStdout(), sessionsFormat, []session.Session{found}, true)
	},
}

type listFunc func(ctx context.Context, c *client.Client, args []string) ([]session.Session, error)

func listRunner(fetch listFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, _, err := newAPIClient()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		sessions, err := fetch(ctx, c, args)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		return writeSessions(cmd.OutOrStdout(), sessionsFormat, sessions, false)
	}
}

// writeSessions prints sessions in the requested format. single unwraps a one-element list for json/yaml.
func writeSessions(w io.Writer, format string, sessions []session.Session, single bool) error {
	var payload any = sessions
	if single && len(sessions) == 1 {
		payload = sessions[0]
	}

	switch format {
	case "", "table":
		renderSessionTable(w, sessions)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()
		return enc.Encode(payload)
	default:
		return fmt.Errorf("unsupported format %q (table, json, yaml)", format)
	}
}

func init() {
	sessionsCmd.PersistentFlags().StringVarP(&sessionsFormat, "format", "f", "table", "Output format (table, json, yaml)")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsCompletedCmd, sessionsMoodCmd, sessionsStepCmd, sessionsGetCmd)
	rootCmd.AddCommand(sessionsCmd)
}
