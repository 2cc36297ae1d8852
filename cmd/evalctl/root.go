/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"chainguard.dev/evalcookbook/platform/memory"
	"chainguard.dev/evalcookbook/session"
)

// globals are the persistent flags shared by every command.
type globals struct {
	offline bool
	project string
}

func buildRootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:           "evalctl",
		Short:         "Run evaluation flows and inspect their reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&g.offline, "offline", false, "Use an in-memory platform instead of the remote API")
	cmd.PersistentFlags().StringVar(&g.project, "project", "", "Project name (defaults to PROJECT_NAME)")

	cmd.AddCommand(
		buildProjectsCmd(g),
		buildRunCmd(g),
		buildHistoryCmd(g),
		buildChecksCmd(g),
		buildSchemaCmd(),
	)
	return cmd
}

// open builds a session from the environment.
func (g *globals) open(ctx context.Context) (*session.Session, error) {
	cfg, err := session.ConfigFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	if g.project != "" {
		cfg.ProjectName = g.project
	}
	if g.offline {
		return session.New(cfg, memory.New(memory.WithProjects(cfg.ProjectName))), nil
	}
	client, err := cfg.Client()
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.BaseURL, err)
	}
	return session.New(cfg, client), nil
}

func buildProjectsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the projects visible to the API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sess, err := g.open(ctx)
			if err != nil {
				return err
			}
			projects, err := sess.Client().ListProjects(ctx)
			if err != nil {
				return err
			}
			for _, p := range projects {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.ID, p.Name)
			}
			return nil
		},
	}
}
