/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"chainguard.dev/evalcookbook/checks"
)

func buildChecksCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checks",
		Short: "List and register checks",
	}
	cmd.AddCommand(buildChecksListCmd(g), buildChecksSyncCmd(g))
	return cmd
}

func buildChecksListCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the checks available on the platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sess, err := g.open(ctx)
			if err != nil {
				return err
			}
			all, err := sess.Client().Checks(ctx)
			if err != nil {
				return err
			}
			for _, c := range all {
				kind := "custom"
				if c.IsPredefined {
					kind = "predefined"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", c.Name, kind, c.OutputDataType)
			}
			return nil
		},
	}
}

func buildChecksSyncCmd(g *globals) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Generate and upload the checks described in a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			defs, err := checks.LoadDefinitions(file)
			if err != nil {
				return err
			}
			sess, err := g.open(ctx)
			if err != nil {
				return err
			}
			projectID, err := sess.ResolveProject(ctx, g.project)
			if err != nil {
				return err
			}
			uploaded, err := checks.Ensure(ctx, sess.Client(), projectID, defs)
			if err != nil {
				return err
			}
			for _, c := range uploaded {
				clog.InfoContextf(ctx, "Uploaded check %s (%s)", c.Name, c.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Check definitions (YAML)")
	cobra.CheckErr(cmd.MarkFlagRequired("file"))
	return cmd
}
