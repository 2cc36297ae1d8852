/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"chainguard.dev/evalcookbook/flow"
	"chainguard.dev/evalcookbook/report"
)

func buildRunCmd(g *globals) *cobra.Command {
	var (
		file   string
		format string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an evaluation flow and print its report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format %q, expected text or json", format)
			}
			f, err := flow.Load(file)
			if err != nil {
				return err
			}
			sess, err := g.open(ctx)
			if err != nil {
				return err
			}

			res, err := flow.Execute(ctx, sess, f)
			if res == nil || res.Run == nil || res.Run.Result() == nil {
				return err
			}
			result := res.Run.Result()
			clog.InfoContextf(ctx, "Run %s: %s", result.Name, result.AppLink)

			out := cmd.OutOrStdout()
			var rerr error
			if format == "json" {
				rerr = report.JSON(out, []report.Entry{{Run: *result, Report: res.Report}})
			} else {
				rerr = report.Text(out, res.Report, result)
			}
			if rerr != nil {
				return rerr
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the flow file (YAML)")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "Report format: text or json")
	cobra.CheckErr(cmd.MarkFlagRequired("file"))
	return cmd
}
