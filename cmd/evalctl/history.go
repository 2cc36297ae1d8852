/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"slices"

	"github.com/spf13/cobra"

	"chainguard.dev/evalcookbook/platform"
	"chainguard.dev/evalcookbook/report"
)

func buildHistoryCmd(g *globals) *cobra.Command {
	var (
		model      string
		last       int
		thresholds string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs of a model against thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var th report.Thresholds
			if thresholds != "" {
				var err error
				if th, err = report.LoadThresholds(thresholds); err != nil {
					return err
				}
			}
			sess, err := g.open(ctx)
			if err != nil {
				return err
			}
			projectID, err := sess.ResolveProject(ctx, g.project)
			if err != nil {
				return err
			}
			mut, err := sess.ModelByName(ctx, projectID, model)
			if err != nil {
				return err
			}
			runs, err := sess.FindTestRuns(ctx, platform.TestRunFilter{ProjectID: projectID, ModelID: mut.ID})
			if err != nil {
				return err
			}
			return report.History(cmd.OutOrStdout(), recent(runs, last, th))
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Name of the registered model")
	cmd.Flags().IntVar(&last, "last", 6, "Number of most recent runs to show")
	cmd.Flags().StringVarP(&thresholds, "thresholds", "t", "", "Thresholds file (YAML or JSON)")
	cobra.CheckErr(cmd.MarkFlagRequired("model"))
	return cmd
}

// recent reports on the last n runs by start time, oldest first.
func recent(runs []platform.TestRun, n int, th report.Thresholds) []report.Entry {
	runs = slices.Clone(runs)
	slices.SortStableFunc(runs, func(a, b platform.TestRun) int { return a.StartTime.Compare(b.StartTime) })
	if n > 0 && len(runs) > n {
		runs = runs[len(runs)-n:]
	}
	entries := make([]report.Entry, 0, len(runs))
	for _, r := range runs {
		entries = append(entries, report.Entry{Run: r, Report: report.Build(&r, th)})
	}
	return entries
}
