/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"chainguard.dev/evalcookbook/platform"
)

const (
	passMark = "✅"
	failMark = "❌"
)

func mark(ok bool) string {
	if ok {
		return passMark
	}
	return failMark
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// markdownTable starts a GitHub markdown table with the given headers. Cells
// are left aligned unless align names a column's alignment, and long metric
// names are never wrapped.
func markdownTable(w io.Writer, headers []string, align ...tw.Align) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.Off},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft, PerColumn: align},
			},
			MaxWidth: 120,
			Behavior: tw.Behavior{TrimSpace: tw.Off},
		}),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Right: tw.On, Top: tw.Off, Bottom: tw.Off},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}

// Text writes a markdown report of one run: a heading with the outcome, then
// a table of every reported metric with its thresholds.
func Text(w io.Writer, rep Report, run *platform.TestRun) error {
	outcome := "PASS"
	if !rep.Pass {
		outcome = "FAIL"
	}
	if _, err := fmt.Fprintf(w, "## %s %s %s\n\n", mark(rep.Pass), rep.RunName, outcome); err != nil {
		return err
	}
	if rep.AppLink != "" {
		if _, err := fmt.Fprintf(w, "View the evaluation: %s\n\n", rep.AppLink); err != nil {
			return err
		}
	}

	table := markdownTable(w, []string{"Metric", "Value", "Threshold", "Status"},
		tw.AlignLeft, tw.AlignRight, tw.AlignLeft, tw.AlignLeft)

	metrics := run.Metrics()
	for _, name := range slices.Sorted(maps.Keys(metrics)) {
		threshold := "-"
		ok := true
		if f, failed := rep.FailMetrics.Min[name]; failed {
			threshold, ok = ">= "+formatValue(f.Threshold), false
		} else if f, failed := rep.FailMetrics.Max[name]; failed {
			threshold, ok = "<= "+formatValue(f.Threshold), false
		}
		_ = table.Append([]string{name, fmt.Sprintf("%.4f", metrics[name]), threshold, mark(ok)})
	}
	for _, name := range slices.Sorted(maps.Keys(run.ModelMetrics.PassRates)) {
		threshold := "-"
		ok := true
		if f, failed := rep.FailMetrics.PassRate[name]; failed {
			threshold, ok = ">= "+formatValue(f.Threshold), false
		}
		_ = table.Append([]string{name + " (pass rate)", fmt.Sprintf("%.1f%%", run.ModelMetrics.PassRates[name]*100), threshold, mark(ok)})
	}
	errorThreshold := "-"
	if e := rep.FailMetrics.Error; e != nil {
		errorThreshold = "<= " + strconv.Itoa(e.Max)
	}
	_ = table.Append([]string{"errors", strconv.Itoa(run.Errors()), errorThreshold, mark(rep.FailMetrics.Error == nil)})

	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering report table: %w", err)
	}

	for _, g := range rep.Gaps {
		if _, err := fmt.Fprintf(w, "\n- %s: %s not reported by the run", g.Kind, g.Metric); err != nil {
			return err
		}
	}
	if len(rep.Gaps) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
