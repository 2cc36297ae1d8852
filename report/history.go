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
	"sort"
)

// History writes one row per entry, oldest first, with the outcome of the
// run and each check's mean score marked by whether it met its thresholds.
func History(w io.Writer, entries []Entry) error {
	sorted := slices.Clone(entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Run.StartTime.Before(sorted[j].Run.StartTime)
	})

	names := map[string]struct{}{}
	for _, e := range sorted {
		for name := range e.Run.ModelMetrics.MeanScores {
			names[name] = struct{}{}
		}
	}
	columns := slices.Sorted(maps.Keys(names))

	table := markdownTable(w, append([]string{"Date", "Run", "Passed"}, columns...))
	for _, e := range sorted {
		passed := "🔴"
		if e.Report.Pass {
			passed = "🟢"
		}
		row := []string{e.Run.StartTime.Format("Mon Jan 02 2006"), e.Run.Name, passed}
		for _, name := range columns {
			v, ok := e.Run.ModelMetrics.MeanScores[name]
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, fmt.Sprintf("%s %.2f", mark(!failed(e.Report, name)), v))
		}
		_ = table.Append(row)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering history table: %w", err)
	}
	return nil
}

// failed reports whether any threshold on the metric failed.
func failed(rep Report, name string) bool {
	_, lo := rep.FailMetrics.Min[name]
	_, hi := rep.FailMetrics.Max[name]
	_, rate := rep.FailMetrics.PassRate[name]
	return lo || hi || rate
}
