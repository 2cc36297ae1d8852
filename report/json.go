/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"chainguard.dev/evalcookbook/platform"
)

// Entry pairs a run with its report.
type Entry struct {
	Run    platform.TestRun
	Report Report
}

// runSummary is the JSON shape of one entry.
type runSummary struct {
	Report
	StartTime   time.Time          `json:"start_time,omitzero"`
	DataPoints  int                `json:"test_data_point_count"`
	Metrics     map[string]float64 `json:"metrics"`
	PassRates   map[string]float64 `json:"pass_rates,omitempty"`
	ErrorCount  int                `json:"error_count"`
	ErrorMatrix []map[string][]int `json:"error_matrix,omitempty"`
}

// JSON writes an indented JSON array summarizing each entry.
func JSON(w io.Writer, entries []Entry) error {
	out := make([]runSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, runSummary{
			Report:      e.Report,
			StartTime:   e.Run.StartTime,
			DataPoints:  e.Run.TestDataPointCount,
			Metrics:     e.Run.Metrics(),
			PassRates:   e.Run.ModelMetrics.PassRates,
			ErrorCount:  e.Run.Errors(),
			ErrorMatrix: e.Run.ErrorMatrix,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
