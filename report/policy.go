/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/chainguard-dev/clog"
)

// ErrReportFailed is returned by Enforce for a failing report under the Throw policy.
var ErrReportFailed = errors.New("report failed")

// OnFailure selects what happens when a report does not pass.
type OnFailure string

const (
	// Throw makes a failing report an error.
	Throw OnFailure = "throw"
	// ReportOnly logs a failing report and carries on.
	ReportOnly OnFailure = "report"
)

// ParseOnFailure parses a policy name.
func ParseOnFailure(s string) (OnFailure, error) {
	switch p := OnFailure(strings.ToLower(strings.TrimSpace(s))); p {
	case Throw, ReportOnly:
		return p, nil
	}
	return "", fmt.Errorf("unknown failure policy %q, expected %q or %q", s, Throw, ReportOnly)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *OnFailure) UnmarshalText(text []byte) error {
	p, err := ParseOnFailure(string(text))
	if err != nil {
		return err
	}
	*o = p
	return nil
}

// Summary describes the failures of a report in one line.
func (r Report) Summary() string {
	if r.Pass {
		return "all thresholds met"
	}
	var parts []string
	for _, name := range slices.Sorted(maps.Keys(r.FailMetrics.Min)) {
		f := r.FailMetrics.Min[name]
		parts = append(parts, fmt.Sprintf("%s %.4g < %.4g", name, f.Value, f.Threshold))
	}
	for _, name := range slices.Sorted(maps.Keys(r.FailMetrics.Max)) {
		f := r.FailMetrics.Max[name]
		parts = append(parts, fmt.Sprintf("%s %.4g > %.4g", name, f.Value, f.Threshold))
	}
	for _, name := range slices.Sorted(maps.Keys(r.FailMetrics.PassRate)) {
		f := r.FailMetrics.PassRate[name]
		parts = append(parts, fmt.Sprintf("%s pass rate %.4g < %.4g", name, f.Value, f.Threshold))
	}
	if e := r.FailMetrics.Error; e != nil {
		parts = append(parts, fmt.Sprintf("errors %d > %d", e.Value, e.Max))
	}
	return strings.Join(parts, ", ")
}

// Enforce applies the policy to a report. A failing report is logged under
// ReportOnly and otherwise yields an error wrapping ErrReportFailed.
func Enforce(ctx context.Context, rep Report, policy OnFailure) error {
	log := clog.FromContext(ctx).With("run_id", rep.RunID, "run_name", rep.RunName, "pass", rep.Pass)
	for _, g := range rep.Gaps {
		log.Warn("Threshold metric not reported by run", "kind", g.Kind, "metric", g.Metric)
	}
	if rep.Pass {
		log.Info("Report passed", "app_link", rep.AppLink)
		return nil
	}
	if policy != ReportOnly {
		return fmt.Errorf("%w: %s: %s", ErrReportFailed, rep.RunName, rep.Summary())
	}
	log.Error("Report failed", "failures", rep.Summary(), "app_link", rep.AppLink)
	return nil
}
