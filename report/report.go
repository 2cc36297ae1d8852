/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"cmp"
	"slices"

	"chainguard.dev/evalcookbook/platform"
)

// Thresholds are the limits a run must satisfy. Nil maps and a nil ErrorMax
// impose nothing.
type Thresholds struct {
	ErrorMax   *int               `json:"error_max,omitempty" yaml:"error_max,omitempty"`
	MetricsMin map[string]float64 `json:"metrics_min,omitempty" yaml:"metrics_min,omitempty"`
	MetricsMax map[string]float64 `json:"metrics_max,omitempty" yaml:"metrics_max,omitempty"`
	PassRate   map[string]float64 `json:"pass_rate,omitempty" yaml:"pass_rate,omitempty"`
}

// Empty reports whether no threshold is set.
func (t Thresholds) Empty() bool {
	return t.ErrorMax == nil && len(t.MetricsMin) == 0 && len(t.MetricsMax) == 0 && len(t.PassRate) == 0
}

// Failure is a metric outside its threshold.
type Failure struct {
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// ErrorFailure is an error count above error_max.
type ErrorFailure struct {
	Value int `json:"value"`
	Max   int `json:"max"`
}

// FailMetrics groups failures by threshold kind.
type FailMetrics struct {
	Min      map[string]Failure `json:"min"`
	Max      map[string]Failure `json:"max"`
	PassRate map[string]Failure `json:"pass_rate"`
	Error    *ErrorFailure      `json:"error,omitempty"`
}

// Count returns the number of failures.
func (f FailMetrics) Count() int {
	n := len(f.Min) + len(f.Max) + len(f.PassRate)
	if f.Error != nil {
		n++
	}
	return n
}

// Threshold kinds, as they appear in thresholds files.
const (
	KindMetricsMin = "metrics_min"
	KindMetricsMax = "metrics_max"
	KindPassRate   = "pass_rate"
)

// Gap is a threshold whose metric the run did not report.
type Gap struct {
	Kind   string `json:"kind"`
	Metric string `json:"metric"`
}

// Report is the outcome of checking a run against thresholds.
type Report struct {
	RunID       string               `json:"run_id"`
	RunName     string               `json:"run_name"`
	RunType     platform.TestRunType `json:"run_type"`
	AppLink     string               `json:"app_link,omitempty"`
	Pass        bool                 `json:"pass"`
	FailMetrics FailMetrics          `json:"fail_metrics"`
	Gaps        []Gap                `json:"gaps,omitempty"`
}

// Build checks a run against thresholds. Boundaries are inclusive: a value
// equal to its threshold passes. Metrics missing from the run are gaps, and a
// nil run is treated as one that reported nothing.
func Build(run *platform.TestRun, th Thresholds) Report {
	if run == nil {
		run = &platform.TestRun{}
	}
	rep := Report{
		RunID:   run.ID,
		RunName: run.Name,
		RunType: run.Type,
		AppLink: run.AppLink,
		FailMetrics: FailMetrics{
			Min:      map[string]Failure{},
			Max:      map[string]Failure{},
			PassRate: map[string]Failure{},
		},
	}

	metrics := run.Metrics()
	compare(&rep, KindMetricsMin, th.MetricsMin, metrics, rep.FailMetrics.Min, func(v, t float64) bool { return v >= t })
	compare(&rep, KindMetricsMax, th.MetricsMax, metrics, rep.FailMetrics.Max, func(v, t float64) bool { return v <= t })
	compare(&rep, KindPassRate, th.PassRate, run.ModelMetrics.PassRates, rep.FailMetrics.PassRate, func(v, t float64) bool { return v >= t })

	if th.ErrorMax != nil {
		if n := run.Errors(); n > *th.ErrorMax {
			rep.FailMetrics.Error = &ErrorFailure{Value: n, Max: *th.ErrorMax}
		}
	}

	slices.SortFunc(rep.Gaps, func(a, b Gap) int {
		return cmp.Or(cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.Metric, b.Metric))
	})
	rep.Pass = rep.FailMetrics.Count() == 0
	return rep
}

func compare(rep *Report, kind string, limits, values map[string]float64, failures map[string]Failure, ok func(v, t float64) bool) {
	for name, limit := range limits {
		v, present := values[name]
		if !present {
			rep.Gaps = append(rep.Gaps, Gap{Kind: kind, Metric: name})
			continue
		}
		if !ok(v, limit) {
			failures[name] = Failure{Value: v, Threshold: limit}
		}
	}
}
