/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package report turns completed test runs into pass/fail reports.

# Thresholds

A [Thresholds] value names the limits a run must satisfy:

	error_max: 6          # at most this many mispredictions
	metrics_min:          # each metric at or above
	  accuracy: 0.9
	metrics_max:          # each metric at or below
	  levenshtein_distance: 12
	pass_rate:            # each check passes at least this fraction of data points
	  model_refusal: 0.8

All boundaries are inclusive. [Build] is pure: it compares the run's metrics
against the thresholds and returns a [Report]. A metric named in the
thresholds but absent from the run is a gap, recorded in Report.Gaps, and
never fails the report.

# Rendering

  - [Text] writes a markdown table of one report.
  - [JSON] writes a machine readable summary of several runs.
  - [History] writes one row per run with a pass mark per metric.

# Failure policy

[Enforce] applies an [OnFailure] policy: [Throw] returns [ErrReportFailed]
for a failing report, [ReportOnly] only logs it.
*/
package report
