/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package checks manages the named checks that score model predictions.

# Platform checks

Checks live on the evaluation platform. A [Definition] describes a check in
natural language; [Ensure] lists the project's checks, asks the platform to
generate code for any that are missing, and uploads the result:

	defs, err := checks.LoadDefinitions("checks.yaml")
	if err != nil {
		return err
	}
	if _, err := checks.Ensure(ctx, client, projectID, defs); err != nil {
		return err
	}

# Local checks

A set of code-based checks is also implemented locally, for offline runs
against the in-memory platform. Each [Builtin] receives a [Subject] and reports
through an [Observer]:

  - Grade records the check's value for the subject.
  - Fail marks the subject as not passing a boolean check.
  - Log records a diagnostic message.

A [Scorer] evaluates a fixed list of checks, one [Namespace] per
check, and aggregates the collected grades into mean scores and pass rates:

	scorer, err := checks.NewScorer("exact_match", "levenshtein_distance")
	if err != nil {
		return err
	}
	for _, s := range subjects {
		values := scorer.Evaluate(s)
		// per data point values
	}
	summary := scorer.Summary()

Every evaluation is also exported as Prometheus metrics labeled by check
namespace.
*/
package checks
