/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checks

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"chainguard.dev/evalcookbook/platform"
)

func TestNewScorerUnknown(t *testing.T) {
	_, err := NewScorer("exact_match", "does_not_exist")
	if !errors.Is(err, platform.ErrNotFound) {
		t.Errorf("NewScorer() error = %v, wanted ErrNotFound", err)
	}
}

func TestScorer(t *testing.T) {
	s, err := NewScorer("exact_match", "levenshtein_distance")
	require.NoError(t, err)

	subjects := []Subject{
		{Prediction: "Paris", Expected: "Paris"},
		{Prediction: "Rome", Expected: "Rome"},
		{Prediction: "Berlim", Expected: "Berlin"},
		{Prediction: "Madrid", Expected: "Lisbon"},
	}

	var wg sync.WaitGroup
	values := make([]map[string]float64, len(subjects))
	for i, subj := range subjects {
		wg.Add(1)
		go func() {
			defer wg.Done()
			values[i] = s.Evaluate(subj)
		}()
	}
	wg.Wait()

	if diff := cmp.Diff(map[string]float64{"exact_match": 0, "levenshtein_distance": 1}, values[2]); diff != "" {
		t.Errorf("Evaluate() mismatch (-want +got):\n%s", diff)
	}

	sum := s.Summary()
	if diff := cmp.Diff(map[string]float64{"exact_match": 0.5}, sum.PassRates); diff != "" {
		t.Errorf("PassRates mismatch (-want +got):\n%s", diff)
	}
	// levenshtein: 0 + 0 + 1 + 6
	if diff := cmp.Diff(map[string]float64{"exact_match": 0.5, "levenshtein_distance": 1.75}, sum.MeanScores); diff != "" {
		t.Errorf("MeanScores mismatch (-want +got):\n%s", diff)
	}
	if got := len(sum.Failures["exact_match"]); got != 2 {
		t.Errorf("exact_match failures: got = %d, wanted = %d", got, 2)
	}

	if got := testutil.ToFloat64(evaluationCounter.WithLabelValues("/exact_match")); got < 4 {
		t.Errorf("evaluation counter: got = %v, wanted >= 4", got)
	}
	if got := testutil.ToFloat64(failureCounter.WithLabelValues("/exact_match")); got < 2 {
		t.Errorf("failure counter: got = %v, wanted >= 2", got)
	}
}

func TestScorerEmpty(t *testing.T) {
	s, err := NewScorer()
	require.NoError(t, err)
	if got := s.Evaluate(Subject{Prediction: "x"}); len(got) != 0 {
		t.Errorf("Evaluate() = %v, wanted empty", got)
	}
	sum := s.Summary()
	if len(sum.MeanScores) != 0 || len(sum.PassRates) != 0 {
		t.Errorf("Summary() = %+v, wanted empty", sum)
	}
}
