/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checks

import (
	"strings"

	"chainguard.dev/evalcookbook/platform"
)

// Scorer evaluates a fixed list of builtin checks and aggregates the results.
// Evaluate may be called concurrently.
type Scorer struct {
	checks []Builtin
	root   *Namespace[*Collector]
}

// NewScorer returns a scorer for the named builtin checks. An unknown name is
// a platform.ErrNotFound error.
func NewScorer(names ...string) (*Scorer, error) {
	s := &Scorer{
		root: NewNamespaceTree(func(namespace string) *Collector {
			return NewCollector(NewMetricsObserver(namespace))
		}),
	}
	for _, name := range names {
		b, ok := Lookup(name)
		if !ok {
			return nil, platform.Errorf("score", platform.ErrNotFound, "no local implementation of check %q", name)
		}
		s.checks = append(s.checks, b)
	}
	return s, nil
}

// pointObserver captures the outcome of one evaluation before forwarding it.
type pointObserver struct {
	Observer
	score  float64
	graded bool
	failed bool
}

func (p *pointObserver) Grade(score float64, reasoning string) {
	p.score, p.graded = score, true
	p.Observer.Grade(score, reasoning)
}

func (p *pointObserver) Fail(msg string) {
	p.failed = true
	p.Observer.Fail(msg)
}

// Evaluate runs every check against the subject and returns the value of each
// check keyed by name. A check that records no grade is omitted.
func (s *Scorer) Evaluate(subject Subject) map[string]float64 {
	values := make(map[string]float64, len(s.checks))
	for _, c := range s.checks {
		obs := s.root.Child(c.Name).Observer()
		obs.Increment()
		p := &pointObserver{Observer: obs}
		c.Eval(p, subject)
		if p.graded {
			values[c.Name] = p.score
		}
	}
	return values
}

// Summary aggregates the evaluations so far.
type Summary struct {
	// MeanScores is the mean grade of each check.
	MeanScores map[string]float64
	// PassRates is the fraction of passing evaluations of each boolean check.
	PassRates map[string]float64
	// Failures holds the failure messages of each check.
	Failures map[string][]string
}

// Summary aggregates the grades collected under each check namespace.
func (s *Scorer) Summary() Summary {
	sum := Summary{
		MeanScores: map[string]float64{},
		PassRates:  map[string]float64{},
		Failures:   map[string][]string{},
	}
	s.root.Walk(func(namespace string, c *Collector) {
		name := strings.TrimPrefix(namespace, "/")
		if name == "" {
			return
		}
		b, ok := Lookup(name)
		if !ok {
			return
		}
		if mean, ok := c.MeanScore(); ok {
			sum.MeanScores[name] = mean
		}
		if failures := c.Failures(); len(failures) > 0 {
			sum.Failures[name] = failures
		}
		if rate, ok := c.PassRate(); ok && b.OutputDataType == OutputBool {
			sum.PassRates[name] = rate
		}
	})
	return sum
}
