/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checks

import (
	"slices"
	"sync"
)

// Grade is one value a check recorded, with its reasoning.
type Grade struct {
	Score     float64
	Reasoning string
}

// Collector keeps the grades and failures of one check namespace while
// forwarding everything to another observer, usually a [MetricsObserver].
type Collector struct {
	Observer

	mu       sync.Mutex
	failures []string
	grades   []Grade
}

// NewCollector wraps next.
func NewCollector(next Observer) *Collector {
	return &Collector{Observer: next}
}

func (c *Collector) Fail(msg string) {
	c.Observer.Fail(msg)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, msg)
}

func (c *Collector) Grade(score float64, reasoning string) {
	c.Observer.Grade(score, reasoning)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grades = append(c.grades, Grade{Score: score, Reasoning: reasoning})
}

// Failures returns a copy of the failure messages.
func (c *Collector) Failures() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.failures)
}

// Grades returns a copy of the grades.
func (c *Collector) Grades() []Grade {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.grades)
}

// MeanScore is the mean of the recorded grades. ok is false when the check
// never graded a subject.
func (c *Collector) MeanScore() (mean float64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.grades) == 0 {
		return 0, false
	}
	var total float64
	for _, g := range c.grades {
		total += g.Score
	}
	return total / float64(len(c.grades)), true
}

// PassRate is the fraction of evaluated subjects that did not fail. ok is
// false when nothing was evaluated.
func (c *Collector) PassRate() (rate float64, ok bool) {
	n := c.Total()
	if n == 0 {
		return 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(n-int64(len(c.failures))) / float64(n), true
}
