/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"errors"
	"fmt"
	"sync"

	"chainguard.dev/evalcookbook/platform"
)

// ErrInvalidTransition is returned when a run is moved backwards or out of a
// terminal state.
var ErrInvalidTransition = errors.New("invalid run state transition")

// State is the lifecycle stage of a Run.
type State int

const (
	Created State = iota
	ScenarioBound
	ModelBound
	Executing
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case ScenarioBound:
		return "scenario_bound"
	case ModelBound:
		return "model_bound"
	case Executing:
		return "executing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// Run tracks a single test run from creation to completion. States only move
// forward one step at a time, except that any non-terminal state may fail.
type Run struct {
	Name string
	Type platform.TestRunType

	mu      sync.Mutex
	state   State
	history []State
	result  *platform.TestRun
	err     error
}

// NewRun returns a run in the Created state.
func NewRun(name string, typ platform.TestRunType) *Run {
	return &Run{Name: name, Type: typ, state: Created, history: []State{Created}}
}

// State returns the current state.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// History returns every state the run has been in, oldest first.
func (r *Run) History() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.history...)
}

// Result returns the completed platform run, or nil unless Completed.
func (r *Run) Result() *platform.TestRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Err returns the failure cause of a Failed run.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Advance moves the run to the next state.
func (r *Run) Advance(to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if to == Failed || to == Completed {
		return fmt.Errorf("%w: %s must be reached with Complete or Fail", ErrInvalidTransition, to)
	}
	return r.moveLocked(to)
}

// Complete records the platform result and moves the run to Completed.
func (r *Run) Complete(result *platform.TestRun) error {
	if result == nil {
		return errors.New("complete: nil test run")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.moveLocked(Completed); err != nil {
		return err
	}
	r.result = result
	return nil
}

// Fail records the cause and moves the run to Failed. It returns cause so
// callers can write "return run.Fail(err)".
func (r *Run) Fail(cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.moveLocked(Failed); err != nil {
		return errors.Join(cause, err)
	}
	r.err = cause
	return cause
}

func (r *Run) moveLocked(to State) error {
	switch {
	case r.state.Terminal():
		return fmt.Errorf("%w: run is %s", ErrInvalidTransition, r.state)
	case to == Failed:
	case to != r.state+1:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.state, to)
	}
	r.state = to
	r.history = append(r.history, to)
	return nil
}
