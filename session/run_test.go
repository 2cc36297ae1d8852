/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"chainguard.dev/evalcookbook/platform"
)

func TestRunTransitions(t *testing.T) {
	tests := []struct {
		name    string
		steps   []State
		wantErr bool
		final   State
	}{{
		name:  "forward to executing",
		steps: []State{ScenarioBound, ModelBound, Executing},
		final: Executing,
	}, {
		name:    "skip a state",
		steps:   []State{ModelBound},
		wantErr: true,
		final:   Created,
	}, {
		name:    "backwards",
		steps:   []State{ScenarioBound, ModelBound, ScenarioBound},
		wantErr: true,
		final:   ModelBound,
	}, {
		name:    "repeat a state",
		steps:   []State{ScenarioBound, ScenarioBound},
		wantErr: true,
		final:   ScenarioBound,
	}, {
		name:    "terminal through advance",
		steps:   []State{ScenarioBound, ModelBound, Executing, Completed},
		wantErr: true,
		final:   Executing,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRun("r", platform.Generation)
			var err error
			for _, s := range tt.steps {
				if err = r.Advance(s); err != nil {
					break
				}
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("Advance() error = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("error: got = %v, wanted ErrInvalidTransition", err)
			}
			if got := r.State(); got != tt.final {
				t.Errorf("state: got = %s, wanted = %s", got, tt.final)
			}
		})
	}
}

func TestRunComplete(t *testing.T) {
	r := NewRun("r", platform.Classification)
	for _, s := range []State{ScenarioBound, ModelBound, Executing} {
		require.NoError(t, r.Advance(s))
	}

	// Completing before executing is rejected.
	early := NewRun("early", platform.Classification)
	require.ErrorIs(t, early.Complete(&platform.TestRun{ID: "x"}), ErrInvalidTransition)

	result := &platform.TestRun{ID: "run-1"}
	require.NoError(t, r.Complete(result))
	if r.Result() != result {
		t.Errorf("Result: got = %v, wanted = %v", r.Result(), result)
	}

	want := []State{Created, ScenarioBound, ModelBound, Executing, Completed}
	if diff := cmp.Diff(want, r.History()); diff != "" {
		t.Errorf("history (-want +got):\n%s", diff)
	}

	// Nothing leaves a terminal state.
	require.ErrorIs(t, r.Fail(errors.New("late")), ErrInvalidTransition)
	require.ErrorIs(t, r.Advance(Executing), ErrInvalidTransition)
	if r.State() != Completed {
		t.Errorf("state: got = %s, wanted = %s", r.State(), Completed)
	}
}

func TestRunFail(t *testing.T) {
	cause := errors.New("platform down")
	r := NewRun("r", platform.Retrieval)
	require.NoError(t, r.Advance(ScenarioBound))

	err := r.Fail(cause)
	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, r.Err(), cause)
	if r.State() != Failed {
		t.Errorf("state: got = %s, wanted = %s", r.State(), Failed)
	}
	if r.Result() != nil {
		t.Errorf("Result: got = %v, wanted nil", r.Result())
	}
	if !r.State().Terminal() {
		t.Error("Failed is not terminal")
	}
}

func TestStateString(t *testing.T) {
	if got, want := ModelBound.String(), "model_bound"; got != want {
		t.Errorf("String: got = %s, wanted = %s", got, want)
	}
	if got, want := State(42).String(), "State(42)"; got != want {
		t.Errorf("String: got = %s, wanted = %s", got, want)
	}
}
