/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"chainguard.dev/evalcookbook/platform"
)

func hosted() *Hosted {
	return &Hosted{
		Provider:             "openai",
		ModelID:              "gpt-4o-mini",
		Temperature:          0,
		SystemPromptTemplate: "Classify the question into one of: returns, complaints, pricing.",
		UserPromptTemplate:   "{scenario_input}",
	}
}

func TestValidate(t *testing.T) {
	okInvoke := func(context.Context, Input) (Invocation, error) { return Invocation{Prediction: "x"}, nil }
	okTarget := func(context.Context, []Message) (Invocation, error) { return Invocation{Prediction: "x"}, nil }

	tests := []struct {
		name    string
		adapter Adapter
		wantErr string
	}{{
		name:    "hosted",
		adapter: hosted(),
	}, {
		name:    "hosted without provider",
		adapter: &Hosted{ModelID: "m", UserPromptTemplate: "{input}"},
		wantErr: "provider is required",
	}, {
		name:    "hosted without model",
		adapter: &Hosted{Provider: "openai", UserPromptTemplate: "{input}"},
		wantErr: "model id is required",
	}, {
		name:    "hosted without templates",
		adapter: &Hosted{Provider: "openai", ModelID: "m"},
		wantErr: "at least one prompt template",
	}, {
		name:    "hosted with unknown placeholder",
		adapter: &Hosted{Provider: "openai", ModelID: "m", UserPromptTemplate: "{question}"},
		wantErr: "user prompt template",
	}, {
		name:    "hosted temperature out of range",
		adapter: &Hosted{Provider: "openai", ModelID: "m", Temperature: 3, UserPromptTemplate: "{input}"},
		wantErr: "temperature",
	}, {
		name:    "custom",
		adapter: &Custom{Invoke: okInvoke},
	}, {
		name:    "custom without function",
		adapter: &Custom{},
		wantErr: "invoke function is required",
	}, {
		name:    "custom target without function",
		adapter: &CustomTarget{},
		wantErr: "invoke function is required",
	}, {
		name:    "driver with custom target",
		adapter: &Driver{Target: &CustomTarget{Invoke: okTarget}, MaxTurns: 3, Repeats: 1},
	}, {
		name:    "driver with hosted target",
		adapter: &Driver{Target: hosted(), MaxTurns: 5, Repeats: 2, FirstTurn: "target"},
	}, {
		name:    "driver without target",
		adapter: &Driver{MaxTurns: 1, Repeats: 1},
		wantErr: "target is required",
	}, {
		name:    "driver with custom model target",
		adapter: &Driver{Target: &Custom{Invoke: okInvoke}, MaxTurns: 1, Repeats: 1},
		wantErr: "unsupported target kind",
	}, {
		name:    "driver with zero turns",
		adapter: &Driver{Target: hosted(), Repeats: 1},
		wantErr: "max turns",
	}, {
		name:    "driver with zero repeats",
		adapter: &Driver{Target: hosted(), MaxTurns: 1},
		wantErr: "repeats",
	}, {
		name:    "driver with bad first turn",
		adapter: &Driver{Target: hosted(), MaxTurns: 1, Repeats: 1, FirstTurn: "persona"},
		wantErr: "first turn",
	}, {
		name:    "driver with invalid target",
		adapter: &Driver{Target: &Hosted{}, MaxTurns: 1, Repeats: 1},
		wantErr: "driver target",
	}, {
		name:    "driver with nil hosted target",
		adapter: &Driver{Target: (*Hosted)(nil), MaxTurns: 1, Repeats: 1},
		wantErr: "target is required",
	}, {
		name:    "driver with nil custom target",
		adapter: &Driver{Target: (*CustomTarget)(nil), MaxTurns: 1, Repeats: 1},
		wantErr: "target is required",
	}, {
		name:    "nil custom",
		adapter: (*Custom)(nil),
		wantErr: "invoke function is required",
	}, {
		name:    "nil hosted",
		adapter: (*Hosted)(nil),
		wantErr: "hosted model",
	}, {
		name:    "nil driver",
		adapter: (*Driver)(nil),
		wantErr: "driver",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.adapter.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSpec(t *testing.T) {
	temp := 0.0
	h := hosted()
	d := &Driver{
		Target:   h,
		MaxTurns: 4,
		Repeats:  2,
		Persona:  PersonaSpec{Provider: "openai", Model: "gpt-4o", Temperature: 0.8},
	}

	want := platform.ModelSpec{
		Type:     platform.ModelTypeDriver,
		MaxTurns: 4,
		Repeats:  2,
		DriverParams: &platform.DriverParams{
			DriverType:        "openai",
			DriverModel:       "gpt-4o",
			DriverTemperature: 0.8,
		},
		Target: &platform.ModelSpec{
			Type:                 "openai",
			ModelID:              "gpt-4o-mini",
			Temperature:          &temp,
			SystemPromptTemplate: h.SystemPromptTemplate,
			UserPromptTemplate:   "{scenario_input}",
		},
	}
	if diff := cmp.Diff(want, d.Spec()); diff != "" {
		t.Errorf("Spec() mismatch (-want +got):\n%s", diff)
	}

	if got := (&Custom{}).Spec().Type; got != platform.ModelTypeCustom {
		t.Errorf("Custom.Spec().Type = %q, wanted = %q", got, platform.ModelTypeCustom)
	}
	if got := (&CustomTarget{}).Spec().Type; got != platform.ModelTypeCustomTarget {
		t.Errorf("CustomTarget.Spec().Type = %q, wanted = %q", got, platform.ModelTypeCustomTarget)
	}
}

func TestKinds(t *testing.T) {
	tests := []struct {
		adapter Adapter
		want    Kind
	}{
		{&Hosted{}, KindHosted},
		{&Custom{}, KindCustom},
		{&CustomTarget{}, KindCustomTarget},
		{&Driver{}, KindDriver},
	}
	for _, tt := range tests {
		if got := tt.adapter.Kind(); got != tt.want {
			t.Errorf("Kind() = %q, wanted = %q", got, tt.want)
		}
	}
}

func TestClientDriven(t *testing.T) {
	if (&Driver{Target: hosted()}).ClientDriven() {
		t.Error("hosted target should not be client driven")
	}
	if !(&Driver{Target: &CustomTarget{}}).ClientDriven() {
		t.Error("custom target should be client driven")
	}
}

func TestCall(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	tests := []struct {
		name    string
		invoke  InvokeFunc
		want    Invocation
		wantErr error
	}{{
		name: "prediction with defaulted input",
		invoke: func(_ context.Context, in Input) (Invocation, error) {
			return Invocation{Prediction: "Paris"}, nil
		},
		want: Invocation{Prediction: "Paris", Input: "What is the capital of France?"},
	}, {
		name: "explicit input and metadata",
		invoke: func(_ context.Context, in Input) (Invocation, error) {
			return Invocation{Prediction: "Paris", Input: "france", Metadata: map[string]any{"latency_ms": 3}}, nil
		},
		want: Invocation{Prediction: "Paris", Input: "france", Metadata: map[string]any{"latency_ms": 3}},
	}, {
		name: "invoke error",
		invoke: func(context.Context, Input) (Invocation, error) {
			return Invocation{}, boom
		},
		wantErr: boom,
	}, {
		name: "missing prediction",
		invoke: func(context.Context, Input) (Invocation, error) {
			return Invocation{Input: "x"}, nil
		},
		wantErr: platform.ErrAdapter,
	}, {
		name: "panic",
		invoke: func(context.Context, Input) (Invocation, error) {
			var m map[string]string
			m["x"] = "y"
			return Invocation{}, nil
		},
		wantErr: platform.ErrAdapter,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Call(ctx, &Custom{Invoke: tt.invoke}, Input{Value: "What is the capital of France?", Expected: "Paris"})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, platform.ErrAdapter)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Call() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRespond(t *testing.T) {
	ctx := context.Background()

	got, err := Respond(ctx, &CustomTarget{Invoke: func(_ context.Context, msgs []Message) (Invocation, error) {
		return Invocation{Prediction: "echo: " + msgs[len(msgs)-1].Content}, nil
	}}, []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	if got.Prediction != "echo: hi" {
		t.Errorf("Prediction = %v, wanted = %v", got.Prediction, "echo: hi")
	}

	_, err = Respond(ctx, &CustomTarget{Invoke: func(context.Context, []Message) (Invocation, error) {
		return Invocation{Prediction: 42}, nil
	}}, nil)
	require.ErrorIs(t, err, platform.ErrAdapter)

	_, err = Respond(ctx, &CustomTarget{Invoke: func(_ context.Context, msgs []Message) (Invocation, error) {
		return Invocation{Prediction: msgs[3].Content}, nil
	}}, nil)
	require.ErrorIs(t, err, platform.ErrAdapter)
}
