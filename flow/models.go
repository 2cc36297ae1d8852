/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package flow

import (
	"context"

	"chainguard.dev/evalcookbook/adapter"
	"chainguard.dev/evalcookbook/platform"
)

const refusal = "I'm sorry, but I can't help with that."

// customModels are the local models a flow can name. They exist for dry runs
// of the pipeline and its thresholds.
var customModels = map[string]adapter.InvokeFunc{
	// expected answers with the scenario result.
	"expected": func(_ context.Context, in adapter.Input) (adapter.Invocation, error) {
		return adapter.Invocation{Prediction: in.Expected, Metadata: map[string]any{"model": "expected"}}, nil
	},
	// echo answers with the scenario input.
	"echo": func(_ context.Context, in adapter.Input) (adapter.Invocation, error) {
		return adapter.Invocation{Prediction: in.Value, Metadata: map[string]any{"model": "echo"}}, nil
	},
	"refuse": func(context.Context, adapter.Input) (adapter.Invocation, error) {
		return adapter.Invocation{Prediction: refusal, Metadata: map[string]any{"model": "refuse"}}, nil
	},
}

var customTargets = map[string]adapter.TargetFunc{
	// echo repeats the last persona message.
	"echo": func(_ context.Context, messages []adapter.Message) (adapter.Invocation, error) {
		return adapter.Invocation{Prediction: lastUser(messages)}, nil
	},
	"refuse": func(context.Context, []adapter.Message) (adapter.Invocation, error) {
		return adapter.Invocation{Prediction: refusal}, nil
	},
}

func lastUser(messages []adapter.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == adapter.RoleUser {
			return messages[i].Content
		}
	}
	return "Hello! How can I help you today?"
}

func hosted(h *Hosted) *adapter.Hosted {
	return &adapter.Hosted{
		Provider:             h.Provider,
		ModelID:              h.ModelID,
		Temperature:          h.Temperature,
		SystemPromptTemplate: h.SystemPromptTemplate,
		UserPromptTemplate:   h.UserPromptTemplate,
		DialogTemplate:       h.DialogTemplate,
	}
}

// Adapter builds the model adapter described by m.
func (m Model) Adapter() (adapter.Adapter, error) {
	switch {
	case m.Hosted != nil:
		return hosted(m.Hosted), nil
	case m.Custom != "":
		invoke, ok := customModels[m.Custom]
		if !ok {
			return nil, platform.Errorf("build model", platform.ErrValidation, "unknown custom model %q", m.Custom)
		}
		return &adapter.Custom{Invoke: invoke}, nil
	case m.Driver != nil:
		d := m.Driver
		var target adapter.Adapter
		if d.Target.Hosted != nil {
			target = hosted(d.Target.Hosted)
		} else {
			invoke, ok := customTargets[d.Target.Custom]
			if !ok {
				return nil, platform.Errorf("build model", platform.ErrValidation, "unknown custom target %q", d.Target.Custom)
			}
			target = &adapter.CustomTarget{Invoke: invoke}
		}
		repeats := d.Repeats
		if repeats == 0 {
			repeats = 1
		}
		return &adapter.Driver{
			Target:    target,
			MaxTurns:  d.MaxTurns,
			Repeats:   repeats,
			Persona:   d.Persona,
			FirstTurn: d.FirstTurn,
		}, nil
	}
	return nil, platform.Errorf("build model", platform.ErrValidation, "model %q has no adapter", m.Name)
}
