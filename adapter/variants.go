/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package adapter

import (
	"errors"
	"fmt"

	"chainguard.dev/evalcookbook/platform"
	"chainguard.dev/evalcookbook/prompt"
)

// TemplateVariables are the placeholders a hosted model template may reference.
var TemplateVariables = []string{"input", "scenario_input", "result", "scenario_result"}

// Hosted is a model run by the platform against a provider, configured with
// prompt templates.
type Hosted struct {
	// Provider is the platform model type, e.g. "openai".
	Provider string
	// ModelID is the provider's model, e.g. "gpt-4o-mini".
	ModelID     string
	Temperature float64

	SystemPromptTemplate string
	UserPromptTemplate   string
	// DialogTemplate is used instead of the prompt templates for dialog inputs.
	DialogTemplate string
}

func (*Hosted) sealed() {}
func (*Hosted) Kind() Kind { return KindHosted }

// Spec implements Adapter.
func (h *Hosted) Spec() platform.ModelSpec {
	if h == nil {
		return platform.ModelSpec{}
	}
	temp := h.Temperature
	return platform.ModelSpec{
		Type:                 h.Provider,
		ModelID:              h.ModelID,
		Temperature:          &temp,
		SystemPromptTemplate: h.SystemPromptTemplate,
		UserPromptTemplate:   h.UserPromptTemplate,
		DialogTemplate:       h.DialogTemplate,
	}
}

// Validate implements Adapter.
func (h *Hosted) Validate() error {
	if h == nil {
		return errors.New("hosted model: missing")
	}
	if h.Provider == "" {
		return errors.New("hosted model: provider is required")
	}
	if h.ModelID == "" {
		return errors.New("hosted model: model id is required")
	}
	if h.Temperature < 0 || h.Temperature > 2 {
		return fmt.Errorf("hosted model: temperature %v out of range [0, 2]", h.Temperature)
	}
	if h.SystemPromptTemplate == "" && h.UserPromptTemplate == "" && h.DialogTemplate == "" {
		return errors.New("hosted model: at least one prompt template is required")
	}
	for name, tmpl := range map[string]string{
		"system prompt": h.SystemPromptTemplate,
		"user prompt":   h.UserPromptTemplate,
		"dialog":        h.DialogTemplate,
	} {
		if err := prompt.Validate(tmpl, TemplateVariables...); err != nil {
			return fmt.Errorf("hosted model: %s template: %w", name, err)
		}
	}
	return nil
}

// Custom is a model implemented by a caller-supplied function, invoked once per
// scenario record on the client.
type Custom struct {
	Invoke InvokeFunc
}

func (*Custom) sealed() {}
func (*Custom) Kind() Kind { return KindCustom }

// Spec implements Adapter.
func (*Custom) Spec() platform.ModelSpec {
	return platform.ModelSpec{Type: platform.ModelTypeCustom}
}

// Validate implements Adapter.
func (c *Custom) Validate() error {
	if c == nil || c.Invoke == nil {
		return errors.New("custom model: invoke function is required")
	}
	return nil
}

// CustomTarget is the conversational target of a client-driven multi-turn run.
type CustomTarget struct {
	Invoke TargetFunc
}

func (*CustomTarget) sealed() {}
func (*CustomTarget) Kind() Kind { return KindCustomTarget }

// Spec implements Adapter.
func (*CustomTarget) Spec() platform.ModelSpec {
	return platform.ModelSpec{Type: platform.ModelTypeCustomTarget}
}

// Validate implements Adapter.
func (t *CustomTarget) Validate() error {
	if t == nil || t.Invoke == nil {
		return errors.New("custom target: invoke function is required")
	}
	return nil
}

// PersonaSpec selects the LLM that plays the user in a multi-turn conversation.
type PersonaSpec struct {
	// Provider is one of "openai", "anthropic", "google" or "scripted".
	Provider    string  `json:"provider" yaml:"provider"`
	Model       string  `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// Driver wraps a target adapter in a multi-turn conversation driven by a persona.
type Driver struct {
	// Target is a *Hosted (driven by the platform) or *CustomTarget (driven locally).
	Target   Adapter
	MaxTurns int
	Repeats  int
	Persona  PersonaSpec
	// FirstTurn selects who speaks first: "driver" (default) or "target".
	FirstTurn string
}

func (*Driver) sealed() {}
func (*Driver) Kind() Kind { return KindDriver }

// Spec implements Adapter.
func (d *Driver) Spec() platform.ModelSpec {
	spec := platform.ModelSpec{
		Type:      platform.ModelTypeDriver,
		MaxTurns:  d.MaxTurns,
		Repeats:   d.Repeats,
		FirstTurn: d.FirstTurn,
		DriverParams: &platform.DriverParams{
			DriverType:        d.Persona.Provider,
			DriverModel:       d.Persona.Model,
			DriverTemperature: d.Persona.Temperature,
		},
	}
	if d.Target != nil {
		target := d.Target.Spec()
		spec.Target = &target
	}
	return spec
}

// Validate implements Adapter.
func (d *Driver) Validate() error {
	if d == nil {
		return errors.New("driver: missing")
	}
	switch t := d.Target.(type) {
	case *Hosted:
		if t == nil {
			return errors.New("driver: target is required")
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("driver target: %w", err)
		}
	case *CustomTarget:
		if t == nil {
			return errors.New("driver: target is required")
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("driver target: %w", err)
		}
	case nil:
		return errors.New("driver: target is required")
	default:
		return fmt.Errorf("driver: unsupported target kind %q", t.Kind())
	}
	if d.MaxTurns < 1 {
		return fmt.Errorf("driver: max turns must be at least 1, got %d", d.MaxTurns)
	}
	if d.Repeats < 1 {
		return fmt.Errorf("driver: repeats must be at least 1, got %d", d.Repeats)
	}
	switch d.FirstTurn {
	case "", "driver", "target":
	default:
		return fmt.Errorf("driver: first turn must be %q or %q, got %q", "driver", "target", d.FirstTurn)
	}
	return nil
}

// ClientDriven reports whether the conversation must be driven locally.
func (d *Driver) ClientDriven() bool {
	_, ok := d.Target.(*CustomTarget)
	return ok
}
