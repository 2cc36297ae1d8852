/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package flow runs declarative evaluation flows described in YAML.
//
// A flow names a project, a scenario set, a model and a run, plus the
// thresholds its report must meet:
//
//	name: capitals
//	scenario:
//	  name: capitals
//	  seed:
//	    - {input: France, result: Paris}
//	model:
//	  name: capitals-oracle
//	  custom: expected
//	run:
//	  type: MULTI_CLASS_CLASSIFICATION
//	thresholds:
//	  metrics_min: {accuracy: 0.9}
package flow

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"chainguard.dev/evalcookbook/adapter"
	"chainguard.dev/evalcookbook/checks"
	"chainguard.dev/evalcookbook/platform"
	"chainguard.dev/evalcookbook/report"
	"chainguard.dev/evalcookbook/scenario"
)

// File is a flow definition.
type File struct {
	Name string `json:"name" yaml:"name" jsonschema:"required,description=Name of the flow"`
	// Project defaults to the configured project.
	Project  string   `json:"project,omitempty" yaml:"project,omitempty" jsonschema:"description=Project name; defaults to PROJECT_NAME"`
	Scenario Scenario `json:"scenario" yaml:"scenario" jsonschema:"required"`
	Model    Model    `json:"model" yaml:"model" jsonschema:"required"`
	Run      Run      `json:"run" yaml:"run" jsonschema:"required"`
	// Checks are generated and uploaded before the run when missing.
	Checks     []checks.Definition `json:"checks,omitempty" yaml:"checks,omitempty" jsonschema:"description=Custom checks to ensure before the run"`
	Thresholds report.Thresholds   `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	OnFailure  report.OnFailure    `json:"on_failure,omitempty" yaml:"on_failure,omitempty" jsonschema:"enum=throw,enum=report"`

	// dir resolves relative scenario files.
	dir string
}

// Scenario selects the scenario set of a flow: inline seed records or a file.
type Scenario struct {
	Name string            `json:"name" yaml:"name" jsonschema:"required"`
	Seed []scenario.Record `json:"seed,omitempty" yaml:"seed,omitempty" jsonschema:"description=Inline seed records"`
	// File is a newline-delimited JSON file, relative to the flow file, or a gs:// URI.
	File     string    `json:"file,omitempty" yaml:"file,omitempty" jsonschema:"description=Path or gs:// URI of a JSONL scenario file"`
	Generate *Generate `json:"generate,omitempty" yaml:"generate,omitempty"`
}

// Generate derives a synthetic scenario set from the seed set.
type Generate struct {
	Name  string                `json:"name,omitempty" yaml:"name,omitempty"`
	Type  platform.ScenarioType `json:"type,omitempty" yaml:"type,omitempty" jsonschema:"enum=SEED,enum=REPHRASE_INVARIANT,enum=COMMON_MISSPELLINGS,enum=COMMON_CONTRACTIONS,enum=TEXT_REVERSE_QUESTION"`
	Count int                   `json:"count" yaml:"count" jsonschema:"required,minimum=1"`
}

// Model is the model under test. Exactly one of Hosted, Custom or Driver is set.
type Model struct {
	Name   string   `json:"name" yaml:"name" jsonschema:"required"`
	Upsert bool     `json:"upsert,omitempty" yaml:"upsert,omitempty"`
	Tags   []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	Hosted *Hosted `json:"hosted,omitempty" yaml:"hosted,omitempty"`
	// Custom names a built-in local model.
	Custom string  `json:"custom,omitempty" yaml:"custom,omitempty" jsonschema:"enum=expected,enum=echo,enum=refuse"`
	Driver *Driver `json:"driver,omitempty" yaml:"driver,omitempty"`
}

// Hosted is a prompt model executed by the platform.
type Hosted struct {
	Provider             string  `json:"provider" yaml:"provider" jsonschema:"required"`
	ModelID              string  `json:"model_id" yaml:"model_id" jsonschema:"required"`
	Temperature          float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" jsonschema:"minimum=0,maximum=2"`
	SystemPromptTemplate string  `json:"system_prompt_template,omitempty" yaml:"system_prompt_template,omitempty"`
	UserPromptTemplate   string  `json:"user_prompt_template,omitempty" yaml:"user_prompt_template,omitempty"`
	DialogTemplate       string  `json:"dialog_template,omitempty" yaml:"dialog_template,omitempty"`
}

// Driver is a multi-turn conversation driven by a persona.
type Driver struct {
	MaxTurns  int                 `json:"max_turns" yaml:"max_turns" jsonschema:"required,minimum=1"`
	Repeats   int                 `json:"repeats,omitempty" yaml:"repeats,omitempty" jsonschema:"minimum=1"`
	FirstTurn string              `json:"first_turn,omitempty" yaml:"first_turn,omitempty" jsonschema:"enum=driver,enum=target"`
	Persona   adapter.PersonaSpec `json:"persona" yaml:"persona"`
	// Target is a hosted model or, with Custom, a built-in local target.
	Target Target `json:"target" yaml:"target" jsonschema:"required"`
}

// Target is the conversational target of a driver.
type Target struct {
	Hosted *Hosted `json:"hosted,omitempty" yaml:"hosted,omitempty"`
	Custom string  `json:"custom,omitempty" yaml:"custom,omitempty" jsonschema:"enum=echo,enum=refuse"`
}

// Run configures the test run.
type Run struct {
	Name        string               `json:"name,omitempty" yaml:"name,omitempty"`
	Type        platform.TestRunType `json:"type" yaml:"type" jsonschema:"required,enum=MULTI_CLASS_CLASSIFICATION,enum=INFORMATION_RETRIEVAL,enum=NL_GENERATION,enum=MULTI_TURN"`
	Checks      []string             `json:"checks,omitempty" yaml:"checks,omitempty"`
	Tags        []string             `json:"tags,omitempty" yaml:"tags,omitempty"`
	Parallelism int                  `json:"parallelism,omitempty" yaml:"parallelism,omitempty" jsonschema:"minimum=1"`
}

// Load reads and validates a flow file.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading flow: %w", err)
	}
	f, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

// Parse decodes and validates a flow. Unknown fields are rejected.
func Parse(b []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, platform.Errorf("parse flow", platform.ErrValidation, "%w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func invalid(format string, args ...any) error {
	return platform.Errorf("validate flow", platform.ErrValidation, format, args...)
}

// Validate checks the flow for missing or conflicting settings. Model
// details are validated by the adapter when the flow runs.
func (f *File) Validate() error {
	if f.Name == "" {
		return invalid("name is required")
	}

	s := f.Scenario
	switch {
	case s.Name == "":
		return invalid("scenario.name is required")
	case len(s.Seed) > 0 && s.File != "":
		return invalid("scenario: seed and file are mutually exclusive")
	case len(s.Seed) == 0 && s.File == "":
		return invalid("scenario: one of seed or file is required")
	}
	if len(s.Seed) > 0 {
		if err := scenario.Validate(s.Seed); err != nil {
			return fmt.Errorf("scenario.seed: %w", err)
		}
	}
	if s.Generate != nil && s.Generate.Count < 1 {
		return invalid("scenario.generate.count must be at least 1")
	}

	m := f.Model
	if m.Name == "" {
		return invalid("model.name is required")
	}
	var set int
	for _, present := range []bool{m.Hosted != nil, m.Custom != "", m.Driver != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return invalid("model: exactly one of hosted, custom or driver is required")
	}
	if m.Driver != nil && (m.Driver.Target.Hosted != nil) == (m.Driver.Target.Custom != "") {
		return invalid("model.driver.target: exactly one of hosted or custom is required")
	}

	if !f.Run.Type.Valid() {
		return invalid("run.type %q is not a known run type", f.Run.Type)
	}
	if f.Run.Parallelism < 0 {
		return invalid("run.parallelism must not be negative")
	}
	for _, d := range f.Checks {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	if err := f.Thresholds.Validate(); err != nil {
		return err
	}
	if f.OnFailure != "" {
		if _, err := report.ParseOnFailure(string(f.OnFailure)); err != nil {
			return invalid("on_failure: %w", err)
		}
	}
	return nil
}

// ScenarioPath resolves the scenario file relative to the flow file.
func (f *File) ScenarioPath() string {
	p := f.Scenario.File
	if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "gs://") || f.dir == "" {
		return p
	}
	return filepath.Join(f.dir, p)
}
