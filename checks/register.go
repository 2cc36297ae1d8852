/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checks

import (
	"context"
	"fmt"
	"os"

	"github.com/chainguard-dev/clog"
	"gopkg.in/yaml.v3"

	"chainguard.dev/evalcookbook/platform"
)

// Definition describes a check to be generated by the platform.
type Definition struct {
	Name                   string `json:"name" yaml:"name" jsonschema:"required"`
	Description            string `json:"description" yaml:"description" jsonschema:"required"`
	OutputDataType         string `json:"output_data_type,omitempty" yaml:"output_data_type,omitempty" jsonschema:"enum=bool,enum=int,enum=float"`
	RequiresScenarioInput  bool   `json:"requires_scenario_input,omitempty" yaml:"requires_scenario_input,omitempty"`
	RequiresScenarioResult bool   `json:"requires_scenario_result,omitempty" yaml:"requires_scenario_result,omitempty"`
	// Update regenerates the check even when it already exists.
	Update bool `json:"update,omitempty" yaml:"update,omitempty"`
}

// Validate checks that the definition can be sent to the platform.
func (d Definition) Validate() error {
	if d.Name == "" {
		return platform.Errorf("check definition", platform.ErrValidation, "name is required")
	}
	if d.Description == "" {
		return platform.Errorf("check definition", platform.ErrValidation, "check %q: description is required", d.Name)
	}
	switch d.OutputDataType {
	case "", OutputBool, OutputInt, OutputFloat:
	default:
		return platform.Errorf("check definition", platform.ErrValidation, "check %q: unknown output data type %q", d.Name, d.OutputDataType)
	}
	return nil
}

// LoadDefinitions reads a YAML list of check definitions.
func LoadDefinitions(path string) ([]Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading check definitions: %w", err)
	}
	var defs []Definition
	if err := yaml.Unmarshal(b, &defs); err != nil {
		return nil, platform.Errorf("load check definitions", platform.ErrValidation, "parsing %s: %w", path, err)
	}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

// Ensure makes every definition available in the project. Checks that already
// exist are kept unless the definition asks for an update; the others are
// generated by the platform and uploaded. It returns the uploaded checks.
func Ensure(ctx context.Context, client platform.Interface, projectID string, defs []Definition) ([]platform.Check, error) {
	log := clog.FromContext(ctx).With("project_id", projectID)

	existing, err := client.Checks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing checks: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, c := range existing {
		known[c.Name] = true
	}

	var uploaded []platform.Check
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return uploaded, err
		}
		if known[d.Name] && !d.Update {
			log.Info("Check already exists", "check", d.Name)
			continue
		}

		outputType := d.OutputDataType
		if outputType == "" {
			outputType = OutputBool
		}
		gen, err := client.GenerateCheck(ctx, platform.CheckGenerate{
			ProjectID:              projectID,
			Name:                   d.Name,
			Description:            d.Description,
			OutputDataType:         outputType,
			RequiresScenarioInput:  d.RequiresScenarioInput,
			RequiresScenarioResult: d.RequiresScenarioResult,
		})
		if err != nil {
			return uploaded, fmt.Errorf("generating check %q: %w", d.Name, err)
		}
		if gen.GeneratedCode == "" {
			return uploaded, platform.Errorf("generate check", platform.ErrUpstream, "check %q: no code was generated", d.Name)
		}

		description := gen.Description
		if description == "" {
			description = d.Description
		}
		check, err := client.UploadCheck(ctx, platform.CheckUpload{
			ProjectID:              projectID,
			Name:                   d.Name,
			Description:            description,
			OutputDataType:         gen.OutputDataType,
			RequiresScenarioInput:  gen.RequiresScenarioInput,
			RequiresScenarioResult: gen.RequiresScenarioResult,
			GeneratedCode:          gen.GeneratedCode,
			Update:                 known[d.Name],
		})
		if err != nil {
			return uploaded, fmt.Errorf("uploading check %q: %w", d.Name, err)
		}
		log.Info("Uploaded check", "check", check.Name, "check_id", check.ID)
		uploaded = append(uploaded, *check)
	}
	return uploaded, nil
}
