/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package schema_test

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"chainguard.dev/evalcookbook/checks"
	"chainguard.dev/evalcookbook/flow"
	"chainguard.dev/evalcookbook/report"
	"chainguard.dev/evalcookbook/schema"
)

func TestReflect(t *testing.T) {
	type nested struct {
		Value string `json:"value" jsonschema:"description=Nested value"`
	}
	type sample struct {
		Name   string  `json:"name" jsonschema:"description=Name,required"`
		Count  int     `json:"count,omitempty"`
		Nested *nested `json:"nested,omitempty"`
	}

	s := schema.Reflect(&sample{})
	require.NotNil(t, s)
	if diff := cmp.Diff([]string{"name"}, s.Required); diff != "" {
		t.Errorf("required (-want +got):\n%s", diff)
	}

	name, ok := s.Properties.Get("name")
	require.True(t, ok, "missing name property")
	if name.Description != "Name" {
		t.Errorf("description: got = %q, wanted = Name", name.Description)
	}

	nestedSchema, ok := s.Properties.Get("nested")
	require.True(t, ok, "missing nested property")
	value, ok := nestedSchema.Properties.Get("value")
	require.True(t, ok, "missing nested value property")
	if value.Description != "Nested value" {
		t.Errorf("nested description: got = %q, wanted = Nested value", value.Description)
	}
}

func TestFlowSchema(t *testing.T) {
	s := schema.ReflectType[flow.File]()

	for _, field := range []string{"name", "scenario", "model", "run"} {
		if !slices.Contains(s.Required, field) {
			t.Errorf("required: %v does not contain %q", s.Required, field)
		}
	}

	onFailure, ok := s.Properties.Get("on_failure")
	require.True(t, ok, "missing on_failure property")
	if diff := cmp.Diff([]any{"throw", "report"}, onFailure.Enum); diff != "" {
		t.Errorf("on_failure enum (-want +got):\n%s", diff)
	}

	run, ok := s.Properties.Get("run")
	require.True(t, ok, "missing run property")
	typ, ok := run.Properties.Get("type")
	require.True(t, ok, "missing run.type property")
	if got := len(typ.Enum); got != 4 {
		t.Errorf("run.type enum: got %d values, wanted 4", got)
	}

	// Unexported fields never leak into the schema.
	if _, ok := s.Properties.Get("dir"); ok {
		t.Error("schema exposes the unexported dir field")
	}
}

func TestJSON(t *testing.T) {
	tests := []struct {
		name   string
		render func() ([]byte, error)
		props  []string
	}{{
		name:   "thresholds",
		render: func() ([]byte, error) { return schema.JSON[report.Thresholds]("Thresholds") },
		props:  []string{"error_max", "metrics_max", "metrics_min", "pass_rate"},
	}, {
		name:   "check definition",
		render: func() ([]byte, error) { return schema.JSON[checks.Definition]("Check definition") },
		props:  []string{"description", "name", "output_data_type", "requires_scenario_input", "requires_scenario_result", "update"},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.render()
			require.NoError(t, err)

			var doc struct {
				Title                string         `json:"title"`
				Properties           map[string]any `json:"properties"`
				AdditionalProperties *bool          `json:"additionalProperties"`
			}
			require.NoError(t, json.Unmarshal(b, &doc))
			if doc.Title == "" {
				t.Error("title is empty")
			}
			var got []string
			for k := range doc.Properties {
				got = append(got, k)
			}
			slices.Sort(got)
			if diff := cmp.Diff(tt.props, got); diff != "" {
				t.Errorf("properties (-want +got):\n%s", diff)
			}
			if doc.AdditionalProperties == nil || *doc.AdditionalProperties {
				t.Errorf("additionalProperties: got = %v, wanted false", doc.AdditionalProperties)
			}
		})
	}
}
