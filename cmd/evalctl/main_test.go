/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainguard.dev/evalcookbook/platform"
	"chainguard.dev/evalcookbook/report"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("OKAREO_API_KEY", "")
	t.Setenv("EVAL_ON_FAILURE", "")
	t.Setenv("PROJECT_NAME", "")

	cmd := buildRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunOffline(t *testing.T) {
	out, err := execute(t, "run", "--offline", "-f", "../../flow/testdata/capitals.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "accuracy")
}

func TestRunOfflineJSON(t *testing.T) {
	out, err := execute(t, "run", "--offline", "-f", "../../flow/testdata/capitals.yaml", "-o", "json")
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{{
		name: "missing file flag",
		args: []string{"run", "--offline"},
	}, {
		name: "unknown format",
		args: []string{"run", "--offline", "-f", "../../flow/testdata/capitals.yaml", "-o", "yaml"},
	}, {
		name: "missing flow",
		args: []string{"run", "--offline", "-f", "testdata/nope.yaml"},
	}, {
		name: "online without key",
		args: []string{"run", "-f", "../../flow/testdata/capitals.yaml"},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Errorf("execute(%v) = nil, wanted error", tt.args)
			}
		})
	}
}

func TestProjectsOffline(t *testing.T) {
	out, err := execute(t, "projects", "--offline", "--project", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "demo")
}

func TestHistoryOfflineUnknownModel(t *testing.T) {
	_, err := execute(t, "history", "--offline", "--model", "missing")
	assert.ErrorIs(t, err, platform.ErrNotFound)
}

func TestSchema(t *testing.T) {
	for _, kind := range []string{"flow", "thresholds", "checks"} {
		t.Run(kind, func(t *testing.T) {
			out, err := execute(t, "schema", kind)
			require.NoError(t, err)
			assert.True(t, json.Valid([]byte(out)), "schema %s is not valid JSON", kind)
		})
	}

	if _, err := execute(t, "schema", "nope"); err == nil {
		t.Error("schema nope = nil, wanted error")
	}
}

func TestRecent(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	runs := []platform.TestRun{
		{ID: "c", StartTime: base.Add(2 * time.Hour)},
		{ID: "a", StartTime: base},
		{ID: "d", StartTime: base.Add(3 * time.Hour)},
		{ID: "b", StartTime: base.Add(time.Hour)},
	}

	tests := []struct {
		name string
		n    int
		want []string
	}{{
		name: "last two",
		n:    2,
		want: []string{"c", "d"},
	}, {
		name: "more than available",
		n:    10,
		want: []string{"a", "b", "c", "d"},
	}, {
		name: "zero means all",
		n:    0,
		want: []string{"a", "b", "c", "d"},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := recent(runs, tt.n, report.Thresholds{})
			got := make([]string, 0, len(entries))
			for _, e := range entries {
				got = append(got, e.Run.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "c", runs[0].ID, "input reordered")
}
