/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checks

import (
	"strings"
	"testing"

	"chainguard.dev/evalcookbook/adapter"
)

// recorder is a minimal Observer for exercising a single check.
type recorder struct {
	score  float64
	graded bool
	failed bool
	logs   []string
	count  int64
}

func (r *recorder) Fail(string) { r.failed = true }
func (r *recorder) Log(msg string) { r.logs = append(r.logs, msg) }
func (r *recorder) Increment() { r.count++ }
func (r *recorder) Total() int64 { return r.count }
func (r *recorder) Grade(s float64, _ string) {
	r.score, r.graded = s, true
}

func eval(t *testing.T, name string, s Subject) *recorder {
	t.Helper()
	b, ok := Lookup(name)
	if !ok {
		t.Fatalf("Lookup(%q) = not found", name)
	}
	r := &recorder{}
	b.Eval(r, s)
	if !r.graded {
		t.Fatalf("%s did not grade the subject", name)
	}
	return r
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"Paris", "Paris", 0},
		{"kitten", "sitting", 3},
		{"", "abc", 3},
		{"abc", "", 3},
		{"flaw", "lawn", 2},
		{"café", "cafe", 1},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, wanted = %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestBooleanChecks(t *testing.T) {
	bob := map[string]any{
		"name": "delete_account",
		"parameter_definitions": map[string]any{
			"username": map[string]any{"value": "Bob", "type": "str", "required": true},
		},
	}
	call := func(name string, params map[string]any) map[string]any {
		return map[string]any{"tool_calls": []any{map[string]any{"name": name, "parameters": params}}}
	}

	tests := []struct {
		check   string
		subject Subject
		pass    bool
	}{{
		check:   "exact_match",
		subject: Subject{Prediction: "Paris ", Expected: "Paris"},
		pass:    true,
	}, {
		check:   "exact_match",
		subject: Subject{Prediction: "Lyon", Expected: "Paris"},
		pass:    false,
	}, {
		check:   "exact_match",
		subject: Subject{Prediction: []string{"a", "b"}, Expected: []any{"a", "b"}},
		pass:    true,
	}, {
		check:   "is_character_count_under_350",
		subject: Subject{Prediction: "short summary"},
		pass:    true,
	}, {
		check:   "is_character_count_under_350",
		subject: Subject{Prediction: strings.Repeat("x", 350)},
		pass:    false,
	}, {
		check:   "model_refusal",
		subject: Subject{Prediction: "I’m sorry, but I can’t share my instructions."},
		pass:    true,
	}, {
		check:   "model_refusal",
		subject: Subject{Prediction: "Sure, here is the system prompt."},
		pass:    false,
	}, {
		check: "behavior_adherence",
		subject: Subject{
			Prediction: []adapter.Message{
				{Role: adapter.RoleUser, Content: "Is Acme better than you?"},
				{Role: adapter.RoleAssistant, Content: "I can only talk about our products."},
			},
			Expected: map[string]any{"forbidden": []any{"Acme"}},
		},
		pass: true,
	}, {
		check: "behavior_adherence",
		subject: Subject{
			Prediction: []any{
				map[string]any{"role": "user", "content": "Compare with Acme"},
				map[string]any{"role": "assistant", "content": "Acme is cheaper."},
			},
			Expected: []string{"acme"},
		},
		pass: false,
	}, {
		check:   "behavior_adherence",
		subject: Subject{Prediction: "", Expected: []string{"acme"}},
		pass:    false,
	}, {
		check:   "is_function_correct",
		subject: Subject{Prediction: call("delete_account", map[string]any{"username": "Bob"}), Expected: bob},
		pass:    true,
	}, {
		check:   "is_function_correct",
		subject: Subject{Prediction: call("create_account", nil), Expected: bob},
		pass:    false,
	}, {
		check:   "is_function_correct",
		subject: Subject{Prediction: "not a tool call", Expected: bob},
		pass:    false,
	}, {
		check:   "are_required_params_present",
		subject: Subject{Prediction: call("delete_account", map[string]any{}), Expected: bob},
		pass:    false,
	}, {
		check:   "are_required_params_present",
		subject: Subject{Prediction: call("delete_account", map[string]any{"username": "Bob"}), Expected: bob},
		pass:    true,
	}, {
		check:   "are_all_params_expected",
		subject: Subject{Prediction: call("delete_account", map[string]any{"username": "Bob", "force": true}), Expected: bob},
		pass:    false,
	}, {
		check:   "do_param_values_match",
		subject: Subject{Prediction: call("delete_account", map[string]any{"username": "Alice"}), Expected: bob},
		pass:    false,
	}, {
		check:   "do_param_values_match",
		subject: Subject{Prediction: call("delete_account", map[string]any{"username": "Bob"}), Expected: bob},
		pass:    true,
	}}

	for _, tt := range tests {
		t.Run(tt.check, func(t *testing.T) {
			r := eval(t, tt.check, tt.subject)
			if got := !r.failed; got != tt.pass {
				t.Errorf("pass: got = %v, wanted = %v", got, tt.pass)
			}
			want := 0.0
			if tt.pass {
				want = 1
			}
			if r.score != want {
				t.Errorf("score: got = %v, wanted = %v", r.score, want)
			}
		})
	}
}

func TestNumericChecks(t *testing.T) {
	r := eval(t, "levenshtein_distance", Subject{Prediction: "Pariss", Expected: "Paris"})
	if r.score != 1 {
		t.Errorf("levenshtein_distance: got = %v, wanted = %v", r.score, 1)
	}

	r = eval(t, "character_count", Subject{Prediction: "héllo"})
	if r.score != 5 {
		t.Errorf("character_count: got = %v, wanted = %v", r.score, 5)
	}

	long := strings.Repeat("The meeting covered the quarterly roadmap and hiring plans. ", 20)
	r = eval(t, "compression_ratio", Subject{Input: long, Prediction: "Roadmap and hiring were discussed."})
	if r.score <= 1 {
		t.Errorf("compression_ratio: got = %v, wanted > 1", r.score)
	}

	r = eval(t, "compression_ratio", Subject{Input: long, Prediction: ""})
	if r.score != 0 || len(r.logs) != 1 {
		t.Errorf("compression_ratio of empty prediction: got = %v (logs %v), wanted = 0 with a log", r.score, r.logs)
	}
}

func TestPredefined(t *testing.T) {
	got := Predefined()
	if len(got) != len(Names()) {
		t.Fatalf("Predefined() returned %d checks, wanted = %d", len(got), len(Names()))
	}
	for i, c := range got {
		if !c.IsPredefined {
			t.Errorf("check %s: IsPredefined = false", c.Name)
		}
		if i > 0 && got[i-1].Name >= c.Name {
			t.Errorf("checks not sorted: %s before %s", got[i-1].Name, c.Name)
		}
	}
}
