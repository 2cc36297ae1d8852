/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checks

import (
	"fmt"
	"slices"
	"sort"
)

// ToolCall is a single function call predicted by a model.
type ToolCall struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

// Parameter describes an expected function parameter.
type Parameter struct {
	Value    any    `json:"value"`
	Type     string `json:"type,omitempty"`
	Required bool   `json:"required"`
}

// FunctionSpec is the expected function call of a scenario result.
type FunctionSpec struct {
	Name                 string               `json:"name"`
	ParameterDefinitions map[string]Parameter `json:"parameter_definitions"`
}

type toolCalls struct {
	ToolCalls []ToolCall `json:"tool_calls"`
}

// firstCall decodes the first tool call of a prediction shaped as
// {"tool_calls": [{"name": ..., "parameters": {...}}]}.
func firstCall(prediction any) (ToolCall, error) {
	var tc toolCalls
	if err := convert(prediction, &tc); err != nil {
		return ToolCall{}, fmt.Errorf("decoding tool calls: %w", err)
	}
	if len(tc.ToolCalls) == 0 {
		return ToolCall{}, fmt.Errorf("prediction has no tool calls")
	}
	return tc.ToolCalls[0], nil
}

func expectedFunction(expected any) (FunctionSpec, error) {
	var fs FunctionSpec
	if err := convert(expected, &fs); err != nil {
		return FunctionSpec{}, fmt.Errorf("decoding expected function: %w", err)
	}
	if fs.Name == "" {
		return FunctionSpec{}, fmt.Errorf("expected result names no function")
	}
	return fs, nil
}

// withCall decodes both sides of a function call subject before evaluating.
func withCall(fn func(o Observer, call ToolCall, want FunctionSpec)) Func {
	return func(o Observer, s Subject) {
		call, err := firstCall(s.Prediction)
		if err != nil {
			pass(o, false, err.Error())
			return
		}
		want, err := expectedFunction(s.Expected)
		if err != nil {
			pass(o, false, err.Error())
			return
		}
		fn(o, call, want)
	}
}

var functionCorrect = withCall(func(o Observer, call ToolCall, want FunctionSpec) {
	pass(o, call.Name == want.Name, fmt.Sprintf("function: got = %q, wanted = %q", call.Name, want.Name))
})

var requiredParamsPresent = withCall(func(o Observer, call ToolCall, want FunctionSpec) {
	var missing []string
	for name, p := range want.ParameterDefinitions {
		if _, ok := call.Parameters[name]; p.Required && !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	pass(o, len(missing) == 0, fmt.Sprintf("missing required parameters: %v", missing))
})

var allParamsExpected = withCall(func(o Observer, call ToolCall, want FunctionSpec) {
	var unexpected []string
	for name := range call.Parameters {
		if _, ok := want.ParameterDefinitions[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	sort.Strings(unexpected)
	pass(o, len(unexpected) == 0, fmt.Sprintf("unexpected parameters: %v", unexpected))
})

var paramValuesMatch = withCall(func(o Observer, call ToolCall, want FunctionSpec) {
	names := make([]string, 0, len(want.ParameterDefinitions))
	for name := range want.ParameterDefinitions {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		p := want.ParameterDefinitions[name]
		if p.Value == nil {
			continue
		}
		got, ok := call.Parameters[name]
		if !ok {
			if p.Required {
				pass(o, false, fmt.Sprintf("parameter %s: got = missing, wanted = %v", name, p.Value))
				return
			}
			continue
		}
		if text(got) != text(p.Value) {
			pass(o, false, fmt.Sprintf("parameter %s: got = %v, wanted = %v", name, got, p.Value))
			return
		}
	}
	pass(o, true, "parameter values match")
})
