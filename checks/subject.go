/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checks

import (
	"encoding/json"
	"strings"

	"chainguard.dev/evalcookbook/adapter"
	"chainguard.dev/evalcookbook/prompt"
)

// Subject is a single prediction to be scored.
type Subject struct {
	// Input is the scenario input given to the model.
	Input any
	// Prediction is the model output. For multi-turn runs it is the
	// conversation as a []adapter.Message.
	Prediction any
	// Expected is the scenario result.
	Expected any
	// Metadata is the model output metadata, if any.
	Metadata map[string]any
}

// PredictionText returns the prediction as text. Conversations yield the
// assistant turns joined by newlines.
func (s Subject) PredictionText() string {
	if msgs, ok := messages(s.Prediction); ok {
		var parts []string
		for _, m := range msgs {
			if m.Role == adapter.RoleAssistant {
				parts = append(parts, m.Content)
			}
		}
		return strings.Join(parts, "\n")
	}
	return text(s.Prediction)
}

// InputText returns the scenario input as text.
func (s Subject) InputText() string {
	return text(s.Input)
}

// ExpectedText returns the scenario result as text.
func (s Subject) ExpectedText() string {
	return text(s.Expected)
}

func text(v any) string {
	s, err := prompt.Value(v)
	if err != nil {
		return ""
	}
	return s
}

// messages recognizes a conversation, either typed or decoded from JSON.
func messages(v any) ([]adapter.Message, bool) {
	switch v := v.(type) {
	case []adapter.Message:
		return v, true
	case []any:
		var msgs []adapter.Message
		if err := convert(v, &msgs); err != nil || len(msgs) == 0 {
			return nil, false
		}
		for _, m := range msgs {
			if m.Role == "" {
				return nil, false
			}
		}
		return msgs, true
	}
	return nil, false
}

// convert re-decodes an arbitrary value into out through JSON.
func convert(v, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
