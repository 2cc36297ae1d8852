/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"

	"chainguard.dev/evalcookbook/adapter"
)

// Scripted is a Persona that replays fixed lines. Its position is derived
// from the history, so one Scripted can drive repeated conversations.
type Scripted struct {
	Lines []string
}

var _ Persona = (*Scripted)(nil)

// Next implements Persona.
func (s *Scripted) Next(_ context.Context, directive string, history []adapter.Message) (string, error) {
	var n int
	for _, m := range history {
		if m.Role == adapter.RoleUser {
			n++
		}
	}
	if len(s.Lines) == 0 && n == 0 {
		return directive, nil
	}
	if n >= len(s.Lines) {
		return "", ErrEndConversation
	}
	return s.Lines[n], nil
}
