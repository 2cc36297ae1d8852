/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"chainguard.dev/evalcookbook/adapter"
	"chainguard.dev/evalcookbook/platform"
)

// echo replies with the last user message in upper case.
func echo() *adapter.CustomTarget {
	return &adapter.CustomTarget{
		Invoke: func(_ context.Context, messages []adapter.Message) (adapter.Invocation, error) {
			last := "hello"
			for _, m := range messages {
				if m.Role == adapter.RoleUser {
					last = m.Content
				}
			}
			return adapter.Invocation{
				Prediction: strings.ToUpper(last),
				Metadata:   map[string]any{"seen": len(messages)},
			}, nil
		},
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		persona Persona
		cfg     Config
		want    []adapter.Message
		turns   int
	}{{
		name:    "persona first",
		persona: &Scripted{Lines: []string{"hi", "bye"}},
		cfg:     Config{MaxTurns: 5},
		want: []adapter.Message{
			{Role: adapter.RoleUser, Content: "hi"},
			{Role: adapter.RoleAssistant, Content: "HI"},
			{Role: adapter.RoleUser, Content: "bye"},
			{Role: adapter.RoleAssistant, Content: "BYE"},
		},
		turns: 2,
	}, {
		name:    "target first",
		persona: &Scripted{Lines: []string{"hi"}},
		cfg:     Config{MaxTurns: 3, FirstTurn: "target"},
		want: []adapter.Message{
			{Role: adapter.RoleAssistant, Content: "HELLO"},
			{Role: adapter.RoleUser, Content: "hi"},
			{Role: adapter.RoleAssistant, Content: "HI"},
		},
		turns: 2,
	}, {
		name:    "capped by max turns",
		persona: &Scripted{Lines: []string{"one", "two", "three"}},
		cfg:     Config{MaxTurns: 2},
		want: []adapter.Message{
			{Role: adapter.RoleUser, Content: "one"},
			{Role: adapter.RoleAssistant, Content: "ONE"},
			{Role: adapter.RoleUser, Content: "two"},
			{Role: adapter.RoleAssistant, Content: "TWO"},
		},
		turns: 2,
	}, {
		name:    "directive only",
		persona: &Scripted{},
		cfg:     Config{MaxTurns: 4},
		want: []adapter.Message{
			{Role: adapter.RoleUser, Content: "ask about refunds"},
			{Role: adapter.RoleAssistant, Content: "ASK ABOUT REFUNDS"},
		},
		turns: 1,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv, err := Run(context.Background(), tt.persona, echo(), "ask about refunds", tt.cfg)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, conv.Messages); diff != "" {
				t.Errorf("messages (-want +got):\n%s", diff)
			}
			if conv.Turns != tt.turns {
				t.Errorf("turns: got = %d, wanted = %d", conv.Turns, tt.turns)
			}
			if len(conv.Metadata) != conv.Turns {
				t.Errorf("metadata entries: got = %d, wanted = %d", len(conv.Metadata), conv.Turns)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := Run(ctx, &Scripted{}, echo(), "d", Config{}); err == nil {
		t.Error("Run() with zero max turns: got = nil, wanted error")
	}

	failing := &adapter.CustomTarget{
		Invoke: func(context.Context, []adapter.Message) (adapter.Invocation, error) {
			return adapter.Invocation{}, errors.New("model offline")
		},
	}
	_, err := Run(ctx, &Scripted{Lines: []string{"hi"}}, failing, "d", Config{MaxTurns: 1})
	require.ErrorIs(t, err, platform.ErrAdapter)

	nonString := &adapter.CustomTarget{
		Invoke: func(context.Context, []adapter.Message) (adapter.Invocation, error) {
			return adapter.Invocation{Prediction: 42}, nil
		},
	}
	_, err = Run(ctx, &Scripted{Lines: []string{"hi"}}, nonString, "d", Config{MaxTurns: 1})
	require.ErrorIs(t, err, platform.ErrAdapter)

	boom := errors.New("persona exploded")
	conv, err := Run(ctx, personaFunc(func([]adapter.Message) (string, error) { return "", boom }), echo(), "d", Config{MaxTurns: 1})
	require.ErrorIs(t, err, boom)
	if conv.Turns != 0 {
		t.Errorf("turns: got = %d, wanted = 0", conv.Turns)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Run(cancelled, &Scripted{Lines: []string{"hi"}}, echo(), "d", Config{MaxTurns: 1})
	require.ErrorIs(t, err, context.Canceled)
}

type personaFunc func(history []adapter.Message) (string, error)

func (f personaFunc) Next(_ context.Context, _ string, history []adapter.Message) (string, error) {
	return f(history)
}

func TestRunRepeats(t *testing.T) {
	ctx := context.Background()
	persona := &Scripted{Lines: []string{"hi", "more"}}

	convs, err := RunRepeats(ctx, persona, echo(), "greet", Config{MaxTurns: 2}, 3)
	require.NoError(t, err)
	require.Len(t, convs, 3)

	inv := Invocation("greet", convs)
	messages, ok := inv.Prediction.([]adapter.Message)
	require.True(t, ok, "prediction type: got = %T, wanted []adapter.Message", inv.Prediction)
	if got, want := len(messages), 12; got != want {
		t.Errorf("flattened messages: got = %d, wanted = %d", got, want)
	}
	if inv.Input != "greet" {
		t.Errorf("input: got = %v, wanted = greet", inv.Input)
	}
	if diff := cmp.Diff([]int{2, 2, 2}, inv.Metadata["turns"]); diff != "" {
		t.Errorf("turns (-want +got):\n%s", diff)
	}
	if got := inv.Metadata["repeats"]; got != 3 {
		t.Errorf("repeats: got = %v, wanted = 3", got)
	}

	if _, err := RunRepeats(ctx, persona, echo(), "greet", Config{MaxTurns: 2}, 0); err == nil {
		t.Error("RunRepeats() with zero repeats: got = nil, wanted error")
	}
}

// silent ends every conversation before saying anything.
type silent struct{}

func (silent) Next(context.Context, string, []adapter.Message) (string, error) {
	return "", ErrEndConversation
}

func TestInvocationWithoutReplies(t *testing.T) {
	convs, err := RunRepeats(context.Background(), silent{}, echo(), "greet", Config{MaxTurns: 3}, 2)
	require.NoError(t, err)
	require.Len(t, convs, 2)

	inv := Invocation("greet", convs)
	require.NoError(t, adapter.CheckInvocation(inv))
	b, err := json.Marshal(inv.Prediction)
	require.NoError(t, err)
	if got := string(b); got != "[]" {
		t.Errorf("prediction JSON: got = %s, wanted = []", got)
	}
	if diff := cmp.Diff([]int{0, 0}, inv.Metadata["turns"]); diff != "" {
		t.Errorf("turns (-want +got):\n%s", diff)
	}
}

func TestPersonaTurns(t *testing.T) {
	tests := []struct {
		name    string
		history []adapter.Message
		want    []turn
	}{{
		name: "empty",
		want: []turn{{text: kickoff}},
	}, {
		name: "persona spoke first",
		history: []adapter.Message{
			{Role: adapter.RoleUser, Content: "hi"},
			{Role: adapter.RoleAssistant, Content: "hello"},
		},
		want: []turn{{text: kickoff}, {own: true, text: "hi"}, {text: "hello"}},
	}, {
		name: "target spoke first",
		history: []adapter.Message{
			{Role: adapter.RoleAssistant, Content: "How can I help?"},
		},
		want: []turn{{text: "How can I help?"}},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := personaTurns(tt.history)
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(turn{})); diff != "" {
				t.Errorf("personaTurns (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSystemPrompt(t *testing.T) {
	got, err := systemPrompt(`Insist on a refund for order {"id": 7}.`)
	require.NoError(t, err)
	if !strings.Contains(got, `Insist on a refund for order {"id": 7}.`) {
		t.Errorf("system prompt does not contain the directive: %s", got)
	}
	if strings.Contains(got, "{directive}") {
		t.Errorf("system prompt has an unbound placeholder: %s", got)
	}
}

func TestNewPersona(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		spec    adapter.PersonaSpec
		creds   Credentials
		wantErr bool
	}{{
		name: "scripted",
		spec: adapter.PersonaSpec{Provider: ProviderScripted},
	}, {
		name:  "openai",
		spec:  adapter.PersonaSpec{Provider: ProviderOpenAI, Model: "gpt-4o-mini"},
		creds: Credentials{OpenAIKey: "sk-test"},
	}, {
		name:    "openai without key",
		spec:    adapter.PersonaSpec{Provider: ProviderOpenAI, Model: "gpt-4o-mini"},
		wantErr: true,
	}, {
		name:  "anthropic",
		spec:  adapter.PersonaSpec{Provider: ProviderAnthropic, Model: "claude-sonnet-4"},
		creds: Credentials{AnthropicKey: "sk-ant-test"},
	}, {
		name:    "anthropic without credentials",
		spec:    adapter.PersonaSpec{Provider: ProviderAnthropic},
		wantErr: true,
	}, {
		name:    "google without credentials",
		spec:    adapter.PersonaSpec{Provider: ProviderGoogle},
		wantErr: true,
	}, {
		name:    "unknown",
		spec:    adapter.PersonaSpec{Provider: "parrot"},
		wantErr: true,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPersona(ctx, tt.spec, tt.creds)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewPersona() error = %v, wantErr = %v", err, tt.wantErr)
			}
			if !tt.wantErr && p == nil {
				t.Error("NewPersona() returned a nil persona")
			}
			if tt.wantErr && err != nil && tt.spec.Provider == "parrot" && !strings.Contains(err.Error(), "parrot") {
				t.Errorf("error does not name the provider: %v", err)
			}
		})
	}
}

func ExampleRun() {
	target := &adapter.CustomTarget{
		Invoke: func(_ context.Context, messages []adapter.Message) (adapter.Invocation, error) {
			return adapter.Invocation{Prediction: fmt.Sprintf("reply %d", len(messages))}, nil
		},
	}
	conv, _ := Run(context.Background(), &Scripted{Lines: []string{"hi", "thanks"}}, target, "be polite", Config{MaxTurns: 3})
	for _, m := range conv.Messages {
		fmt.Printf("%s: %s\n", m.Role, m.Content)
	}
	// Output:
	// user: hi
	// assistant: reply 1
	// user: thanks
	// assistant: reply 3
}
