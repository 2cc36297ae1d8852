/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"
	"fmt"

	"chainguard.dev/evalcookbook/adapter"
	"chainguard.dev/evalcookbook/prompt"
)

// Credentials carries the provider keys a persona may need. Keys are taken
// from configuration by the caller; this package never reads the environment.
type Credentials struct {
	OpenAIKey    string
	AnthropicKey string
	GoogleKey    string
	// VertexProject and VertexRegion select Vertex AI for anthropic and google
	// personas when no API key is set.
	VertexProject string
	VertexRegion  string
}

// Persona providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderScripted  = "scripted"
)

// maxPersonaTokens bounds a single persona message.
const maxPersonaTokens = 1024

const systemTemplate = `You are role-playing a user talking to an AI assistant.
Stay in character for the whole conversation and follow these instructions:

{directive}

Reply with only your next message to the assistant, without quotes or commentary.`

// kickoff opens the conversation when the persona speaks first.
const kickoff = "Begin the conversation."

func systemPrompt(directive string) (string, error) {
	return prompt.Render(systemTemplate, map[string]any{"directive": directive})
}

// turn is a history message from the persona's point of view.
type turn struct {
	// own is true for messages the persona sent.
	own  bool
	text string
}

// personaTurns swaps roles so the persona LLM sees its own messages as
// assistant turns. The result always starts with a target turn.
func personaTurns(history []adapter.Message) []turn {
	turns := make([]turn, 0, len(history)+1)
	if len(history) == 0 || history[0].Role == adapter.RoleUser {
		turns = append(turns, turn{text: kickoff})
	}
	for _, m := range history {
		turns = append(turns, turn{own: m.Role == adapter.RoleUser, text: m.Content})
	}
	return turns
}

// NewPersona builds the persona described by spec.
func NewPersona(ctx context.Context, spec adapter.PersonaSpec, creds Credentials) (Persona, error) {
	metrics := NewTokenMetrics()
	switch spec.Provider {
	case ProviderOpenAI:
		if creds.OpenAIKey == "" {
			return nil, fmt.Errorf("openai persona: api key is required")
		}
		return newOpenAI(newOpenAIClient(creds.OpenAIKey), spec, metrics), nil
	case ProviderAnthropic:
		client, err := newAnthropicClient(ctx, creds)
		if err != nil {
			return nil, err
		}
		return newAnthropic(client, spec, metrics), nil
	case ProviderGoogle:
		client, err := newGoogleClient(ctx, creds)
		if err != nil {
			return nil, err
		}
		return newGoogle(client, spec, metrics), nil
	case ProviderScripted, "":
		return &Scripted{}, nil
	default:
		return nil, fmt.Errorf("unsupported persona provider %q (expected %s, %s, %s or %s)",
			spec.Provider, ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderScripted)
	}
}
