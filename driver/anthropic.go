/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/vertex"

	"chainguard.dev/evalcookbook/adapter"
)

type anthropicPersona struct {
	client      anthropic.Client
	model       string
	temperature float64
	metrics     *TokenMetrics
}

// newAnthropicClient uses the API key when set and Vertex AI otherwise.
func newAnthropicClient(ctx context.Context, creds Credentials) (anthropic.Client, error) {
	switch {
	case creds.AnthropicKey != "":
		return anthropic.NewClient(option.WithAPIKey(creds.AnthropicKey)), nil
	case creds.VertexProject != "" && creds.VertexRegion != "":
		return anthropic.NewClient(vertex.WithGoogleAuth(ctx, creds.VertexRegion, creds.VertexProject)), nil
	default:
		return anthropic.Client{}, errors.New("anthropic persona: an api key or a Vertex AI project and region is required")
	}
}

func newAnthropic(client anthropic.Client, spec adapter.PersonaSpec, metrics *TokenMetrics) *anthropicPersona {
	return &anthropicPersona{
		client:      client,
		model:       spec.Model,
		temperature: spec.Temperature,
		metrics:     metrics,
	}
}

// Next implements Persona.
func (p *anthropicPersona) Next(ctx context.Context, directive string, history []adapter.Message) (string, error) {
	system, err := systemPrompt(directive)
	if err != nil {
		return "", fmt.Errorf("building system prompt: %w", err)
	}

	turns := personaTurns(history)
	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		if t.own {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.text)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.text)))
		}
	}

	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   maxPersonaTokens,
		Messages:    messages,
		System:      []anthropic.TextBlockParam{{Text: system}},
		Temperature: anthropic.Float(p.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	p.metrics.RecordTokens(ctx, ProviderAnthropic, p.model, message.Usage.InputTokens, message.Usage.OutputTokens)

	var text strings.Builder
	for _, content := range message.Content {
		if content.Type == "text" {
			text.WriteString(content.Text)
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", errors.New("anthropic messages returned no text")
	}
	return out, nil
}
