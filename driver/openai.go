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

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"chainguard.dev/evalcookbook/adapter"
)

type openaiPersona struct {
	client      openai.Client
	model       string
	temperature float64
	metrics     *TokenMetrics
}

func newOpenAIClient(apiKey string, opts ...option.RequestOption) openai.Client {
	return openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
}

func newOpenAI(client openai.Client, spec adapter.PersonaSpec, metrics *TokenMetrics) *openaiPersona {
	return &openaiPersona{
		client:      client,
		model:       spec.Model,
		temperature: spec.Temperature,
		metrics:     metrics,
	}
}

// Next implements Persona.
func (p *openaiPersona) Next(ctx context.Context, directive string, history []adapter.Message) (string, error) {
	system, err := systemPrompt(directive)
	if err != nil {
		return "", fmt.Errorf("building system prompt: %w", err)
	}

	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(system)}
	for _, t := range personaTurns(history) {
		if t.own {
			messages = append(messages, openai.AssistantMessage(t.text))
		} else {
			messages = append(messages, openai.UserMessage(t.text))
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(p.model),
		Messages:            messages,
		Temperature:         openai.Float(p.temperature),
		MaxCompletionTokens: openai.Int(maxPersonaTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	p.metrics.RecordTokens(ctx, ProviderOpenAI, p.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat completion returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("openai chat completion returned an empty message")
	}
	return text, nil
}
