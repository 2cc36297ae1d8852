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

	"google.golang.org/genai"

	"chainguard.dev/evalcookbook/adapter"
)

type googlePersona struct {
	client      *genai.Client
	model       string
	temperature float64
	metrics     *TokenMetrics
}

// newGoogleClient uses the Gemini API when a key is set and Vertex AI otherwise.
func newGoogleClient(ctx context.Context, creds Credentials) (*genai.Client, error) {
	cfg := &genai.ClientConfig{}
	switch {
	case creds.GoogleKey != "":
		cfg.APIKey = creds.GoogleKey
		cfg.Backend = genai.BackendGeminiAPI
	case creds.VertexProject != "" && creds.VertexRegion != "":
		cfg.Project = creds.VertexProject
		cfg.Location = creds.VertexRegion
		cfg.Backend = genai.BackendVertexAI
	default:
		return nil, errors.New("google persona: an api key or a Vertex AI project and region is required")
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google AI client: %w", err)
	}
	return client, nil
}

func newGoogle(client *genai.Client, spec adapter.PersonaSpec, metrics *TokenMetrics) *googlePersona {
	return &googlePersona{
		client:      client,
		model:       spec.Model,
		temperature: spec.Temperature,
		metrics:     metrics,
	}
}

// Next implements Persona.
func (p *googlePersona) Next(ctx context.Context, directive string, history []adapter.Message) (string, error) {
	system, err := systemPrompt(directive)
	if err != nil {
		return "", fmt.Errorf("building system prompt: %w", err)
	}

	turns := personaTurns(history)
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.Role(genai.RoleUser)
		if t.own {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.text, role))
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
		Temperature:     genai.Ptr(float32(p.temperature)),
		MaxOutputTokens: maxPersonaTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if resp.UsageMetadata != nil {
		p.metrics.RecordTokens(ctx, ProviderGoogle, p.model, int64(resp.UsageMetadata.PromptTokenCount), int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini returned no text")
	}
	return text, nil
}
