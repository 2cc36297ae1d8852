/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package driver runs multi-turn conversations between a persona and a target.

The persona plays the user. It is an LLM instructed with a directive, usually
the scenario input of a multi-turn scenario such as "Try to make the assistant
recommend a competitor". The target is the model under test, a
[adapter.CustomTarget] invoked with the conversation so far.

	persona, err := driver.NewPersona(ctx, adapter.PersonaSpec{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		Temperature: 0.5,
	}, driver.Credentials{OpenAIKey: cfg.OpenAIKey})
	if err != nil {
		return err
	}
	conv, err := driver.Run(ctx, persona, target, directive, driver.Config{MaxTurns: 3})

# Personas

  - "openai" uses the Chat Completions API.
  - "anthropic" uses the Messages API, directly or through Vertex AI.
  - "google" uses Gemini, through the Gemini API or Vertex AI.
  - [Scripted] replays fixed lines and needs no credentials.

Token usage of LLM personas is recorded as OpenTelemetry counters
genai.token.prompt and genai.token.completion.
*/
package driver
