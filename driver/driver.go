/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"

	"chainguard.dev/evalcookbook/adapter"
)

// ErrEndConversation is returned by a Persona that has nothing more to say.
var ErrEndConversation = errors.New("end of conversation")

// Persona produces the next user message of a conversation.
type Persona interface {
	// Next returns the persona's next message given the directive and the
	// conversation so far, from the target's point of view.
	Next(ctx context.Context, directive string, history []adapter.Message) (string, error)
}

// Config bounds a conversation.
type Config struct {
	// MaxTurns is the maximum number of target replies.
	MaxTurns int
	// FirstTurn is "target" when the target opens the conversation.
	FirstTurn string
}

// Conversation is the transcript of one driven conversation.
type Conversation struct {
	Messages []adapter.Message `json:"messages"`
	// Turns is the number of target replies.
	Turns int `json:"turns"`
	// Metadata holds the target's output metadata per reply.
	Metadata []map[string]any `json:"metadata,omitempty"`
}

// Run alternates persona and target messages until the target has replied
// MaxTurns times or the persona ends the conversation.
func Run(ctx context.Context, persona Persona, target *adapter.CustomTarget, directive string, cfg Config) (Conversation, error) {
	if cfg.MaxTurns < 1 {
		return Conversation{}, fmt.Errorf("max turns must be at least 1, got %d", cfg.MaxTurns)
	}
	log := clog.FromContext(ctx).With("max_turns", cfg.MaxTurns)

	var conv Conversation
	reply := func() error {
		inv, err := adapter.Respond(ctx, target, conv.Messages)
		if err != nil {
			return fmt.Errorf("turn %d: %w", conv.Turns+1, err)
		}
		conv.Messages = append(conv.Messages, adapter.Message{Role: adapter.RoleAssistant, Content: inv.Prediction.(string)})
		conv.Metadata = append(conv.Metadata, inv.Metadata)
		conv.Turns++
		return nil
	}

	if cfg.FirstTurn == "target" {
		if err := reply(); err != nil {
			return conv, err
		}
	}
	for conv.Turns < cfg.MaxTurns {
		if err := ctx.Err(); err != nil {
			return conv, err
		}
		msg, err := persona.Next(ctx, directive, conv.Messages)
		if errors.Is(err, ErrEndConversation) {
			log.Debug("Persona ended the conversation", "turns", conv.Turns)
			break
		}
		if err != nil {
			return conv, fmt.Errorf("persona turn %d: %w", conv.Turns+1, err)
		}
		conv.Messages = append(conv.Messages, adapter.Message{Role: adapter.RoleUser, Content: msg})
		if err := reply(); err != nil {
			return conv, err
		}
	}
	return conv, nil
}

// RunRepeats runs the conversation the given number of times.
func RunRepeats(ctx context.Context, persona Persona, target *adapter.CustomTarget, directive string, cfg Config, repeats int) ([]Conversation, error) {
	if repeats < 1 {
		return nil, fmt.Errorf("repeats must be at least 1, got %d", repeats)
	}
	convs := make([]Conversation, 0, repeats)
	for i := range repeats {
		conv, err := Run(ctx, persona, target, directive, cfg)
		if err != nil {
			return convs, fmt.Errorf("repeat %d: %w", i+1, err)
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

// Invocation folds repeated conversations into a single prediction: the
// messages of every conversation in order, with the per-conversation
// transcripts kept in metadata. A conversation the persona ended before the
// target replied contributes no messages, and the prediction is then empty
// rather than nil.
func Invocation(directive string, convs []Conversation) adapter.Invocation {
	messages := []adapter.Message{}
	turns := make([]int, 0, len(convs))
	for _, c := range convs {
		messages = append(messages, c.Messages...)
		turns = append(turns, c.Turns)
	}
	return adapter.Invocation{
		Prediction: messages,
		Input:      directive,
		Metadata: map[string]any{
			"repeats":       len(convs),
			"turns":         turns,
			"conversations": convs,
		},
	}
}
