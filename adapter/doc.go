/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package adapter defines the model adapters that can be registered for
// evaluation.
//
// There are four variants:
//
//   - [Hosted] is a provider model run by the platform from prompt templates.
//   - [Custom] wraps a caller function that is invoked once per scenario record.
//   - [CustomTarget] is the caller-implemented target of a multi-turn conversation.
//   - [Driver] puts a target into a multi-turn conversation with an LLM persona.
//
// Custom adapters return an [Invocation]. The prediction is required; the
// input defaults to the scenario input and metadata is optional.
//
//	model := &adapter.Custom{
//		Invoke: func(ctx context.Context, in adapter.Input) (adapter.Invocation, error) {
//			return adapter.Invocation{Prediction: capitals[in.Value.(string)]}, nil
//		},
//	}
package adapter
