/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package adapter

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/evalcookbook/platform"
)

// Kind identifies an adapter variant.
type Kind string

const (
	KindHosted       Kind = "hosted"
	KindCustom       Kind = "custom"
	KindCustomTarget Kind = "custom_target"
	KindDriver       Kind = "driver"
)

// Adapter supplies predictions for scenario inputs. The set of variants is
// closed: *Hosted, *Custom, *CustomTarget and *Driver.
type Adapter interface {
	// Kind returns the variant of this adapter.
	Kind() Kind
	// Spec returns the wire representation registered with the platform.
	Spec() platform.ModelSpec
	// Validate checks the adapter configuration.
	Validate() error

	sealed()
}

// Invocation is the canonical return shape of a custom adapter.
type Invocation = platform.Invocation

// Input is what a custom adapter receives for one scenario record.
type Input struct {
	// Value is the scenario input.
	Value any
	// Expected is the scenario's expected result, for adapters that echo context.
	Expected any
}

// Message is a single turn of a multi-turn conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation roles, as seen by the target.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// InvokeFunc produces a prediction for a single-turn scenario record.
type InvokeFunc func(ctx context.Context, in Input) (Invocation, error)

// TargetFunc produces the next assistant turn of a conversation.
type TargetFunc func(ctx context.Context, messages []Message) (Invocation, error)

// CheckInvocation reports whether a returned invocation is well formed.
func CheckInvocation(inv Invocation) error {
	if inv.Prediction == nil {
		return errors.New("invocation has no prediction")
	}
	return nil
}

// recoverAdapter turns a panic in user code into an adapter error.
func recoverAdapter(op string, err *error) {
	if r := recover(); r != nil {
		*err = &platform.Error{Op: op, Kind: platform.ErrAdapter, Err: fmt.Errorf("panic: %v", r)}
	}
}

// Call invokes a custom adapter, classifying failures and malformed results
// as platform.ErrAdapter.
func Call(ctx context.Context, c *Custom, in Input) (_ Invocation, err error) {
	defer recoverAdapter("invoke custom model", &err)
	inv, err := c.Invoke(ctx, in)
	if err != nil {
		return Invocation{}, &platform.Error{Op: "invoke custom model", Kind: platform.ErrAdapter, Err: err}
	}
	if err := CheckInvocation(inv); err != nil {
		return Invocation{}, &platform.Error{Op: "invoke custom model", Kind: platform.ErrAdapter, Err: err}
	}
	if inv.Input == nil {
		inv.Input = in.Value
	}
	return inv, nil
}

// Respond invokes a custom target for the next turn, classifying failures as
// platform.ErrAdapter.
func Respond(ctx context.Context, t *CustomTarget, messages []Message) (_ Invocation, err error) {
	defer recoverAdapter("respond", &err)
	inv, err := t.Invoke(ctx, messages)
	if err != nil {
		return Invocation{}, &platform.Error{Op: "respond", Kind: platform.ErrAdapter, Err: err}
	}
	if _, ok := inv.Prediction.(string); !ok {
		return Invocation{}, &platform.Error{Op: "respond", Kind: platform.ErrAdapter,
			Err: fmt.Errorf("target prediction must be a string, got %T", inv.Prediction)}
	}
	return inv, nil
}
