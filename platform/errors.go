/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package platform

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when a project, model or scenario lookup has no match.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for malformed scenario data or requests.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when registering an existing model without upsert.
	ErrConflict = errors.New("conflict")
	// ErrUpstream is returned when the evaluation platform fails or is unreachable.
	ErrUpstream = errors.New("upstream failure")
	// ErrAdapter is returned when a custom model adapter fails or returns a malformed invocation.
	ErrAdapter = errors.New("adapter failure")
)

// Error carries the operation and HTTP status alongside one of the sentinel kinds.
// errors.Is matches both the kind and the wrapped cause.
type Error struct {
	Op         string
	Kind       error
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s: %v (status %d): %v", e.Op, e.Kind, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %v (status %d)", e.Op, e.Kind, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Errorf builds an *Error of the given kind with a formatted cause.
func Errorf(op string, kind error, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindForStatus maps an HTTP status code from the platform to an error kind.
func KindForStatus(code int) error {
	switch code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	default:
		return ErrUpstream
	}
}
