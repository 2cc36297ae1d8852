/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"chainguard.dev/evalcookbook/platform"
)

// LoadThresholds reads thresholds from a YAML or JSON file.
func LoadThresholds(path string) (Thresholds, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, fmt.Errorf("reading thresholds: %w", err)
	}
	th, err := ParseThresholds(b)
	if err != nil {
		return Thresholds{}, fmt.Errorf("%s: %w", path, err)
	}
	return th, nil
}

// ParseThresholds decodes YAML or JSON thresholds. Unknown keys are an error.
func ParseThresholds(b []byte) (Thresholds, error) {
	var th Thresholds
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&th); err != nil && !errors.Is(err, io.EOF) {
		return Thresholds{}, platform.Errorf("parse thresholds", platform.ErrValidation, "%w", err)
	}
	if err := th.Validate(); err != nil {
		return Thresholds{}, err
	}
	return th, nil
}

// Validate checks that thresholds are internally consistent.
func (t Thresholds) Validate() error {
	if t.ErrorMax != nil && *t.ErrorMax < 0 {
		return platform.Errorf("validate thresholds", platform.ErrValidation, "error_max must not be negative, got %d", *t.ErrorMax)
	}
	for name, rate := range t.PassRate {
		if rate < 0 || rate > 1 {
			return platform.Errorf("validate thresholds", platform.ErrValidation, "pass_rate %s must be within [0, 1], got %v", name, rate)
		}
	}
	for name, lo := range t.MetricsMin {
		if hi, ok := t.MetricsMax[name]; ok && lo > hi {
			return platform.Errorf("validate thresholds", platform.ErrValidation, "metric %s: metrics_min %v exceeds metrics_max %v", name, lo, hi)
		}
	}
	return nil
}
