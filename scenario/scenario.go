/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package scenario reads, writes and validates scenario seed records.
//
// Scenario files are newline-delimited JSON, one record per line:
//
//	{"input": "What is the capital of France?", "result": "Paris"}
//
// Inputs and results may be any JSON value, e.g. a dialog for generation
// runs or a list of document ids for retrieval runs.
package scenario

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"chainguard.dev/evalcookbook/platform"
)

// Record is a single scenario seed record.
type Record = platform.SeedData

// maxLineSize bounds a single record; long articles are common in generation scenarios.
const maxLineSize = 4 << 20

// Validate checks that a set of records is usable as scenario seed data.
func Validate(records []platform.SeedData) error {
	if len(records) == 0 {
		return platform.Errorf("validate", platform.ErrValidation, "scenario set has no records")
	}
	for i, r := range records {
		if err := validateRecord(r); err != nil {
			return platform.Errorf("validate", platform.ErrValidation, "record %d: %w", i, err)
		}
	}
	return nil
}

func validateRecord(r platform.SeedData) error {
	switch v := r.Input.(type) {
	case nil:
		return errors.New("missing input")
	case string:
		if v == "" {
			return errors.New("empty input")
		}
	}
	return nil
}

// line is the on-disk shape; RawMessage lets us tell a missing key from null.
type line struct {
	Input  json.RawMessage `json:"input"`
	Result json.RawMessage `json:"result"`
}

// ReadJSONL parses newline-delimited JSON records. Blank lines are skipped.
// Errors name the 1-based line number and match platform.ErrValidation.
func ReadJSONL(r io.Reader) ([]platform.SeedData, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []platform.SeedData
	for n := 1; scanner.Scan(); n++ {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		rec, err := parseLine(raw)
		if err != nil {
			return nil, platform.Errorf("read scenario", platform.ErrValidation, "line %d: %w", n, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, platform.Errorf("read scenario", platform.ErrValidation, "scanning: %w", err)
	}
	if len(records) == 0 {
		return nil, platform.Errorf("read scenario", platform.ErrValidation, "no records")
	}
	return records, nil
}

func parseLine(raw []byte) (platform.SeedData, error) {
	var l line
	if err := json.Unmarshal(raw, &l); err != nil {
		return platform.SeedData{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if len(l.Input) == 0 || string(l.Input) == "null" {
		return platform.SeedData{}, errors.New("missing input")
	}

	var rec platform.SeedData
	if err := json.Unmarshal(l.Input, &rec.Input); err != nil {
		return platform.SeedData{}, fmt.Errorf("input: %w", err)
	}
	if len(l.Result) > 0 {
		if err := json.Unmarshal(l.Result, &rec.Result); err != nil {
			return platform.SeedData{}, fmt.Errorf("result: %w", err)
		}
	}
	if err := validateRecord(rec); err != nil {
		return platform.SeedData{}, err
	}
	return rec, nil
}

// WriteJSONL writes records as newline-delimited JSON.
func WriteJSONL(w io.Writer, records []platform.SeedData) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
	}
	return nil
}

// Encode returns records as a newline-delimited JSON document.
func Encode(records []platform.SeedData) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSONL(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
