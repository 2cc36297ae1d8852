/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package prompt handles the single-brace placeholders used by hosted model
// templates, e.g. "Summarize: {scenario_input}".
//
// Only "{identifier}" sequences are placeholders. Any other brace, such as the
// ones in an inline JSON example, is kept literally.
package prompt

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// resolveFunc provides a replacement for a placeholder name.
type resolveFunc func(name string) (string, error)

// walk tokenizes the template and calls resolve for each placeholder.
func walk(template string, resolve resolveFunc) (string, error) {
	var result strings.Builder

	for len(template) > 0 {
		start := strings.IndexByte(template, '{')
		if start == -1 {
			result.WriteString(template)
			break
		}
		result.WriteString(template[:start])

		end := strings.IndexByte(template[start+1:], '}')
		if end == -1 {
			result.WriteString(template[start:])
			break
		}
		end += start + 1

		name := template[start+1 : end]
		if !isIdentifier(name) {
			// Not a placeholder, emit the opening brace and keep scanning after it.
			result.WriteByte('{')
			template = template[start+1:]
			continue
		}

		replacement, err := resolve(name)
		if err != nil {
			return "", err
		}
		result.WriteString(replacement)
		template = template[end+1:]
	}

	return result.String(), nil
}

// isIdentifier reports whether s starts with a letter and contains only
// letters, digits and underscores.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	runes := []rune(s)
	if !unicode.IsLetter(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// Placeholders returns the sorted, de-duplicated placeholder names of a template.
func Placeholders(template string) []string {
	seen := map[string]struct{}{}
	_, _ = walk(template, func(name string) (string, error) {
		seen[name] = struct{}{}
		return "", nil
	})
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Validate returns an error naming the first placeholder not in allowed.
func Validate(template string, allowed ...string) error {
	for _, name := range Placeholders(template) {
		if !slices.Contains(allowed, name) {
			return fmt.Errorf("unknown placeholder {%s}, allowed: %v", name, allowed)
		}
	}
	return nil
}

// Render substitutes every placeholder. Strings are inserted as-is and any
// other value is marshaled as JSON. A placeholder without a value is an error.
func Render(template string, values map[string]any) (string, error) {
	rendered := make(map[string]string, len(values))
	for name, v := range values {
		s, err := Value(v)
		if err != nil {
			return "", fmt.Errorf("rendering {%s}: %w", name, err)
		}
		rendered[name] = s
	}
	return walk(template, func(name string) (string, error) {
		if s, ok := rendered[name]; ok {
			return s, nil
		}
		return "", fmt.Errorf("unbound placeholder: {%s}", name)
	})
}

// Value formats a scenario value for insertion into a prompt.
func Value(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(b), nil
}
