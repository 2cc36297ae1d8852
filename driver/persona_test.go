/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/go-cmp/cmp"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"chainguard.dev/evalcookbook/adapter"
)

var history = []adapter.Message{
	{Role: adapter.RoleUser, Content: "Where is my order?"},
	{Role: adapter.RoleAssistant, Content: "It shipped yesterday."},
}

// tokenTotals sums the int64 counters collected by reader, keyed by metric name.
func tokenTotals(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	return totals
}

func withMeterProvider(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(prev) })
	return reader
}

func TestOpenAIPersona(t *testing.T) {
	reader := withMeterProvider(t)

	var roles []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, m := range req.Messages {
			roles = append(roles, m.Role)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 0,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "  Can I get a refund instead?  "}}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49}
		}`)
	}))
	defer srv.Close()

	client := newOpenAIClient("sk-test", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	p := newOpenAI(client, adapter.PersonaSpec{Provider: ProviderOpenAI, Model: "gpt-4o-mini", Temperature: 0.7}, NewTokenMetrics())

	got, err := p.Next(context.Background(), "You want a refund.", history)
	require.NoError(t, err)
	if want := "Can I get a refund instead?"; got != want {
		t.Errorf("Next: got = %q, wanted = %q", got, want)
	}
	if diff := cmp.Diff([]string{"system", "user", "assistant", "user"}, roles); diff != "" {
		t.Errorf("roles (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int64{"genai.token.prompt": 42, "genai.token.completion": 7}, tokenTotals(t, reader)); diff != "" {
		t.Errorf("token totals (-want +got):\n%s", diff)
	}
}

func TestOpenAIPersonaUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newOpenAIClient("sk-test", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	p := newOpenAI(client, adapter.PersonaSpec{Model: "gpt-4o-mini"}, NewTokenMetrics())
	if _, err := p.Next(context.Background(), "d", nil); err == nil {
		t.Error("Next() on a 429: got = nil, wanted error")
	}
}

func TestAnthropicPersona(t *testing.T) {
	reader := withMeterProvider(t)

	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"messages"`
		System []struct {
			Text string `json:"text"`
		} `json:"system"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4",
			"content": [{"type": "text", "text": "I still need the tracking number."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 30, "output_tokens": 9}
		}`)
	}))
	defer srv.Close()

	client := anthropic.NewClient(
		anthropicoption.WithAPIKey("sk-ant-test"),
		anthropicoption.WithBaseURL(srv.URL),
		anthropicoption.WithMaxRetries(0),
	)
	p := newAnthropic(client, adapter.PersonaSpec{Provider: ProviderAnthropic, Model: "claude-sonnet-4"}, NewTokenMetrics())

	got, err := p.Next(context.Background(), "Ask for tracking details.", history)
	require.NoError(t, err)
	if want := "I still need the tracking number."; got != want {
		t.Errorf("Next: got = %q, wanted = %q", got, want)
	}

	require.Len(t, req.Messages, 3)
	if req.Messages[0].Role != "user" || req.Messages[0].Content[0].Text != kickoff {
		t.Errorf("first message: got = %+v, wanted kickoff user message", req.Messages[0])
	}
	if req.Messages[1].Role != "assistant" {
		t.Errorf("persona message role: got = %s, wanted = assistant", req.Messages[1].Role)
	}
	require.Len(t, req.System, 1)
	if !strings.Contains(req.System[0].Text, "Ask for tracking details.") {
		t.Errorf("system prompt does not contain the directive: %s", req.System[0].Text)
	}
	if diff := cmp.Diff(map[string]int64{"genai.token.prompt": 30, "genai.token.completion": 9}, tokenTotals(t, reader)); diff != "" {
		t.Errorf("token totals (-want +got):\n%s", diff)
	}
}
