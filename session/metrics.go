/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	operationCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eval_session_operations_total",
			Help: "Total number of session operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	runCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eval_session_runs_total",
			Help: "Total number of test runs by type and final state",
		},
		[]string{"type", "state"},
	)

	invocationCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eval_session_invocations_total",
			Help: "Total number of client-side model invocations by adapter kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	reportCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eval_session_reports_total",
			Help: "Total number of finished reports by result",
		},
		[]string{"result"},
	)

	inflightInvocations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eval_session_invocations_inflight",
			Help: "Number of client-side model invocations in progress",
		},
	)
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

const tracerName = "chainguard.dev/evalcookbook/session"

// start opens a span for a facade operation. The returned func ends the span
// and counts the operation; pass it the operation's final error.
func start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	tr := otel.Tracer(tracerName, trace.WithInstrumentationVersion("1.0.0"))
	ctx, span := tr.Start(ctx, "session."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		operationCounter.WithLabelValues(op, outcome(err)).Inc()
	}
}
