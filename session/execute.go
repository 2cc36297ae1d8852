/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"chainguard.dev/evalcookbook/adapter"
	"chainguard.dev/evalcookbook/driver"
	"chainguard.dev/evalcookbook/platform"
	"chainguard.dev/evalcookbook/prompt"
)

// RunOptions control a test run.
type RunOptions struct {
	// Name defaults to the model name followed by the build id.
	Name string
	Tags []string
	// Parallelism overrides the configured bound on concurrent custom
	// model invocations.
	Parallelism int
	// SkipMetrics disables server-side metric calculation.
	SkipMetrics bool
}

// RunTest runs model against set and returns the run, which is Completed on
// success and Failed otherwise. Custom adapters are invoked once per
// scenario record and client-driven conversations once per record and
// repeat; hosted models are executed by the platform.
func (s *Session) RunTest(ctx context.Context, model *ModelHandle, set *platform.ScenarioSet, runType platform.TestRunType, checks []string, opts RunOptions) (_ *Run, err error) {
	if model == nil || set == nil {
		return nil, platform.Errorf("run test", platform.ErrValidation, "model and scenario set are required")
	}
	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("%s %s", model.Name, s.cfg.BuildID)
	}
	run := NewRun(name, runType)

	ctx, done := start(ctx, "run_test",
		attribute.String("run.name", name),
		attribute.String("run.type", string(runType)),
		attribute.String("model.name", model.Name),
		attribute.String("scenario.id", set.ScenarioID))
	defer func() {
		done(err)
		runCounter.WithLabelValues(string(runType), run.State().String()).Inc()
	}()
	log := clog.FromContext(ctx).With("run", name, "type", runType, "model", model.Name)

	if !runType.Valid() {
		return run, run.Fail(platform.Errorf("run test", platform.ErrValidation, "unknown run type %q", runType))
	}

	points, err := s.client.ScenarioDataPoints(ctx, set.ScenarioID)
	if err != nil {
		return run, run.Fail(remote("fetch scenario data points", err))
	}
	if len(points) == 0 {
		return run, run.Fail(platform.Errorf("run test", platform.ErrValidation, "scenario set %s has no data points", set.ScenarioID))
	}
	if err := run.Advance(ScenarioBound); err != nil {
		return run, run.Fail(err)
	}

	if err := validateModel(model); err != nil {
		return run, run.Fail(&platform.Error{Op: "run test", Kind: platform.ErrValidation, Err: err})
	}
	if err := run.Advance(ModelBound); err != nil {
		return run, run.Fail(err)
	}

	if err := run.Advance(Executing); err != nil {
		return run, run.Fail(err)
	}
	results, err := s.invoke(ctx, model.Adapter, points, opts)
	if err != nil {
		return run, run.Fail(err)
	}

	tags := opts.Tags
	if s.cfg.BuildID != "" {
		tags = append(append([]string(nil), tags...), "build:"+s.cfg.BuildID)
	}
	req := platform.TestRunRequest{
		ProjectID:        model.ProjectID,
		ModelID:          model.ID,
		ScenarioID:       set.ScenarioID,
		Name:             name,
		Tags:             tags,
		Type:             runType,
		Checks:           checks,
		CalculateMetrics: !opts.SkipMetrics,
		ModelResults:     results,
	}
	if results == nil {
		req.APIKeys = s.cfg.providerKeys()
	}

	log.With("data_points", len(points), "client_side", results != nil).Info("Running test")
	result, err := s.client.RunTest(ctx, req)
	if err != nil {
		return run, run.Fail(remote("run test", err))
	}
	if err := run.Complete(result); err != nil {
		return run, err
	}
	log.With("run_id", result.ID, "app_link", result.AppLink).Info("Test run completed")
	return run, nil
}

// validateModel checks the handle's adapter. A handle without one, such as
// a model found by name, can only run models the platform executes itself.
func validateModel(model *ModelHandle) error {
	if model.Adapter != nil {
		return model.Adapter.Validate()
	}
	spec := model.Models
	switch {
	case spec.Type == platform.ModelTypeCustom, spec.Type == platform.ModelTypeCustomTarget:
		return fmt.Errorf("model %q has no local adapter for its %s invocations", model.Name, spec.Type)
	case spec.Type == platform.ModelTypeDriver && (spec.Target == nil || spec.Target.Type == platform.ModelTypeCustomTarget):
		return fmt.Errorf("model %q drives a custom target and has no local adapter", model.Name)
	case spec.Type == "":
		return fmt.Errorf("model %q has no adapter", model.Name)
	}
	return nil
}

// invoke produces client-side predictions keyed by data point id. It returns
// nil when the platform executes the model itself.
func (s *Session) invoke(ctx context.Context, a adapter.Adapter, points []platform.DataPoint, opts RunOptions) (map[string]platform.Invocation, error) {
	var call func(ctx context.Context, dp platform.DataPoint) (platform.Invocation, error)

	switch a := a.(type) {
	case *adapter.Custom:
		call = func(ctx context.Context, dp platform.DataPoint) (platform.Invocation, error) {
			return adapter.Call(ctx, a, adapter.Input{Value: dp.Input, Expected: dp.Result})
		}
	case *adapter.Driver:
		if !a.ClientDriven() {
			return nil, nil
		}
		persona, err := s.personas(ctx, a.Persona)
		if err != nil {
			return nil, &platform.Error{Op: "create driver persona", Kind: platform.ErrValidation, Err: err}
		}
		call = func(ctx context.Context, dp platform.DataPoint) (platform.Invocation, error) {
			return converse(ctx, persona, a, dp)
		}
	case *adapter.CustomTarget:
		return nil, platform.Errorf("run test", platform.ErrValidation, "a custom target must be wrapped in a driver")
	default:
		return nil, nil
	}

	limit := opts.Parallelism
	if limit < 1 {
		limit = s.cfg.Parallelism
	}
	kind := string(a.Kind())
	invocations := make([]platform.Invocation, len(points))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, dp := range points {
		eg.Go(func() error {
			inflightInvocations.Inc()
			defer inflightInvocations.Dec()

			inv, err := call(ctx, dp)
			invocationCounter.WithLabelValues(kind, outcome(err)).Inc()
			if err != nil {
				return fmt.Errorf("data point %s: %w", dp.ID, err)
			}
			invocations[i] = inv
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	results := make(map[string]platform.Invocation, len(points))
	for i, dp := range points {
		results[dp.ID] = invocations[i]
	}
	return results, nil
}

// converse drives the conversations of one data point. The scenario input is
// the persona directive.
func converse(ctx context.Context, persona driver.Persona, d *adapter.Driver, dp platform.DataPoint) (platform.Invocation, error) {
	directive, err := prompt.Value(dp.Input)
	if err != nil {
		return platform.Invocation{}, &platform.Error{Op: "drive conversation", Kind: platform.ErrValidation, Err: err}
	}
	target := d.Target.(*adapter.CustomTarget)
	convs, err := driver.RunRepeats(ctx, persona, target, directive, driver.Config{
		MaxTurns:  d.MaxTurns,
		FirstTurn: d.FirstTurn,
	}, d.Repeats)
	switch {
	case err == nil:
	case errors.Is(err, platform.ErrAdapter), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return platform.Invocation{}, err
	default:
		// The persona is an LLM behind a provider API.
		return platform.Invocation{}, &platform.Error{Op: "drive conversation", Kind: platform.ErrUpstream, Err: err}
	}
	return driver.Invocation(directive, convs), nil
}
