/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package memory

import (
	"context"
	"slices"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"

	"chainguard.dev/evalcookbook/checks"
	"chainguard.dev/evalcookbook/platform"
)

// RunTest implements platform.Interface. Custom models must supply a result
// for every data point; hosted models are executed through the HostedInvoker.
func (p *Platform) RunTest(ctx context.Context, req platform.TestRunRequest) (*platform.TestRun, error) {
	const op = "run test"
	log := clog.FromContext(ctx).With("model_id", req.ModelID, "scenario_id", req.ScenarioID)

	if !req.Type.Valid() {
		return nil, platform.Errorf(op, platform.ErrValidation, "unknown test run type %q", req.Type)
	}

	p.mu.Lock()
	if err := p.requireProject(op, req.ProjectID); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	mut, ok := p.modelByID(req.ModelID)
	if !ok {
		p.mu.Unlock()
		return nil, platform.Errorf(op, platform.ErrNotFound, "model %q", req.ModelID)
	}
	spec := mut.Models
	dps, ok := p.dataPoints[req.ScenarioID]
	if !ok {
		p.mu.Unlock()
		return nil, platform.Errorf(op, platform.ErrNotFound, "scenario set %q", req.ScenarioID)
	}
	dps = slices.Clone(dps)
	var local []string
	for _, name := range req.Checks {
		switch _, builtin := checks.Lookup(name); {
		case builtin:
			local = append(local, name)
		case p.hasUploadedCheck(name):
			log.Warn("Check has no local implementation, skipping", "check", name)
		default:
			p.mu.Unlock()
			return nil, platform.Errorf(op, platform.ErrNotFound, "check %q", name)
		}
	}
	p.mu.Unlock()

	scorer, err := checks.NewScorer(local...)
	if err != nil {
		return nil, err
	}

	start := p.now()
	invocations, err := p.predictions(ctx, spec, dps, req.ModelResults)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	tdps := make([]platform.TestDataPoint, 0, len(dps))
	for i, dp := range dps {
		inv := invocations[i]
		input := inv.Input
		if input == nil {
			input = dp.Input
		}
		values := scorer.Evaluate(checks.Subject{
			Input:      dp.Input,
			Prediction: inv.Prediction,
			Expected:   dp.Result,
			Metadata:   inv.Metadata,
		})
		tdps = append(tdps, platform.TestDataPoint{
			ID:                  uuid.NewString(),
			TestRunID:           id,
			ScenarioDataPointID: dp.ID,
			ModelInput:          input,
			ModelPrediction:     inv.Prediction,
			ScenarioResult:      dp.Result,
			Metrics:             values,
			Metadata:            inv.Metadata,
		})
	}

	run := &platform.TestRun{
		ID:                 id,
		ProjectID:          req.ProjectID,
		ModelID:            req.ModelID,
		ScenarioSetID:      req.ScenarioID,
		Name:               req.Name,
		Tags:               slices.Clone(req.Tags),
		Type:               req.Type,
		StartTime:          start,
		TestDataPointCount: len(tdps),
		AppLink:            appLink(req.ProjectID, "eval", id),
	}

	if req.CalculateMetrics {
		switch req.Type {
		case platform.Classification:
			c := classify(tdps)
			run.ModelMetrics.WeightedAverage = c.weighted
			run.ModelMetrics.ScoresByLabel = c.byLabel
			run.ErrorMatrix = c.matrix
		case platform.Retrieval:
			r, misses := retrieve(tdps)
			run.ModelMetrics.Retrieval = r
			run.ErrorCount = misses
		}
		sum := scorer.Summary()
		if len(sum.MeanScores) > 0 {
			run.ModelMetrics.MeanScores = sum.MeanScores
		}
		if len(sum.PassRates) > 0 {
			run.ModelMetrics.PassRates = sum.PassRates
		}
		if req.Type == platform.Generation || req.Type == platform.MultiTurn {
			run.ErrorCount = failedPoints(tdps, local)
		}
	}
	run.EndTime = p.now()

	p.mu.Lock()
	p.runs = append(p.runs, run)
	p.points[id] = tdps
	p.mu.Unlock()

	log.Info("Completed test run", "test_run_id", id, "data_points", len(tdps))
	out := *run
	return &out, nil
}

// hasUploadedCheck must be called with p.mu held.
func (p *Platform) hasUploadedCheck(name string) bool {
	_, ok := p.checks[name]
	return ok
}

// predictions returns one invocation per data point, in order.
func (p *Platform) predictions(ctx context.Context, spec platform.ModelSpec, dps []platform.DataPoint, results map[string]platform.Invocation) ([]platform.Invocation, error) {
	const op = "run test"
	out := make([]platform.Invocation, len(dps))

	if clientSide(spec) {
		for i, dp := range dps {
			inv, ok := results[dp.ID]
			if !ok {
				return nil, platform.Errorf(op, platform.ErrValidation, "no model result for data point %q", dp.ID)
			}
			if inv.Prediction == nil {
				return nil, platform.Errorf(op, platform.ErrValidation, "model result for data point %q has no prediction", dp.ID)
			}
			out[i] = inv
		}
		return out, nil
	}

	if p.hosted == nil {
		return nil, platform.Errorf(op, platform.ErrUpstream, "hosted model %q cannot run offline", spec.Type)
	}
	for i, dp := range dps {
		inv, err := p.hosted(ctx, spec, dp)
		if err != nil {
			return nil, &platform.Error{Op: op, Kind: platform.ErrUpstream, Err: err}
		}
		out[i] = inv
	}
	return out, nil
}

// clientSide reports whether predictions for the model come from the caller.
func clientSide(spec platform.ModelSpec) bool {
	switch spec.Type {
	case platform.ModelTypeCustom, platform.ModelTypeCustomTarget:
		return true
	case platform.ModelTypeDriver:
		return spec.Target != nil && spec.Target.Type == platform.ModelTypeCustomTarget
	}
	return false
}

// failedPoints counts data points failing at least one boolean check.
func failedPoints(tdps []platform.TestDataPoint, names []string) int {
	var boolean []string
	for _, name := range names {
		if b, _ := checks.Lookup(name); b.OutputDataType == checks.OutputBool {
			boolean = append(boolean, name)
		}
	}
	var n int
	for _, tdp := range tdps {
		for _, name := range boolean {
			if v, ok := tdp.Metrics[name]; ok && v == 0 {
				n++
				break
			}
		}
	}
	return n
}
