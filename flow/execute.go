/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package flow

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"chainguard.dev/evalcookbook/checks"
	"chainguard.dev/evalcookbook/platform"
	"chainguard.dev/evalcookbook/report"
	"chainguard.dev/evalcookbook/session"
)

// Result is the outcome of an executed flow.
type Result struct {
	ProjectID string
	Scenario  *platform.ScenarioSet
	Model     *session.ModelHandle
	Run       *session.Run
	Report    report.Report
}

// Execute runs the flow through sess. A report that misses its thresholds is
// an error wrapping report.ErrReportFailed unless the flow, or the session
// configuration, selects the report-only policy. The result is returned
// whenever a run completed, including with such an error.
func Execute(ctx context.Context, sess *session.Session, f *File) (*Result, error) {
	log := clog.FromContext(ctx).With("flow", f.Name)
	ctx = clog.WithLogger(ctx, log)

	projectID, err := sess.ResolveProject(ctx, f.Project)
	if err != nil {
		return nil, err
	}
	res := &Result{ProjectID: projectID}

	if len(f.Checks) > 0 {
		uploaded, err := checks.Ensure(ctx, sess.Client(), projectID, f.Checks)
		if err != nil {
			return res, fmt.Errorf("ensuring checks: %w", err)
		}
		log.With("uploaded", len(uploaded)).Info("Checks ready")
	}

	if f.Scenario.File != "" {
		res.Scenario, err = sess.UploadScenarioSet(ctx, projectID, f.Scenario.Name, f.ScenarioPath())
	} else {
		res.Scenario, err = sess.CreateScenarioSet(ctx, projectID, f.Scenario.Name, f.Scenario.Seed)
	}
	if err != nil {
		return res, err
	}
	if g := f.Scenario.Generate; g != nil {
		name := g.Name
		if name == "" {
			name = fmt.Sprintf("%s (%s)", f.Scenario.Name, g.Type)
		}
		res.Scenario, err = sess.GenerateScenarioSet(ctx, platform.ScenarioSetGenerate{
			ProjectID:        projectID,
			SourceScenarioID: res.Scenario.ScenarioID,
			Name:             name,
			NumberExamples:   g.Count,
			GenerationType:   g.Type,
		})
		if err != nil {
			return res, err
		}
	}

	a, err := f.Model.Adapter()
	if err != nil {
		return res, err
	}
	res.Model, err = sess.RegisterModel(ctx, projectID, f.Model.Name, a, session.RegisterOptions{
		Upsert: f.Model.Upsert,
		Tags:   f.Model.Tags,
	})
	if err != nil {
		return res, err
	}

	res.Run, err = sess.RunTest(ctx, res.Model, res.Scenario, f.Run.Type, f.Run.Checks, session.RunOptions{
		Name:        f.Run.Name,
		Tags:        f.Run.Tags,
		Parallelism: f.Run.Parallelism,
	})
	if err != nil {
		return res, err
	}

	res.Report = sess.BuildReport(res.Run.Result(), f.Thresholds)
	policy := f.OnFailure
	if policy == "" {
		policy = sess.Config().OnFailure
	}
	return res, sess.FinishWith(ctx, res.Report, policy)
}
