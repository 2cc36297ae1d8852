/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package session is the facade used by every evaluation flow. A flow
// resolves a project, creates or uploads a scenario set, registers a model
// adapter, runs a test and turns the run into a report:
//
//	cfg, err := session.ConfigFromEnv(ctx)
//	client, err := cfg.Client()
//	sess := session.New(cfg, client)
//
//	projectID, err := sess.ResolveProject(ctx, "")
//	set, err := sess.CreateScenarioSet(ctx, projectID, "capitals", records)
//	model, err := sess.RegisterModel(ctx, projectID, "capitals-model", &adapter.Custom{Invoke: invoke},
//		session.RegisterOptions{Upsert: true})
//	run, err := sess.RunTest(ctx, model, set, platform.Classification, nil, session.RunOptions{})
//	rep := sess.BuildReport(run.Result(), thresholds)
//	err = sess.Finish(ctx, rep)
//
// Errors match the kinds declared in package platform with errors.Is.
// Whether a failing report is an error is decided by Config.OnFailure.
//
// Every operation is traced with OpenTelemetry and counted in Prometheus.
package session
