/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package platform

import "context"

// Interface is the fixed client surface of the evaluation platform.
type Interface interface {
	// ListProjects returns every project visible to the caller.
	ListProjects(ctx context.Context) ([]Project, error)

	// CreateScenarioSet stores inline seed data as a new scenario set.
	CreateScenarioSet(ctx context.Context, req ScenarioSetCreate) (*ScenarioSet, error)
	// UploadScenarioSet stores a newline-delimited JSON file as a new scenario set.
	UploadScenarioSet(ctx context.Context, req ScenarioSetUpload) (*ScenarioSet, error)
	// GenerateScenarioSet derives a synthetic scenario set from an existing one.
	GenerateScenarioSet(ctx context.Context, req ScenarioSetGenerate) (*ScenarioSet, error)
	// ScenarioDataPoints returns the stored records of a scenario set in order.
	ScenarioDataPoints(ctx context.Context, scenarioID string) ([]DataPoint, error)

	// RegisterModel stores a model spec under a name, honoring req.Update.
	RegisterModel(ctx context.Context, req ModelRegistration) (*ModelUnderTest, error)
	// Models lists the registered models of a project.
	Models(ctx context.Context, projectID string) ([]ModelUnderTest, error)

	// RunTest executes a test run and returns it once completed.
	RunTest(ctx context.Context, req TestRunRequest) (*TestRun, error)
	// FindTestRuns returns the runs matching the filter.
	FindTestRuns(ctx context.Context, filter TestRunFilter) ([]TestRun, error)
	// FindTestDataPoints returns the predictions recorded by a run.
	FindTestDataPoints(ctx context.Context, testRunID string) ([]TestDataPoint, error)

	// Checks lists every available check.
	Checks(ctx context.Context) ([]Check, error)
	// GenerateCheck generates check code from a description.
	GenerateCheck(ctx context.Context, req CheckGenerate) (*GeneratedCheck, error)
	// UploadCheck stores a check.
	UploadCheck(ctx context.Context, req CheckUpload) (*Check, error)
}
