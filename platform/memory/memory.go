/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package memory implements platform.Interface in process.
//
// It is a stand-in for the evaluation platform in tests and offline runs.
// Scenario sets, models, checks and test runs are kept in memory, and test
// runs compute classification, retrieval and check metrics locally. Hosted
// models only run when a [HostedInvoker] is configured.
package memory

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"

	"chainguard.dev/evalcookbook/checks"
	"chainguard.dev/evalcookbook/platform"
	"chainguard.dev/evalcookbook/scenario"
)

// HostedInvoker executes a hosted model, or a driver with a hosted target,
// for a single data point.
type HostedInvoker func(ctx context.Context, model platform.ModelSpec, dp platform.DataPoint) (platform.Invocation, error)

// Option configures a Platform.
type Option func(*Platform)

// WithProjects seeds the platform with the named projects instead of "Global".
func WithProjects(names ...string) Option {
	return func(p *Platform) {
		p.projects = p.projects[:0]
		for _, name := range names {
			p.projects = append(p.projects, platform.Project{ID: uuid.NewString(), Name: name})
		}
	}
}

// WithHostedInvoker enables execution of hosted models.
func WithHostedInvoker(fn HostedInvoker) Option {
	return func(p *Platform) {
		p.hosted = fn
	}
}

// WithClock overrides the time source used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Platform) {
		p.now = now
	}
}

// Platform is an in-memory evaluation platform.
type Platform struct {
	hosted HostedInvoker
	now    func() time.Time

	mu         sync.Mutex
	projects   []platform.Project
	sets       map[string]*platform.ScenarioSet
	dataPoints map[string][]platform.DataPoint
	models     map[string]*platform.ModelUnderTest
	runs       []*platform.TestRun
	points     map[string][]platform.TestDataPoint
	checks     map[string]platform.Check
}

var _ platform.Interface = (*Platform)(nil)

// New returns an empty platform with a single "Global" project.
func New(opts ...Option) *Platform {
	p := &Platform{
		now:        time.Now,
		projects:   []platform.Project{{ID: uuid.NewString(), Name: "Global"}},
		sets:       map[string]*platform.ScenarioSet{},
		dataPoints: map[string][]platform.DataPoint{},
		models:     map[string]*platform.ModelUnderTest{},
		points:     map[string][]platform.TestDataPoint{},
		checks:     map[string]platform.Check{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func appLink(projectID, kind, id string) string {
	return fmt.Sprintf("memory://project/%s/%s/%s", projectID, kind, id)
}

func modelKey(projectID, name string) string {
	return projectID + "/" + name
}

// ListProjects implements platform.Interface.
func (p *Platform) ListProjects(context.Context) ([]platform.Project, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.projects), nil
}

// requireProject must be called with p.mu held.
func (p *Platform) requireProject(op, id string) error {
	for _, pr := range p.projects {
		if pr.ID == id {
			return nil
		}
	}
	return platform.Errorf(op, platform.ErrNotFound, "project %q", id)
}

// CreateScenarioSet implements platform.Interface.
func (p *Platform) CreateScenarioSet(_ context.Context, req platform.ScenarioSetCreate) (*platform.ScenarioSet, error) {
	if req.Name == "" {
		return nil, platform.Errorf("create scenario set", platform.ErrValidation, "name is required")
	}
	if err := scenario.Validate(req.SeedData); err != nil {
		return nil, err
	}
	return p.storeScenarioSet("create scenario set", req.ProjectID, req.Name, req.SeedData)
}

// UploadScenarioSet implements platform.Interface.
func (p *Platform) UploadScenarioSet(_ context.Context, req platform.ScenarioSetUpload) (*platform.ScenarioSet, error) {
	if req.Name == "" {
		return nil, platform.Errorf("upload scenario set", platform.ErrValidation, "name is required")
	}
	records, err := scenario.ReadJSONL(bytes.NewReader(req.Content))
	if err != nil {
		return nil, err
	}
	return p.storeScenarioSet("upload scenario set", req.ProjectID, req.Name, records)
}

// GenerateScenarioSet implements platform.Interface. Only seed generation,
// which repeats each source record, is available in memory.
func (p *Platform) GenerateScenarioSet(_ context.Context, req platform.ScenarioSetGenerate) (*platform.ScenarioSet, error) {
	const op = "generate scenario set"
	switch req.GenerationType {
	case "", platform.ScenarioTypeSeed:
	default:
		return nil, platform.Errorf(op, platform.ErrUpstream, "generation type %s is not available offline", req.GenerationType)
	}
	if req.Name == "" {
		return nil, platform.Errorf(op, platform.ErrValidation, "name is required")
	}

	p.mu.Lock()
	src, ok := p.sets[req.SourceScenarioID]
	p.mu.Unlock()
	if !ok {
		return nil, platform.Errorf(op, platform.ErrNotFound, "scenario set %q", req.SourceScenarioID)
	}

	n := max(req.NumberExamples, 1)
	records := make([]platform.SeedData, 0, n*len(src.SeedData))
	for _, r := range src.SeedData {
		for range n {
			records = append(records, r)
		}
	}
	return p.storeScenarioSet(op, req.ProjectID, req.Name, records)
}

func (p *Platform) storeScenarioSet(op, projectID, name string, records []platform.SeedData) (*platform.ScenarioSet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireProject(op, projectID); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	set := &platform.ScenarioSet{
		ScenarioID:  id,
		ProjectID:   projectID,
		Name:        name,
		SeedData:    slices.Clone(records),
		AppLink:     appLink(projectID, "scenario", id),
		TimeCreated: p.now(),
	}
	dps := make([]platform.DataPoint, 0, len(records))
	for _, r := range records {
		dps = append(dps, platform.DataPoint{ID: uuid.NewString(), Input: r.Input, Result: r.Result})
	}
	p.sets[id] = set
	p.dataPoints[id] = dps

	out := *set
	return &out, nil
}

// ScenarioDataPoints implements platform.Interface.
func (p *Platform) ScenarioDataPoints(_ context.Context, scenarioID string) ([]platform.DataPoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	dps, ok := p.dataPoints[scenarioID]
	if !ok {
		return nil, platform.Errorf("scenario data points", platform.ErrNotFound, "scenario set %q", scenarioID)
	}
	return slices.Clone(dps), nil
}

// RegisterModel implements platform.Interface. Registering an existing name
// without Update is a conflict; with Update the model keeps its id.
func (p *Platform) RegisterModel(_ context.Context, req platform.ModelRegistration) (*platform.ModelUnderTest, error) {
	const op = "register model"
	if req.Name == "" {
		return nil, platform.Errorf(op, platform.ErrValidation, "name is required")
	}
	if req.Models.Type == "" {
		return nil, platform.Errorf(op, platform.ErrValidation, "model type is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireProject(op, req.ProjectID); err != nil {
		return nil, err
	}

	key := modelKey(req.ProjectID, req.Name)
	mut, exists := p.models[key]
	switch {
	case exists && !req.Update:
		return nil, platform.Errorf(op, platform.ErrConflict, "model %q already exists", req.Name)
	case exists:
		mut.Models = req.Models
		mut.Tags = slices.Clone(req.Tags)
	default:
		id := uuid.NewString()
		mut = &platform.ModelUnderTest{
			ID:        id,
			ProjectID: req.ProjectID,
			Name:      req.Name,
			Tags:      slices.Clone(req.Tags),
			Models:    req.Models,
			AppLink:   appLink(req.ProjectID, "model", id),
		}
		p.models[key] = mut
	}
	out := *mut
	return &out, nil
}

// Models implements platform.Interface.
func (p *Platform) Models(_ context.Context, projectID string) ([]platform.ModelUnderTest, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireProject("list models", projectID); err != nil {
		return nil, err
	}
	var out []platform.ModelUnderTest
	for _, m := range p.models {
		if m.ProjectID == projectID {
			out = append(out, *m)
		}
	}
	slices.SortFunc(out, func(a, b platform.ModelUnderTest) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (p *Platform) modelByID(id string) (*platform.ModelUnderTest, bool) {
	for _, m := range p.models {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// FindTestRuns implements platform.Interface. Runs are returned oldest first.
func (p *Platform) FindTestRuns(_ context.Context, filter platform.TestRunFilter) ([]platform.TestRun, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []platform.TestRun
	for _, r := range p.runs {
		if filter.ProjectID != "" && r.ProjectID != filter.ProjectID {
			continue
		}
		if filter.ModelID != "" && r.ModelID != filter.ModelID {
			continue
		}
		if len(filter.TestRunIDs) > 0 && !slices.Contains(filter.TestRunIDs, r.ID) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

// FindTestDataPoints implements platform.Interface.
func (p *Platform) FindTestDataPoints(_ context.Context, testRunID string) ([]platform.TestDataPoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tdps, ok := p.points[testRunID]
	if !ok {
		return nil, platform.Errorf("find test data points", platform.ErrNotFound, "test run %q", testRunID)
	}
	return slices.Clone(tdps), nil
}

// Checks implements platform.Interface. Builtin checks are listed first.
func (p *Platform) Checks(context.Context) ([]platform.Check, error) {
	out := checks.Predefined()

	p.mu.Lock()
	defer p.mu.Unlock()
	uploaded := make([]platform.Check, 0, len(p.checks))
	for _, c := range p.checks {
		uploaded = append(uploaded, c)
	}
	slices.SortFunc(uploaded, func(a, b platform.Check) int { return cmp.Compare(a.Name, b.Name) })
	return append(out, uploaded...), nil
}

// GenerateCheck implements platform.Interface with a code skeleton.
func (p *Platform) GenerateCheck(_ context.Context, req platform.CheckGenerate) (*platform.GeneratedCheck, error) {
	if req.Name == "" || req.Description == "" {
		return nil, platform.Errorf("generate check", platform.ErrValidation, "name and description are required")
	}
	code := fmt.Sprintf("class Check(CodeBasedCheck):\n    # %s\n    @staticmethod\n    def evaluate(model_output: str, scenario_input: str, scenario_result: str) -> %s:\n        raise NotImplementedError\n",
		req.Description, cmp.Or(req.OutputDataType, checks.OutputBool))
	return &platform.GeneratedCheck{CheckGenerate: req, GeneratedCode: code}, nil
}

// UploadCheck implements platform.Interface.
func (p *Platform) UploadCheck(ctx context.Context, req platform.CheckUpload) (*platform.Check, error) {
	const op = "upload check"
	if req.Name == "" || req.GeneratedCode == "" {
		return nil, platform.Errorf(op, platform.ErrValidation, "name and generated code are required")
	}
	if _, ok := checks.Lookup(req.Name); ok {
		return nil, platform.Errorf(op, platform.ErrConflict, "check %q is predefined", req.Name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	existing, exists := p.checks[req.Name]
	if exists && !req.Update {
		return nil, platform.Errorf(op, platform.ErrConflict, "check %q already exists", req.Name)
	}
	id := existing.ID
	if id == "" {
		id = uuid.NewString()
	}
	c := platform.Check{
		ID:                     id,
		Name:                   req.Name,
		Description:            req.Description,
		OutputDataType:         req.OutputDataType,
		RequiresScenarioInput:  req.RequiresScenarioInput,
		RequiresScenarioResult: req.RequiresScenarioResult,
		GeneratedCode:          req.GeneratedCode,
	}
	p.checks[req.Name] = c
	clog.FromContext(ctx).Debug("Stored check", "check", c.Name, "check_id", c.ID)
	return &c, nil
}
