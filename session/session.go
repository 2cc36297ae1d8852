/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"slices"

	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"

	"chainguard.dev/evalcookbook/adapter"
	"chainguard.dev/evalcookbook/driver"
	"chainguard.dev/evalcookbook/platform"
	"chainguard.dev/evalcookbook/report"
	"chainguard.dev/evalcookbook/scenario"
)

// PersonaFactory builds the persona of a client-driven conversation.
type PersonaFactory func(ctx context.Context, spec adapter.PersonaSpec) (driver.Persona, error)

// Session sequences calls against the evaluation platform. It holds no
// platform state; every lookup goes to the client.
type Session struct {
	cfg      Config
	client   platform.Interface
	personas PersonaFactory
}

// Option configures a Session.
type Option func(*Session)

// WithPersonaFactory overrides how driver personas are built. By default
// driver.NewPersona is used with the configured credentials.
func WithPersonaFactory(f PersonaFactory) Option {
	return func(s *Session) { s.personas = f }
}

// New returns a session over client.
func New(cfg Config, client platform.Interface, opts ...Option) *Session {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if cfg.OnFailure == "" {
		cfg.OnFailure = report.Throw
	}
	s := &Session{cfg: cfg, client: client}
	s.personas = func(ctx context.Context, spec adapter.PersonaSpec) (driver.Persona, error) {
		return driver.NewPersona(ctx, spec, cfg.Credentials())
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the session configuration.
func (s *Session) Config() Config { return s.cfg }

// Client returns the underlying platform client.
func (s *Session) Client() platform.Interface { return s.client }

// remote wraps an error from the platform client. Errors that already carry
// a kind keep it; anything else is an upstream failure.
func remote(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, kind := range []error{platform.ErrNotFound, platform.ErrValidation, platform.ErrConflict, platform.ErrUpstream, platform.ErrAdapter} {
		if errors.Is(err, kind) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return &platform.Error{Op: op, Kind: platform.ErrUpstream, Err: err}
}

// ResolveProject returns the id of the project with exactly the given name.
// An empty name resolves the configured project.
func (s *Session) ResolveProject(ctx context.Context, name string) (_ string, err error) {
	if name == "" {
		name = s.cfg.ProjectName
	}
	ctx, done := start(ctx, "resolve_project", attribute.String("project.name", name))
	defer func() { done(err) }()

	projects, err := s.client.ListProjects(ctx)
	if err != nil {
		return "", remote("list projects", err)
	}
	for _, p := range projects {
		if p.Name == name {
			clog.FromContext(ctx).With("project_id", p.ID, "project", name).Debug("Resolved project")
			return p.ID, nil
		}
	}
	return "", &platform.Error{Op: "resolve project", Kind: platform.ErrNotFound, Err: fmt.Errorf("no project named %q", name)}
}

// CreateScenarioSet stores inline records as a scenario set. Records are
// validated before anything is sent.
func (s *Session) CreateScenarioSet(ctx context.Context, projectID, name string, records []scenario.Record) (_ *platform.ScenarioSet, err error) {
	ctx, done := start(ctx, "create_scenario_set", attribute.String("scenario.name", name), attribute.Int("scenario.records", len(records)))
	defer func() { done(err) }()

	if err := scenario.Validate(records); err != nil {
		return nil, fmt.Errorf("scenario set %q: %w", name, err)
	}
	set, err := s.client.CreateScenarioSet(ctx, platform.ScenarioSetCreate{
		ProjectID: projectID,
		Name:      name,
		SeedData:  records,
	})
	if err != nil {
		return nil, remote("create scenario set", err)
	}
	clog.FromContext(ctx).With("scenario_id", set.ScenarioID, "app_link", set.AppLink).Info("Created scenario set")
	return set, nil
}

// UploadScenarioSet uploads a newline-delimited JSON file from a local path
// or a gs:// URI. Every line is validated before the upload.
func (s *Session) UploadScenarioSet(ctx context.Context, projectID, name, uri string) (_ *platform.ScenarioSet, err error) {
	ctx, done := start(ctx, "upload_scenario_set", attribute.String("scenario.name", name), attribute.String("scenario.uri", uri))
	defer func() { done(err) }()

	data, err := scenario.Load(ctx, uri)
	if err != nil {
		return nil, remote("load scenario file", err)
	}
	records, err := scenario.ReadJSONL(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	if err := scenario.Validate(records); err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	content, err := scenario.Encode(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}

	set, err := s.client.UploadScenarioSet(ctx, platform.ScenarioSetUpload{
		ProjectID: projectID,
		Name:      name,
		FileName:  path.Base(uri),
		Content:   content,
	})
	if err != nil {
		return nil, remote("upload scenario set", err)
	}
	clog.FromContext(ctx).With("scenario_id", set.ScenarioID, "records", len(records)).Info("Uploaded scenario set")
	return set, nil
}

// GenerateScenarioSet asks the platform for synthetic variants of an existing set.
func (s *Session) GenerateScenarioSet(ctx context.Context, req platform.ScenarioSetGenerate) (_ *platform.ScenarioSet, err error) {
	ctx, done := start(ctx, "generate_scenario_set", attribute.String("scenario.name", req.Name), attribute.String("scenario.type", string(req.GenerationType)))
	defer func() { done(err) }()

	switch {
	case req.SourceScenarioID == "":
		return nil, platform.Errorf("generate scenario set", platform.ErrValidation, "source scenario id is required")
	case req.NumberExamples < 1:
		return nil, platform.Errorf("generate scenario set", platform.ErrValidation, "number of examples must be at least 1, got %d", req.NumberExamples)
	}
	if req.GenerationType == "" {
		req.GenerationType = platform.ScenarioTypeSeed
	}
	set, err := s.client.GenerateScenarioSet(ctx, req)
	if err != nil {
		return nil, remote("generate scenario set", err)
	}
	return set, nil
}

// ModelHandle is a registered model together with the adapter it was
// registered from. Custom adapters are invoked through it at run time.
type ModelHandle struct {
	platform.ModelUnderTest
	Adapter adapter.Adapter
}

// RegisterOptions control model registration.
type RegisterOptions struct {
	// Upsert replaces an existing model of the same name instead of failing.
	Upsert bool
	Tags   []string
}

// RegisterModel stores the adapter under name. Without Upsert an existing
// model of the same name is a conflict.
func (s *Session) RegisterModel(ctx context.Context, projectID, name string, a adapter.Adapter, opts RegisterOptions) (_ *ModelHandle, err error) {
	ctx, done := start(ctx, "register_model", attribute.String("model.name", name), attribute.Bool("model.upsert", opts.Upsert))
	defer func() { done(err) }()

	if a == nil {
		return nil, platform.Errorf("register model", platform.ErrValidation, "adapter is required")
	}
	attrs := []any{"model", name, "kind", a.Kind()}
	if err := a.Validate(); err != nil {
		return nil, &platform.Error{Op: "register model", Kind: platform.ErrValidation, Err: err}
	}

	if !opts.Upsert {
		existing, err := s.client.Models(ctx, projectID)
		if err != nil {
			return nil, remote("list models", err)
		}
		if slices.ContainsFunc(existing, func(m platform.ModelUnderTest) bool { return m.Name == name }) {
			return nil, platform.Errorf("register model", platform.ErrConflict, "model %q already exists", name)
		}
	}

	mut, err := s.client.RegisterModel(ctx, platform.ModelRegistration{
		ProjectID: projectID,
		Name:      name,
		Tags:      opts.Tags,
		Models:    a.Spec(),
		Update:    opts.Upsert,
	})
	if err != nil {
		return nil, remote("register model", err)
	}
	clog.FromContext(ctx).With(attrs...).With("model_id", mut.ID).Info("Registered model")
	return &ModelHandle{ModelUnderTest: *mut, Adapter: a}, nil
}

// Models lists the registered models of a project.
func (s *Session) Models(ctx context.Context, projectID string) (_ []platform.ModelUnderTest, err error) {
	ctx, done := start(ctx, "models")
	defer func() { done(err) }()

	models, err := s.client.Models(ctx, projectID)
	if err != nil {
		return nil, remote("list models", err)
	}
	return models, nil
}

// ModelByName returns the registered model with the given name.
func (s *Session) ModelByName(ctx context.Context, projectID, name string) (*platform.ModelUnderTest, error) {
	models, err := s.Models(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, m := range models {
		if m.Name == name {
			return &m, nil
		}
	}
	return nil, platform.Errorf("find model", platform.ErrNotFound, "no model named %q", name)
}

// FindTestRuns returns the runs matching filter.
func (s *Session) FindTestRuns(ctx context.Context, filter platform.TestRunFilter) (_ []platform.TestRun, err error) {
	ctx, done := start(ctx, "find_test_runs")
	defer func() { done(err) }()

	runs, err := s.client.FindTestRuns(ctx, filter)
	if err != nil {
		return nil, remote("find test runs", err)
	}
	return runs, nil
}

// BuildReport evaluates run against thresholds. It has no side effects.
func (s *Session) BuildReport(run *platform.TestRun, th report.Thresholds) report.Report {
	return report.Build(run, th)
}

// Finish applies the configured failure policy to a report.
func (s *Session) Finish(ctx context.Context, rep report.Report) error {
	return s.FinishWith(ctx, rep, s.cfg.OnFailure)
}

// FinishWith applies policy to a report, overriding the configured one.
func (s *Session) FinishWith(ctx context.Context, rep report.Report, policy report.OnFailure) error {
	result := "pass"
	if !rep.Pass {
		result = "fail"
	}
	reportCounter.WithLabelValues(result).Inc()
	return report.Enforce(ctx, rep, policy)
}
