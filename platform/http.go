/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"chainguard.dev/evalcookbook/retry"
)

// HTTP is the JSON/HTTP client of the evaluation platform.
type HTTP struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retry   retry.Config
}

var _ Interface = (*HTTP)(nil)

type httpOptions struct {
	client *http.Client
	tokens oauth2.TokenSource
	retry  retry.Config
}

// HTTPOption configures NewHTTP.
type HTTPOption func(*httpOptions)

// WithHTTPClient sets the underlying HTTP client. Its transport is wrapped
// for tracing.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(o *httpOptions) { o.client = c }
}

// WithTokenSource authenticates requests with OAuth2 bearer tokens.
func WithTokenSource(ts oauth2.TokenSource) HTTPOption {
	return func(o *httpOptions) { o.tokens = ts }
}

// WithRetry retries rate limited and unavailable responses. The default is
// not to retry.
func WithRetry(cfg retry.Config) HTTPOption {
	return func(o *httpOptions) { o.retry = cfg }
}

// NewHTTP returns a client for the platform at baseURL. Either apiKey or a
// token source is required.
func NewHTTP(baseURL, apiKey string, opts ...HTTPOption) (*HTTP, error) {
	o := httpOptions{retry: retry.None()}
	for _, opt := range opts {
		opt(&o)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, Errorf("new client", ErrValidation, "invalid base URL %q: %w", baseURL, err)
	}
	if apiKey == "" && o.tokens == nil {
		return nil, Errorf("new client", ErrValidation, "an api key or token source is required")
	}
	if err := o.retry.Validate(); err != nil {
		return nil, Errorf("new client", ErrValidation, "retry: %w", err)
	}

	base := http.DefaultTransport
	timeout := 5 * time.Minute
	if o.client != nil {
		if o.client.Transport != nil {
			base = o.client.Transport
		}
		timeout = o.client.Timeout
	}
	var transport http.RoundTripper = otelhttp.NewTransport(base)
	if o.tokens != nil {
		transport = &oauth2.Transport{Source: o.tokens, Base: transport}
	}

	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Transport: transport, Timeout: timeout},
		retry:   o.retry,
	}, nil
}

// request is a single API call. The body is kept as bytes so that retries
// can resend it.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

func jsonRequest(op, method, path string, payload any) (request, error) {
	r := request{op: op, method: method, path: path}
	if payload == nil {
		return r, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return r, Errorf(op, ErrValidation, "encoding request: %w", err)
	}
	r.body = body
	r.contentType = "application/json"
	return r, nil
}

// retryable reports whether a failed call may succeed when repeated.
func retryable(err error) bool {
	var perr *Error
	if !errors.As(err, &perr) {
		return false
	}
	if perr.StatusCode != 0 {
		return retry.RetryableStatus(perr.StatusCode)
	}
	// Transport failures carry no status.
	return errors.Is(perr.Kind, ErrUpstream) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *HTTP) call(ctx context.Context, r request, out any) error {
	_, err := retry.Do(ctx, c.retry, r.op, retryable, func() (struct{}, error) {
		return struct{}{}, c.once(ctx, r, out)
	})
	return err
}

func (c *HTTP) once(ctx context.Context, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return &Error{Op: r.op, Kind: ErrValidation, Err: err}
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Op: r.op, Kind: ErrUpstream, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(msg))
		if detail == "" {
			detail = resp.Status
		}
		clog.FromContext(ctx).With("op", r.op, "status", resp.StatusCode).Debug("Platform request failed")
		return &Error{Op: r.op, Kind: KindForStatus(resp.StatusCode), StatusCode: resp.StatusCode, Err: errors.New(detail)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: r.op, Kind: ErrUpstream, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func (c *HTTP) get(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.call(ctx, request{op: op, method: http.MethodGet, path: path, query: query}, out)
}

func (c *HTTP) post(ctx context.Context, op, path string, payload, out any) error {
	r, err := jsonRequest(op, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	return c.call(ctx, r, out)
}

// ListProjects implements Interface.
func (c *HTTP) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := c.get(ctx, "list projects", "/v0/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateScenarioSet implements Interface.
func (c *HTTP) CreateScenarioSet(ctx context.Context, req ScenarioSetCreate) (*ScenarioSet, error) {
	var out ScenarioSet
	if err := c.post(ctx, "create scenario set", "/v0/scenario_sets", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadScenarioSet implements Interface. The file is sent as multipart form data.
func (c *HTTP) UploadScenarioSet(ctx context.Context, req ScenarioSetUpload) (*ScenarioSet, error) {
	const op = "upload scenario set"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("name", req.Name); err != nil {
		return nil, Errorf(op, ErrValidation, "writing form: %w", err)
	}
	if err := w.WriteField("project_id", req.ProjectID); err != nil {
		return nil, Errorf(op, ErrValidation, "writing form: %w", err)
	}
	part, err := w.CreateFormFile("file", req.FileName)
	if err != nil {
		return nil, Errorf(op, ErrValidation, "writing form: %w", err)
	}
	if _, err := part.Write(req.Content); err != nil {
		return nil, Errorf(op, ErrValidation, "writing form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, Errorf(op, ErrValidation, "writing form: %w", err)
	}

	var out ScenarioSet
	r := request{
		op:          op,
		method:      http.MethodPost,
		path:        "/v0/scenario_sets_upload",
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	}
	if err := c.call(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateScenarioSet implements Interface.
func (c *HTTP) GenerateScenarioSet(ctx context.Context, req ScenarioSetGenerate) (*ScenarioSet, error) {
	var out ScenarioSet
	if err := c.post(ctx, "generate scenario set", "/v0/scenario_sets_generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScenarioDataPoints implements Interface.
func (c *HTTP) ScenarioDataPoints(ctx context.Context, scenarioID string) ([]DataPoint, error) {
	var out []DataPoint
	if err := c.get(ctx, "scenario data points", "/v0/scenario_data_points/"+url.PathEscape(scenarioID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterModel implements Interface.
func (c *HTTP) RegisterModel(ctx context.Context, req ModelRegistration) (*ModelUnderTest, error) {
	var out ModelUnderTest
	if err := c.post(ctx, "register model", "/v0/register_model", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Models implements Interface.
func (c *HTTP) Models(ctx context.Context, projectID string) ([]ModelUnderTest, error) {
	var out []ModelUnderTest
	if err := c.get(ctx, "list models", "/v0/models_under_test", url.Values{"project_id": {projectID}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RunTest implements Interface.
func (c *HTTP) RunTest(ctx context.Context, req TestRunRequest) (*TestRun, error) {
	var out TestRun
	if err := c.post(ctx, "run test", "/v0/test_run", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindTestRuns implements Interface.
func (c *HTTP) FindTestRuns(ctx context.Context, filter TestRunFilter) ([]TestRun, error) {
	var out []TestRun
	if err := c.post(ctx, "find test runs", "/v0/find_test_runs", filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindTestDataPoints implements Interface.
func (c *HTTP) FindTestDataPoints(ctx context.Context, testRunID string) ([]TestDataPoint, error) {
	var out []TestDataPoint
	payload := map[string]string{"test_run_id": testRunID}
	if err := c.post(ctx, "find test data points", "/v0/find_test_data_points", payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Checks implements Interface.
func (c *HTTP) Checks(ctx context.Context) ([]Check, error) {
	var out []Check
	if err := c.get(ctx, "list checks", "/v0/checks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateCheck implements Interface.
func (c *HTTP) GenerateCheck(ctx context.Context, req CheckGenerate) (*GeneratedCheck, error) {
	var out GeneratedCheck
	if err := c.post(ctx, "generate check", "/v0/check_generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadCheck implements Interface.
func (c *HTTP) UploadCheck(ctx context.Context, req CheckUpload) (*Check, error) {
	var out Check
	if err := c.post(ctx, "upload check", "/v0/check_upload", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
