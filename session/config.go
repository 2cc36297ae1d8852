/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sethvargo/go-envconfig"

	"chainguard.dev/evalcookbook/driver"
	"chainguard.dev/evalcookbook/platform"
	"chainguard.dev/evalcookbook/report"
	"chainguard.dev/evalcookbook/retry"
)

// Config is the process configuration of a session. It is read from the
// environment once, by the binary, and passed in explicitly.
type Config struct {
	// APIKey authenticates against the evaluation platform. It is only
	// required when talking to the remote platform.
	APIKey      string `env:"OKAREO_API_KEY"`
	BaseURL     string `env:"OKAREO_BASE_URL,default=https://api.okareo.com"`
	ProjectName string `env:"PROJECT_NAME,default=Global"`
	// BuildID tags runs so they can be traced back to a CI build.
	BuildID string `env:"DEMO_BUILD_ID"`

	OpenAIKey     string `env:"OPENAI_API_KEY"`
	AnthropicKey  string `env:"ANTHROPIC_API_KEY"`
	GoogleKey     string `env:"GEMINI_API_KEY"`
	VertexProject string `env:"GOOGLE_CLOUD_PROJECT"`
	VertexRegion  string `env:"GOOGLE_CLOUD_LOCATION,default=us-central1"`

	// Parallelism bounds concurrent custom model invocations.
	Parallelism int              `env:"EVAL_PARALLELISM,default=1"`
	OnFailure   report.OnFailure `env:"EVAL_ON_FAILURE,default=throw"`
	// MaxRetries is the number of retries of rate limited or unavailable
	// platform calls. Zero disables retries.
	MaxRetries int `env:"EVAL_MAX_RETRIES,default=0"`
}

// ConfigFromEnv reads the configuration from the process environment.
func ConfigFromEnv(ctx context.Context) (Config, error) {
	return ConfigFromLookuper(ctx, envconfig.OsLookuper())
}

// ConfigFromLookuper reads the configuration from l and fills in defaults.
func ConfigFromLookuper(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return Config{}, fmt.Errorf("processing config: %w", err)
	}
	if cfg.BuildID == "" {
		cfg.BuildID = "local." + uuid.NewString()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that have no usable fallback.
func (c Config) Validate() error {
	if c.Parallelism < 1 {
		return platform.Errorf("validate config", platform.ErrValidation, "EVAL_PARALLELISM must be at least 1, got %d", c.Parallelism)
	}
	if c.MaxRetries < 0 {
		return platform.Errorf("validate config", platform.ErrValidation, "EVAL_MAX_RETRIES must not be negative, got %d", c.MaxRetries)
	}
	if _, err := report.ParseOnFailure(string(c.OnFailure)); err != nil {
		return platform.Errorf("validate config", platform.ErrValidation, "EVAL_ON_FAILURE: %w", err)
	}
	return nil
}

// Retry returns the retry policy for platform calls.
func (c Config) Retry() retry.Config {
	if c.MaxRetries == 0 {
		return retry.None()
	}
	rc := retry.Default()
	rc.MaxRetries = c.MaxRetries
	return rc
}

// Client connects to the remote evaluation platform.
func (c Config) Client(opts ...platform.HTTPOption) (*platform.HTTP, error) {
	if c.APIKey == "" {
		return nil, platform.Errorf("connect", platform.ErrValidation, "OKAREO_API_KEY is required")
	}
	return platform.NewHTTP(c.BaseURL, c.APIKey, append([]platform.HTTPOption{platform.WithRetry(c.Retry())}, opts...)...)
}

// Credentials returns the persona provider keys.
func (c Config) Credentials() driver.Credentials {
	return driver.Credentials{
		OpenAIKey:     c.OpenAIKey,
		AnthropicKey:  c.AnthropicKey,
		GoogleKey:     c.GoogleKey,
		VertexProject: c.VertexProject,
		VertexRegion:  c.VertexRegion,
	}
}

// providerKeys are forwarded with runs of hosted models.
func (c Config) providerKeys() map[string]string {
	keys := map[string]string{}
	if c.OpenAIKey != "" {
		keys["openai"] = c.OpenAIKey
	}
	if c.AnthropicKey != "" {
		keys["anthropic"] = c.AnthropicKey
	}
	if c.GoogleKey != "" {
		keys["google"] = c.GoogleKey
	}
	if len(keys) == 0 {
		return nil
	}
	return keys
}
