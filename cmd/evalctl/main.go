/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Command evalctl runs evaluation flows against the evaluation platform.
//
//	evalctl projects
//	evalctl run -f flows/coffee.yaml
//	evalctl run -f flows/coffee.yaml --offline
//	evalctl history --model coffee-classifier --last 6 -t thresholds.yaml
//	evalctl checks sync -f checks.yaml
//	evalctl schema flow
//
// Configuration is read from the environment: OKAREO_API_KEY, OKAREO_BASE_URL,
// PROJECT_NAME, DEMO_BUILD_ID, OPENAI_API_KEY, EVAL_PARALLELISM,
// EVAL_ON_FAILURE and EVAL_MAX_RETRIES.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainguard-dev/clog"
	_ "github.com/chainguard-dev/clog/gcp/init"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := buildRootCmd().ExecuteContext(ctx); err != nil {
		clog.FatalContextf(ctx, "evalctl: %v", err)
	}
}
