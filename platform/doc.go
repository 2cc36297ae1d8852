/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package platform is the client of the evaluation platform.

Interface is the fixed surface every flow in this repository talks to:
projects, scenario sets, model registration, test runs, test data points and
checks. NewHTTP implements it against the platform's JSON API; the memory
subpackage implements it in-process for tests and offline dry runs.

# Errors

Every failure is classified under one of the sentinel kinds:

  - ErrNotFound: a project, model or scenario lookup has no match
  - ErrValidation: malformed scenario data or request
  - ErrConflict: model registration of an existing name without update
  - ErrUpstream: the platform failed or could not be reached
  - ErrAdapter: a custom model adapter failed

Errors returned by this package are *Error values that match both their kind
and their cause with errors.Is:

	ms, err := client.RegisterModel(ctx, req)
	if errors.Is(err, platform.ErrConflict) {
		// retry with req.Update = true
	}

# Authentication

The HTTP client sends the API key in the "api-key" header. Deployments fronted
by an identity proxy can pass WithTokenSource to authenticate with OAuth2
bearer tokens instead.
*/
package platform
