/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chainguard.dev/evalcookbook/checks"
	"chainguard.dev/evalcookbook/flow"
	"chainguard.dev/evalcookbook/report"
	"chainguard.dev/evalcookbook/schema"
)

var schemas = map[string]func() ([]byte, error){
	"flow":       func() ([]byte, error) { return schema.JSON[flow.File]("Evaluation flow") },
	"thresholds": func() ([]byte, error) { return schema.JSON[report.Thresholds]("Report thresholds") },
	"checks":     func() ([]byte, error) { return schema.JSON[[]checks.Definition]("Check definitions") },
}

func buildSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema [flow|thresholds|checks]",
		Short:     "Print the JSON schema of a configuration file",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"flow", "thresholds", "checks"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "flow"
			if len(args) == 1 {
				kind = args[0]
			}
			render, ok := schemas[kind]
			if !ok {
				return fmt.Errorf("unknown schema %q", kind)
			}
			b, err := render()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}
