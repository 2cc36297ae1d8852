/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package platform

import (
	"maps"
	"time"
)

// Project is a workspace on the evaluation platform.
type Project struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`
}

// SeedData is a single scenario record: an input and its expected result.
type SeedData struct {
	Input  any `json:"input"`
	Result any `json:"result"`
}

// ScenarioSet is an immutable, ordered collection of seed records.
type ScenarioSet struct {
	ScenarioID  string     `json:"scenario_id"`
	ProjectID   string     `json:"project_id"`
	Name        string     `json:"name"`
	SeedData    []SeedData `json:"seed_data,omitempty"`
	AppLink     string     `json:"app_link,omitempty"`
	TimeCreated time.Time  `json:"time_created,omitzero"`
}

// ScenarioSetCreate creates a scenario set from inline seed data.
type ScenarioSetCreate struct {
	ProjectID string     `json:"project_id"`
	Name      string     `json:"name"`
	SeedData  []SeedData `json:"seed_data"`
}

// ScenarioSetUpload creates a scenario set from a newline-delimited JSON file.
type ScenarioSetUpload struct {
	ProjectID string
	Name      string
	FileName  string
	Content   []byte
}

// ScenarioType selects a synthetic generation strategy.
type ScenarioType string

const (
	ScenarioTypeSeed               ScenarioType = "SEED"
	ScenarioTypeRephraseInvariant  ScenarioType = "REPHRASE_INVARIANT"
	ScenarioTypeCommonMisspellings ScenarioType = "COMMON_MISSPELLINGS"
	ScenarioTypeCommonContractions ScenarioType = "COMMON_CONTRACTIONS"
	ScenarioTypeTextReverseQuery   ScenarioType = "TEXT_REVERSE_QUESTION"
)

// ScenarioSetGenerate asks the platform for synthetic variants of an existing set.
type ScenarioSetGenerate struct {
	ProjectID        string       `json:"project_id"`
	SourceScenarioID string       `json:"source_scenario_id"`
	Name             string       `json:"name"`
	NumberExamples   int          `json:"number_examples"`
	GenerationType   ScenarioType `json:"generation_type,omitempty"`
}

// DataPoint is a stored scenario record with its platform identifier.
type DataPoint struct {
	ID     string `json:"id"`
	Input  any    `json:"input"`
	Result any    `json:"result"`
}

// Model spec types understood by the platform.
const (
	ModelTypeCustom       = "custom"
	ModelTypeCustomTarget = "custom_target"
	ModelTypeDriver       = "driver"
)

// DriverParams configures the persona that drives a multi-turn conversation.
type DriverParams struct {
	DriverType        string  `json:"driver_type,omitempty"`
	DriverModel       string  `json:"driver_model,omitempty"`
	DriverTemperature float64 `json:"driver_temperature"`
}

// ModelSpec is the wire representation of a registered model adapter.
type ModelSpec struct {
	Type                 string        `json:"type"`
	ModelID              string        `json:"model_id,omitempty"`
	Temperature          *float64      `json:"temperature,omitempty"`
	SystemPromptTemplate string        `json:"system_prompt_template,omitempty"`
	UserPromptTemplate   string        `json:"user_prompt_template,omitempty"`
	DialogTemplate       string        `json:"dialog_template,omitempty"`
	MaxTurns             int           `json:"max_turns,omitempty"`
	Repeats              int           `json:"repeats,omitempty"`
	FirstTurn            string        `json:"first_turn,omitempty"`
	DriverParams         *DriverParams `json:"driver_params,omitempty"`
	Target               *ModelSpec    `json:"target,omitempty"`
}

// ModelRegistration stores a model adapter under a name within a project.
type ModelRegistration struct {
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Tags      []string  `json:"tags,omitempty"`
	Models    ModelSpec `json:"models"`
	Update    bool      `json:"update"`
}

// ModelUnderTest is a registered model.
type ModelUnderTest struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Tags      []string  `json:"tags,omitempty"`
	Models    ModelSpec `json:"models"`
	AppLink   string    `json:"app_link,omitempty"`
}

// TestRunType is the evaluation mode of a test run.
type TestRunType string

const (
	Classification TestRunType = "MULTI_CLASS_CLASSIFICATION"
	Retrieval      TestRunType = "INFORMATION_RETRIEVAL"
	Generation     TestRunType = "NL_GENERATION"
	MultiTurn      TestRunType = "MULTI_TURN"
)

// Valid reports whether t is a known run type.
func (t TestRunType) Valid() bool {
	switch t {
	case Classification, Retrieval, Generation, MultiTurn:
		return true
	}
	return false
}

// Invocation is the canonical shape of a single model prediction.
type Invocation struct {
	Prediction any            `json:"model_prediction"`
	Input      any            `json:"model_input"`
	Metadata   map[string]any `json:"model_output_metadata,omitempty"`
}

// TestRunRequest runs a registered model against a scenario set.
// ModelResults carries client-side predictions keyed by data point id.
type TestRunRequest struct {
	ProjectID        string                `json:"project_id"`
	ModelID          string                `json:"mut_id"`
	ScenarioID       string                `json:"scenario_id"`
	Name             string                `json:"name"`
	Tags             []string              `json:"tags,omitempty"`
	Type             TestRunType           `json:"type"`
	Checks           []string              `json:"checks,omitempty"`
	CalculateMetrics bool                  `json:"calculate_metrics"`
	APIKeys          map[string]string     `json:"api_keys,omitempty"`
	ModelResults     map[string]Invocation `json:"model_results,omitempty"`
}

// ModelMetrics are the aggregated metrics computed by the platform.
type ModelMetrics struct {
	WeightedAverage map[string]float64            `json:"weighted_average,omitempty"`
	ScoresByLabel   map[string]map[string]float64 `json:"scores_by_label,omitempty"`
	MeanScores      map[string]float64            `json:"mean_scores,omitempty"`
	PassRates       map[string]float64            `json:"pass_rates,omitempty"`
	Retrieval       map[string]float64            `json:"retrieval,omitempty"`
}

// TestRun is a completed evaluation run.
type TestRun struct {
	ID                 string             `json:"id"`
	ProjectID          string             `json:"project_id"`
	ModelID            string             `json:"mut_id"`
	ScenarioSetID      string             `json:"scenario_set_id"`
	Name               string             `json:"name"`
	Tags               []string           `json:"tags,omitempty"`
	Type               TestRunType        `json:"type"`
	StartTime          time.Time          `json:"start_time,omitzero"`
	EndTime            time.Time          `json:"end_time,omitzero"`
	TestDataPointCount int                `json:"test_data_point_count"`
	ModelMetrics       ModelMetrics       `json:"model_metrics"`
	ErrorMatrix        []map[string][]int `json:"error_matrix,omitempty"`
	ErrorCount         int                `json:"error_count,omitempty"`
	AppLink            string             `json:"app_link,omitempty"`
}

// Metrics flattens every scalar metric of the run into a single map.
func (r *TestRun) Metrics() map[string]float64 {
	out := make(map[string]float64, len(r.ModelMetrics.WeightedAverage)+len(r.ModelMetrics.MeanScores)+len(r.ModelMetrics.Retrieval))
	maps.Copy(out, r.ModelMetrics.Retrieval)
	maps.Copy(out, r.ModelMetrics.MeanScores)
	maps.Copy(out, r.ModelMetrics.WeightedAverage)
	return out
}

// Errors returns the number of mispredictions. Classification runs count the
// off-diagonal cells of the error matrix; other runs report ErrorCount.
func (r *TestRun) Errors() int {
	if len(r.ErrorMatrix) == 0 {
		return r.ErrorCount
	}
	var n int
	for i, row := range r.ErrorMatrix {
		for _, counts := range row {
			for j, c := range counts {
				if j != i {
					n += c
				}
			}
		}
	}
	return n
}

// TestDataPoint is a single recorded prediction within a test run.
type TestDataPoint struct {
	ID                  string             `json:"id"`
	TestRunID           string             `json:"test_run_id"`
	ScenarioDataPointID string             `json:"scenario_data_point_id"`
	ModelInput          any                `json:"model_input"`
	ModelPrediction     any                `json:"model_prediction"`
	ScenarioResult      any                `json:"scenario_result"`
	Metrics             map[string]float64 `json:"metric_value,omitempty"`
	Metadata            map[string]any     `json:"model_output_metadata,omitempty"`
}

// TestRunFilter narrows FindTestRuns.
type TestRunFilter struct {
	ProjectID  string   `json:"project_id,omitempty"`
	ModelID    string   `json:"mut_id,omitempty"`
	TestRunIDs []string `json:"test_run_ids,omitempty"`
}

// Check is a named scoring function available on the platform.
type Check struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	Description            string `json:"description,omitempty"`
	OutputDataType         string `json:"output_data_type,omitempty"`
	RequiresScenarioInput  bool   `json:"requires_scenario_input"`
	RequiresScenarioResult bool   `json:"requires_scenario_result"`
	GeneratedCode          string `json:"generated_code,omitempty"`
	IsPredefined           bool   `json:"is_predefined"`
}

// CheckGenerate asks the platform to generate check code from a description.
type CheckGenerate struct {
	ProjectID              string `json:"project_id"`
	Name                   string `json:"name"`
	Description            string `json:"description"`
	OutputDataType         string `json:"output_data_type"`
	RequiresScenarioInput  bool   `json:"requires_scenario_input"`
	RequiresScenarioResult bool   `json:"requires_scenario_result"`
}

// GeneratedCheck is the result of check generation.
type GeneratedCheck struct {
	CheckGenerate
	GeneratedCode string `json:"generated_code"`
}

// CheckUpload stores a check. Update overwrites an existing check of the same name.
type CheckUpload struct {
	ProjectID              string `json:"project_id"`
	Name                   string `json:"name"`
	Description            string `json:"description"`
	OutputDataType         string `json:"output_data_type"`
	RequiresScenarioInput  bool   `json:"requires_scenario_input"`
	RequiresScenarioResult bool   `json:"requires_scenario_result"`
	GeneratedCode          string `json:"generated_code"`
	Update                 bool   `json:"update"`
}
