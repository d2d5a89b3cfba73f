// Copyright 2022 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package report records the outcome of the scenarios of a run and writes
// it as YAML.
package report

import (
	"fmt"
	"os"
	"time"

	log "github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/open-traffic-generator/snappi-tests/internal/otgutils"
	"gopkg.in/yaml.v3"
)

var timeNow = time.Now

// Result is the outcome of one scenario.
type Result struct {
	Name   string `yaml:"name"`
	Passed bool   `yaml:"passed"`
	// Failure is "aborted", "timed_out" or "error" for failed scenarios.
	Failure        string  `yaml:"failure,omitempty"`
	Error          string  `yaml:"error,omitempty"`
	ElapsedSeconds float64 `yaml:"elapsed_seconds"`
}

// Report is the outcome of a run.
type Report struct {
	RunID      uuid.UUID         `yaml:"run_id"`
	Started    time.Time         `yaml:"started"`
	Properties map[string]string `yaml:"properties,omitempty"`
	Results    []Result          `yaml:"results"`
}

// New starts the report of a run with the given properties.
func New(props map[string]string) *Report {
	return &Report{
		RunID:      uuid.New(),
		Started:    timeNow(),
		Properties: props,
	}
}

// Add records the outcome of scenario name, which ran for elapsed and
// returned err.
func (r *Report) Add(name string, elapsed time.Duration, err error) {
	res := Result{Name: name, Passed: err == nil, ElapsedSeconds: elapsed.Seconds()}
	if err != nil {
		res.Failure = otgutils.Result(err)
		res.Error = err.Error()
		log.Errorf("FAIL %s (%v): %v", name, elapsed, err)
	} else {
		log.Infof("PASS %s (%v)", name, elapsed)
	}
	r.Results = append(r.Results, res)
}

// Failed returns the results of the failed scenarios.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// Summary counts passed and failed scenarios.
func (r *Report) Summary() string {
	failed := len(r.Failed())
	return fmt.Sprintf("run %s: %d passed, %d failed", r.RunID, len(r.Results)-failed, failed)
}

// Write stores the report as YAML at path.
func (r *Report) Write(path string) error {
	b, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	log.Infof("Report written to %s", path)
	return nil
}

// Read loads a report written by Write.
func Read(path string) (*Report, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := &Report{}
	if err := yaml.Unmarshal(b, r); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return r, nil
}
