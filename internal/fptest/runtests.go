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

// Package fptest runs the registered scenarios as go tests against the
// controller named by the settings.
package fptest

import (
	"context"
	"errors"
	"flag"
	"os"
	"testing"

	log "github.com/golang/glog"
	"github.com/open-traffic-generator/snappi-tests/internal/otgsession"
	"github.com/open-traffic-generator/snappi-tests/internal/otgutils"
	"github.com/open-traffic-generator/snappi-tests/internal/scenarios"
	"github.com/open-traffic-generator/snappi-tests/internal/settings"
)

var dialFn = otgsession.Dial

// RunTests parses the flags and runs the tests.
// It should be called from every traffic test like this:
//
//	package test
//
//	import "github.com/open-traffic-generator/snappi-tests/internal/fptest"
//
//	func TestMain(m *testing.M) {
//	  fptest.RunTests(m)
//	}
func RunTests(m *testing.M) {
	flag.Parse()
	code := m.Run()
	log.Flush()
	os.Exit(code)
}

// Session dials the controller of the settings, skipping the test when no
// test ports are configured.
func Session(t testing.TB) *otgsession.Session {
	t.Helper()
	s, err := settings.Load(nil)
	if err != nil {
		t.Fatalf("Loading settings: %v", err)
	}
	if err := s.Validate(); errors.Is(err, settings.ErrNoPorts) {
		t.Skip("No test ports configured, set SETTINGS_FILE to run against a controller")
	} else if err != nil {
		t.Fatalf("Invalid settings: %v", err)
	}
	sess, err := dialFn(context.Background(), s)
	if err != nil {
		t.Fatalf("Dialing controller: %v", err)
	}
	t.Cleanup(func() {
		if err := sess.Close(); err != nil {
			t.Errorf("Closing session: %v", err)
		}
	})
	return sess
}

// RunScenario runs the named scenario on sess and writes the last metrics
// read as a test output.
func RunScenario(t *testing.T, sess *otgsession.Session, name string) {
	t.Helper()
	sc, err := scenarios.Lookup(name)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(sess.Settings().Ports); n < sc.Ports {
		t.Skipf("%s needs %d ports, %d configured", name, sc.Ports, n)
	}
	t.Log(sc.Description)
	err = sc.Run(sess)
	if ports, flows, serr := sess.AllStats(false); serr == nil {
		otgutils.LogPortMetrics(t, ports)
		otgutils.LogFlowMetrics(t, flows)
		table := otgutils.FormatMetricsTable(&otgutils.MetricsTableOpts{PortMetrics: ports, FlowMetrics: flows})
		if path, werr := WriteOutput(t.Name(), ".txt", table); werr == nil {
			t.Logf("Metrics written to %s", path)
		}
	}
	if err != nil {
		t.Errorf("%s: %v", name, err)
	}
}
