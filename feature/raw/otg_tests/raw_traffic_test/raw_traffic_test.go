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

// Package raw_traffic_test sends raw flows between back to back ports and
// checks the port and flow totals, the captured TCP ports and PFC pause
// behaviour.
package raw_traffic_test

import (
	"testing"

	"github.com/open-traffic-generator/snappi-tests/internal/fptest"
)

func TestMain(m *testing.M) {
	fptest.RunTests(m)
}

func TestBasicFlowStats(t *testing.T) {
	sess := fptest.Session(t)
	fptest.RunScenario(t, sess, "basic_flow_stats")
}

func TestTCPUnidirFlows(t *testing.T) {
	sess := fptest.Session(t)
	fptest.RunScenario(t, sess, "tcp_unidir_flows")
}

func TestTCPBidirFlows(t *testing.T) {
	sess := fptest.Session(t)
	fptest.RunScenario(t, sess, "tcp_bidir_flows")
}

func TestPFCPauseE2E(t *testing.T) {
	sess := fptest.Session(t)
	fptest.RunScenario(t, sess, "pfc_pause_e2e")
}

func TestLoadJSONConfig(t *testing.T) {
	sess := fptest.Session(t)
	fptest.RunScenario(t, sess, "load_json_config")
}
