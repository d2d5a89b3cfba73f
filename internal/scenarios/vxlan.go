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

package scenarios

import (
	"github.com/open-traffic-generator/snappi-tests/internal/otgconfig"
	"github.com/open-traffic-generator/snappi-tests/internal/otgsession"
	"github.com/open-traffic-generator/snappi-tests/internal/otgutils"
)

const vxlanPackets = 100

func init() {
	register(Scenario{
		Name:        "vxlan",
		Description: "Edge devices behind VXLAN tunnels on tx and rx exchange 100 frames without loss.",
		Ports:       2,
		Run:         vxlan,
	})
}

// flowsReceived is met when the named flows received expected frames in
// total.
func flowsReceived(s *otgsession.Session, expected uint64, names ...string) otgutils.Condition {
	return otgutils.BoolCondition(func() (bool, error) {
		flows, err := s.FlowMetrics(names...)
		if err != nil {
			return false, err
		}
		return otgutils.SumFrames(nil, flows).FlowRx == expected, nil
	})
}

func vxlan(s *otgsession.Session) error {
	cfg, err := otgconfig.VXLAN(s.Settings(), vxlanPackets)
	if err != nil {
		return err
	}
	if err := s.SetConfig(cfg); err != nil {
		return err
	}
	if err := s.StartTraffic(cfg, false); err != nil {
		return err
	}
	var names []string
	for _, f := range cfg.Flows().Items() {
		names = append(names, f.Name())
	}
	if err := s.WaitFor(flowsReceived(s, vxlanPackets, names...), "stats to be as expected", otgsession.WithTimeout(statsTimeout)); err != nil {
		return err
	}
	return s.StopTraffic(cfg, false)
}
