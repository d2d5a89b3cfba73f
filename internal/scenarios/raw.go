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
	_ "embed"
	"fmt"
	"slices"
	"time"

	log "github.com/golang/glog"
	"github.com/open-traffic-generator/snappi-tests/internal/capture"
	"github.com/open-traffic-generator/snappi-tests/internal/otgconfig"
	"github.com/open-traffic-generator/snappi-tests/internal/otgsession"
	"github.com/open-traffic-generator/snappi-tests/internal/otgutils"
	"github.com/open-traffic-generator/snappi/gosnappi"
)

const (
	statsTimeout = 10 * time.Second
	pfcTimeout   = 30 * time.Second

	tcpFrameSize = 128
	tcpPackets   = 1000
	pfcPackets   = 100000
)

// Priorities raw_tx honors pause frames for in pfc_pause_e2e.
var pfcLossless = []uint32{3, 4}

//go:embed configs/list_tcp_ports.json
var listTCPPortsJSON []byte

func init() {
	register(Scenario{
		Name:        "basic_flow_stats",
		Description: "10000 frames of 128B over a raw TCP flow at 1000 pps, checking flow counters and fetching the rx capture.",
		Ports:       2,
		Run:         basicFlowStats,
	})
	register(Scenario{
		Name:        "tcp_unidir_flows",
		Description: "Raw TCP flow from tx to rx over 6 source and 3 destination ports, checking totals and captured TCP ports.",
		Ports:       2,
		Run:         tcpUnidirFlows,
	})
	register(Scenario{
		Name:        "tcp_bidir_flows",
		Description: "Raw TCP flows in both directions between tx and rx, checking port and flow totals.",
		Ports:       2,
		Run:         tcpBidirFlows,
	})
	register(Scenario{
		Name:        "pfc_pause_e2e",
		Description: "8 priority flows under a PFC pause storm: lossless priorities wait out the storm, the others are not paused.",
		Ports:       2,
		Run:         pfcPauseE2E,
	})
	register(Scenario{
		Name:        "load_json_config",
		Description: "Loads a TCP flow configuration from JSON, moves its ports to the test ports and runs it.",
		Ports:       2,
		Run:         loadJSONConfig,
	})
}

// trafficTotals pushes cfg, runs its fixed packet flows and waits for port
// and flow totals to match what cfg sends. It returns once every flow
// reports it stopped.
func trafficTotals(s *otgsession.Session, cfg gosnappi.Config, withCapture bool) error {
	frames, err := otgconfig.ExpectedFrames(cfg)
	if err != nil {
		return err
	}
	bytes, err := otgconfig.ExpectedBytes(cfg)
	if err != nil {
		return err
	}
	if err := s.SetConfig(cfg); err != nil {
		return err
	}
	if err := s.StartTraffic(cfg, withCapture); err != nil {
		return err
	}
	if err := s.WaitFor(s.TotalsCondition(frames, bytes), "stats to be as expected", otgsession.WithTimeout(statsTimeout)); err != nil {
		return err
	}
	if err := s.StopTraffic(cfg, withCapture); err != nil {
		return err
	}
	return s.WaitFor(s.TransmitCondition("stopped"), "flows to stop")
}

func basicFlowStats(s *otgsession.Session) error {
	cfg, err := otgconfig.BasicFlowStats(s.Settings())
	if err != nil {
		return err
	}
	packets, err := otgconfig.ExpectedFrames(cfg)
	if err != nil {
		return err
	}
	if err := s.SetConfig(cfg); err != nil {
		return err
	}
	if err := s.StartTraffic(cfg, true); err != nil {
		return err
	}

	want := otgutils.NewExpectedState()
	for _, f := range cfg.Flows().Items() {
		want.Flow[f.Name()] = otgutils.ExpectedFlowMetrics{FramesTx: packets, FramesRx: packets}
	}
	want.Port[otgconfig.TxPort] = otgutils.ExpectedPortMetrics{FramesTx: packets}
	want.Port[otgconfig.RxPort] = otgutils.ExpectedPortMetrics{FramesRx: packets}
	err = s.WaitFor(otgutils.BoolCondition(func() (bool, error) {
		ports, flows, err := s.AllStats(false)
		if err != nil {
			return false, err
		}
		return otgutils.PortMetricsOk(ports, want) && otgutils.FlowMetricsOk(flows, want), nil
	}), "port and flow metrics to be as expected")
	if err != nil {
		return err
	}
	if err := s.StopTraffic(cfg, true); err != nil {
		return err
	}

	caps, err := s.Captures(cfg)
	if err != nil {
		return err
	}
	for port, frames := range caps {
		log.Infof("Captured %d frames on port %s", len(frames), port)
		if len(frames) > 0 {
			log.V(1).Infof("First frame on port %s: %s", port, capture.Describe(frames[0]))
		}
	}
	return nil
}

func tcpUnidirFlows(s *otgsession.Session) error {
	cfg, err := otgconfig.TCPUnidir(s.Settings(), tcpFrameSize, tcpPackets)
	if err != nil {
		return err
	}
	if err := trafficTotals(s, cfg, true); err != nil {
		return err
	}
	caps, err := s.Captures(cfg)
	if err != nil {
		return err
	}
	n, err := capture.ValidateTCPPorts(caps[otgconfig.RxPort], otgconfig.TCPSrcPorts, otgconfig.TCPDstPorts)
	if err != nil {
		return fmt.Errorf("capture on port %s: %w", otgconfig.RxPort, err)
	}
	log.Infof("Checked TCP ports of %d captured frames", n)
	return nil
}

func tcpBidirFlows(s *otgsession.Session) error {
	cfg, err := otgconfig.TCPBidir(s.Settings(), tcpFrameSize, tcpPackets)
	if err != nil {
		return err
	}
	return trafficTotals(s, cfg, false)
}

// pfcStatsOk checks that raw_tx sent all frames of the priorities not in
// lossless, and that only those reached raw_rx.
func pfcStatsOk(s *otgsession.Session, lossless []uint32, packets uint64) otgutils.Condition {
	return otgutils.BoolCondition(func() (bool, error) {
		ports, flows, err := s.AllStats(true)
		if err != nil {
			return false, err
		}
		tx, ok := otgutils.SampleByName(ports, otgconfig.PFCTxPort)
		if !ok || tx.FramesTx != packets*uint64(8-len(lossless)) {
			return false, nil
		}
		for p := range 8 {
			f, ok := otgutils.SampleByName(flows, otgconfig.PFCFlowName(p))
			if !ok {
				return false, nil
			}
			want := packets
			if slices.Contains(lossless, uint32(p)) {
				want = 0
			}
			if f.FramesRx != want {
				return false, nil
			}
		}
		return true, nil
	})
}

func pfcPauseE2E(s *otgsession.Session) error {
	cfg, err := otgconfig.PFCPause(s.Settings(), pfcLossless, pfcPackets)
	if err != nil {
		return err
	}
	if err := s.SetConfig(cfg); err != nil {
		return err
	}
	if err := s.StartTraffic(nil, false); err != nil {
		return err
	}
	if err := s.WaitFor(pfcStatsOk(s, pfcLossless, pfcPackets), "lossless priorities to be paused", otgsession.WithTimeout(pfcTimeout)); err != nil {
		return err
	}
	if err := s.WaitFor(pfcStatsOk(s, nil, pfcPackets), "all priorities to be received", otgsession.WithTimeout(pfcTimeout)); err != nil {
		return err
	}
	return s.StopTraffic(nil, false)
}

func loadJSONConfig(s *otgsession.Session) error {
	cfg, err := otgconfig.FromJSON(listTCPPortsJSON)
	if err != nil {
		return fmt.Errorf("parsing embedded config: %w", err)
	}
	if err := otgconfig.RelocatePorts(cfg, s.Settings()); err != nil {
		return err
	}
	for i, p := range cfg.Ports().Items() {
		want, err := s.Settings().Port(i)
		if err != nil {
			return err
		}
		if p.Location() != want {
			return fmt.Errorf("port %s at %q, want %q", p.Name(), p.Location(), want)
		}
	}
	return trafficTotals(s, cfg, false)
}
