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
	"fmt"

	log "github.com/golang/glog"
	"github.com/open-traffic-generator/snappi-tests/internal/capture"
	"github.com/open-traffic-generator/snappi-tests/internal/iputil"
	"github.com/open-traffic-generator/snappi-tests/internal/otgconfig"
	"github.com/open-traffic-generator/snappi-tests/internal/otgsession"
)

const (
	ipFrameSize = 128
	ipPackets   = 1000
)

func init() {
	register(Scenario{
		Name:        "ipv4_device_capture",
		Description: "IPv4 and IPv6 device and raw flows from tx to rx, checking totals and the headers of every captured frame.",
		Ports:       2,
		Run:         ipDeviceCapture,
	})
}

func ipDeviceCapture(s *otgsession.Session) error {
	cfg, err := otgconfig.IPDevices(s.Settings(), ipFrameSize, ipPackets)
	if err != nil {
		return err
	}
	if err := trafficTotals(s, cfg, true); err != nil {
		return err
	}
	frames, err := otgconfig.ExpectedFrames(cfg)
	if err != nil {
		return err
	}

	caps, err := s.Captures(cfg)
	if err != nil {
		return err
	}
	if len(caps) != 1 {
		return fmt.Errorf("got captures from %d ports, want 1", len(caps))
	}
	rx := caps[otgconfig.RxPort]
	want, err := macCounters(otgconfig.DeviceTxMAC, otgconfig.DeviceRxMAC, otgconfig.DeviceMACStep, otgconfig.DeviceMACCount)
	if err != nil {
		return err
	}
	matched, err := capture.Validate(rx, want)
	if err != nil {
		return fmt.Errorf("capture on port %s: %w", otgconfig.RxPort, err)
	}
	if uint64(matched) != frames {
		return fmt.Errorf("captured %d frames of the configured flows, want %d", matched, frames)
	}
	v4, err := capture.ValidateIPv4(rx, otgconfig.DeviceTxIPv4, otgconfig.DeviceRxIPv4)
	if err != nil {
		return fmt.Errorf("capture on port %s: %w", otgconfig.RxPort, err)
	}
	log.Infof("Checked %d captured frames, %d of them IPv4", matched, v4)
	return nil
}

// macCounters returns the expected frames of the raw flows, whose source
// MAC counts up from src while the destination MAC counts down from dst.
// The device flows use the first pair.
func macCounters(src, dst, step string, count int) ([]capture.Expected, error) {
	srcs, err := iputil.CounterPattern(src, step, count, true, true)
	if err != nil {
		return nil, err
	}
	dsts, err := iputil.CounterPattern(dst, step, count, false, true)
	if err != nil {
		return nil, err
	}
	var out []capture.Expected
	for i := range srcs {
		out = append(out, capture.Expected{SrcMAC: srcs[i], DstMAC: dsts[i], Size: ipFrameSize})
	}
	return out, nil
}
