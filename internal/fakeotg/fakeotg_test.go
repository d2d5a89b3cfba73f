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

package fakeotg

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/open-traffic-generator/snappi-tests/internal/capture"
	"github.com/open-traffic-generator/snappi-tests/internal/otgconfig"
	"github.com/open-traffic-generator/snappi-tests/internal/otgutils"
	"github.com/open-traffic-generator/snappi-tests/internal/settings"
	"github.com/open-traffic-generator/snappi/gosnappi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func testSettings(ports ...string) *settings.Settings {
	return &settings.Settings{Location: "fake", Transport: settings.TransportGRPC, Ports: ports, Speed: "speed_1_gbps"}
}

func mustConfig(t *testing.T, c *Controller, cfg gosnappi.Config, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("building config: %v", err)
	}
	if _, err := c.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig() unexpected error: %v", err)
	}
}

func mustControl(t *testing.T, c *Controller, cs gosnappi.ControlState) {
	t.Helper()
	if _, err := c.SetControlState(cs); err != nil {
		t.Fatalf("SetControlState() unexpected error: %v", err)
	}
}

func startTraffic(t *testing.T, c *Controller) {
	t.Helper()
	cs := gosnappi.NewControlState()
	cs.Traffic().FlowTransmit().SetState(gosnappi.StateTrafficFlowTransmitState.START)
	mustControl(t, c, cs)
}

func ports(t *testing.T, c *Controller, names ...string) []otgutils.MetricSample {
	t.Helper()
	req := gosnappi.NewMetricsRequest()
	req.Port().SetPortNames(names)
	res, err := c.GetMetrics(req)
	if err != nil {
		t.Fatalf("GetMetrics(port) unexpected error: %v", err)
	}
	return otgutils.PortSamples(res.PortMetrics())
}

func flows(t *testing.T, c *Controller, names ...string) []otgutils.MetricSample {
	t.Helper()
	req := gosnappi.NewMetricsRequest()
	req.Flow().SetFlowNames(names)
	res, err := c.GetMetrics(req)
	if err != nil {
		t.Fatalf("GetMetrics(flow) unexpected error: %v", err)
	}
	return otgutils.FlowSamples(res.FlowMetrics())
}

func TestFixedPacketFlow(t *testing.T) {
	c := New()
	cfg, err := otgconfig.BasicFlowStats(testSettings("p1", "p2"))
	mustConfig(t, c, cfg, err)
	startTraffic(t, c)

	// 10000 packets over 4 ticks.
	wantTx := []uint64{2500, 5000, 7500, 10000, 10000}
	for i, want := range wantTx {
		got := flows(t, c, "flw")
		if len(got) != 1 {
			t.Fatalf("tick %d: got %d flow samples, want 1", i+1, len(got))
		}
		if got[0].FramesTx != want || got[0].FramesRx != want {
			t.Errorf("tick %d: got tx %d rx %d, want %d", i+1, got[0].FramesTx, got[0].FramesRx, want)
		}
	}

	got := ports(t, c)
	want := []otgutils.MetricSample{
		{Name: "tx", FramesTx: 10000, BytesTx: 1280000},
		{Name: "rx", FramesRx: 10000, BytesRx: 1280000},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("port metrics diff (-want +got):\n%s", diff)
	}
	if !otgutils.FlowTransmitMatches(flows(t, c), "stopped") {
		t.Error("flow still transmitting after sending all packets")
	}
	if !otgutils.TotalFramesOk(ports(t, c), flows(t, c), 10000) {
		t.Error("TotalFramesOk() = false after all frames were delivered")
	}
}

func TestLoss(t *testing.T) {
	c := New(WithSteps(1))
	c.SetLoss("tx_flow", 1)
	cfg, err := otgconfig.TCPUnidir(testSettings("p1", "p2"), 128, 1000)
	mustConfig(t, c, cfg, err)
	startTraffic(t, c)

	got := flows(t, c)
	if got[0].FramesTx != 1000 || got[0].FramesRx != 999 {
		t.Errorf("got tx %d rx %d, want tx 1000 rx 999", got[0].FramesTx, got[0].FramesRx)
	}
	if otgutils.TotalFramesOk(ports(t, c), flows(t, c), 1000) {
		t.Error("TotalFramesOk() = true with a lost frame")
	}
}

func TestHold(t *testing.T) {
	c := New(WithSteps(1))
	c.Hold(2, otgconfig.PFCFlowName(3))
	cfg, err := otgconfig.PFCPause(testSettings("p1", "p2"), []uint32{3}, 100)
	mustConfig(t, c, cfg, err)
	startTraffic(t, c)

	held := func() otgutils.MetricSample {
		s, ok := otgutils.SampleByName(flows(t, c), otgconfig.PFCFlowName(3))
		if !ok {
			t.Fatalf("no metrics for flow %q", otgconfig.PFCFlowName(3))
		}
		return s
	}
	for i := range 2 {
		if s := held(); s.FramesTx != 0 {
			t.Errorf("tick %d: held flow sent %d frames, want 0", i+1, s.FramesTx)
		}
	}
	if s := held(); s.FramesTx != 100 || s.FramesRx != 100 {
		t.Errorf("released flow got tx %d rx %d, want 100", s.FramesTx, s.FramesRx)
	}
}

func TestRouteWithdraw(t *testing.T) {
	c := New()
	cfg, err := otgconfig.BGPConvergence(testSettings("p1", "p2", "p3"))
	mustConfig(t, c, cfg, err)

	bgp := func() gosnappi.MetricsResponseBgpv4MetricIter {
		req := gosnappi.NewMetricsRequest()
		req.Bgpv4()
		res, err := c.GetMetrics(req)
		if err != nil {
			t.Fatalf("GetMetrics(bgpv4) unexpected error: %v", err)
		}
		return res.Bgpv4Metrics()
	}
	if otgutils.AllBgp4SessionUp(bgp()) {
		t.Error("BGP sessions up before protocols were started")
	}
	cs := gosnappi.NewControlState()
	cs.Protocol().All().SetState(gosnappi.StateProtocolAllState.START)
	mustControl(t, c, cs)
	if !otgutils.AllBgp4SessionUp(bgp()) {
		t.Error("BGP sessions down after protocols were started")
	}
	if got := otgutils.Bgp4RoutesAdvertised(bgp()); got != 2000 {
		t.Errorf("routes advertised got %d, want 2000", got)
	}

	startTraffic(t, c)
	rates := func() map[string]float32 {
		m := map[string]float32{}
		for _, s := range ports(t, c) {
			m[s.Name+"_tx"], m[s.Name+"_rx"] = s.FramesTxRate, s.FramesRxRate
		}
		return m
	}
	got := rates()
	if got["tx_tx"] != ContinuousFramesPerTick || got["rx1_rx"] != got["tx_tx"]/2 || got["rx2_rx"] != got["tx_tx"]/2 {
		t.Errorf("rates before withdraw got %v, want traffic split between rx1 and rx2", got)
	}

	cs = gosnappi.NewControlState()
	cs.Protocol().Route().SetNames([]string{otgconfig.PrimaryRoutes}).SetState(gosnappi.StateProtocolRouteState.WITHDRAW)
	mustControl(t, c, cs)
	got = rates()
	if got["rx1_rx"] != 0 || got["rx2_rx"] != got["tx_tx"] {
		t.Errorf("rates after withdraw got %v, want all traffic on rx2", got)
	}
	if got := otgutils.Bgp4RoutesAdvertised(bgp()); got != 1000 {
		t.Errorf("routes advertised after withdraw got %d, want 1000", got)
	}
}

func TestLinkDown(t *testing.T) {
	c := New(WithSteps(1))
	cfg, err := otgconfig.TCPUnidir(testSettings("p1", "p2"), 128, 1000)
	mustConfig(t, c, cfg, err)
	cs := gosnappi.NewControlState()
	cs.Port().Link().SetPortNames([]string{"rx"}).SetState(gosnappi.StatePortLinkState.DOWN)
	mustControl(t, c, cs)
	startTraffic(t, c)

	got := flows(t, c)
	if got[0].FramesTx != 1000 || got[0].FramesRx != 0 {
		t.Errorf("got tx %d rx %d, want tx 1000 rx 0", got[0].FramesTx, got[0].FramesRx)
	}
}

func TestCapture(t *testing.T) {
	c := New()
	cfg, err := otgconfig.B2BRaw(testSettings("p1", "p2"))
	mustConfig(t, c, cfg, err)

	frame, err := capture.BuildFrame(capture.Expected{SrcMAC: "00:00:00:00:00:01", DstMAC: "00:00:00:00:00:02", SrcIP: "1.1.1.1", DstIP: "1.1.1.2", Size: 64})
	if err != nil {
		t.Fatalf("BuildFrame() unexpected error: %v", err)
	}
	c.SetCapture("rx", [][]byte{frame, frame})

	cs := gosnappi.NewControlState()
	cs.Port().Capture().SetState(gosnappi.StatePortCaptureState.START)
	mustControl(t, c, cs)

	b, err := c.GetCapture(gosnappi.NewCaptureRequest().SetPortName("rx"))
	if err != nil {
		t.Fatalf("GetCapture(rx) unexpected error: %v", err)
	}
	frames, err := capture.Frames(b)
	if err != nil {
		t.Fatalf("Frames() unexpected error: %v", err)
	}
	if len(frames) != 2 {
		t.Errorf("GetCapture(rx) got %d frames, want 2", len(frames))
	}
	if _, err := c.GetCapture(gosnappi.NewCaptureRequest().SetPortName("tx")); status.Code(err) != codes.FailedPrecondition {
		t.Errorf("GetCapture(tx) got error %v, want FailedPrecondition", err)
	}
}

func TestErrors(t *testing.T) {
	c := New()
	if _, err := c.SetControlState(gosnappi.NewControlState()); status.Code(err) != codes.FailedPrecondition {
		t.Errorf("SetControlState() before SetConfig got %v, want FailedPrecondition", err)
	}
	if _, err := c.GetMetrics(gosnappi.NewMetricsRequest()); status.Code(err) != codes.FailedPrecondition {
		t.Errorf("GetMetrics() before SetConfig got %v, want FailedPrecondition", err)
	}

	cfg, err := otgconfig.B2BRaw(testSettings("p1", "p2"))
	mustConfig(t, c, cfg, err)
	req := gosnappi.NewMetricsRequest()
	req.Flow().SetFlowNames([]string{"nope"})
	if _, err := c.GetMetrics(req); status.Code(err) != codes.InvalidArgument {
		t.Errorf("GetMetrics() for an unknown flow got %v, want InvalidArgument", err)
	}

	broken := gosnappi.NewConfig()
	broken.Ports().Add().SetName("tx").SetLocation("p1")
	broken.Flows().Add().SetName("f").TxRx().Port().SetTxName("nope").SetRxNames([]string{"tx"})
	if _, err := c.SetConfig(broken); status.Code(err) != codes.InvalidArgument {
		t.Errorf("SetConfig() with an unknown tx port got %v, want InvalidArgument", err)
	}

	fail := errors.New("controller unreachable")
	c.FailMetrics(fail)
	if _, err := c.GetMetrics(gosnappi.NewMetricsRequest()); !errors.Is(err, fail) {
		t.Errorf("GetMetrics() got %v, want %v", err, fail)
	}
}

func TestWarningsAndActions(t *testing.T) {
	c := New()
	c.AddWarning("port speed ignored")
	cfg, err := otgconfig.B2BRaw(testSettings("p1", "p2"))
	if err != nil {
		t.Fatal(err)
	}
	w, err := c.SetConfig(cfg)
	if err != nil {
		t.Fatalf("SetConfig() unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"port speed ignored"}, w.Warnings()); diff != "" {
		t.Errorf("SetConfig() warnings diff (-want +got):\n%s", diff)
	}
	startTraffic(t, c)
	cs := gosnappi.NewControlState()
	cs.Traffic().FlowTransmit().SetState(gosnappi.StateTrafficFlowTransmitState.STOP)
	w, err = c.SetControlState(cs)
	if err != nil {
		t.Fatalf("SetControlState() unexpected error: %v", err)
	}
	if len(w.Warnings()) != 0 {
		t.Errorf("warnings returned twice: %v", w.Warnings())
	}
	want := []string{"set_config", "traffic start", "traffic stop"}
	if diff := cmp.Diff(want, c.Actions()); diff != "" {
		t.Errorf("Actions() diff (-want +got):\n%s", diff)
	}
}
