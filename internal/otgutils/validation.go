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

package otgutils

import (
	"math"

	"github.com/open-traffic-generator/snappi/gosnappi"
)

// Totals holds the three aggregates compared against the expected count.
type Totals struct {
	PortTx uint64
	PortRx uint64
	FlowRx uint64
}

// SumFrames sums frames sent by ports, frames received by ports and frames
// received by flows. Empty inputs sum to 0.
func SumFrames(ports, flows []MetricSample) Totals {
	var t Totals
	for i := range ports {
		t.PortTx += ports[i].FramesTx
		t.PortRx += ports[i].FramesRx
	}
	for i := range flows {
		t.FlowRx += flows[i].FramesRx
	}
	return t
}

// SumBytes is SumFrames over byte counters.
func SumBytes(ports, flows []MetricSample) Totals {
	var t Totals
	for i := range ports {
		t.PortTx += ports[i].BytesTx
		t.PortRx += ports[i].BytesRx
	}
	for i := range flows {
		t.FlowRx += flows[i].BytesRx
	}
	return t
}

// Relation compares an observed aggregate against a reference value.
type Relation func(got, want uint64) bool

// Equal holds when got is exactly want.
func Equal(got, want uint64) bool { return got == want }

// AtLeast holds when got is not below want.
func AtLeast(got, want uint64) bool { return got >= want }

// Fraction holds when got is exactly num/den of want.
func Fraction(num, den uint64) Relation {
	return func(got, want uint64) bool {
		return got*den == want*num
	}
}

// Within holds when got deviates from want by at most pct percent.
func Within(pct float64) Relation {
	return func(got, want uint64) bool {
		diff := math.Abs(float64(got) - float64(want))
		return diff <= float64(want)*pct/100
	}
}

// Match checks that the ports sent expected, and that what ports and flows
// received relates to what was sent.
func (t Totals) Match(expected uint64, rel Relation) bool {
	return rel(t.PortTx, expected) && rel(t.PortRx, t.PortTx) && rel(t.FlowRx, t.PortTx)
}

// FramesMatch compares frame aggregates using rel.
func FramesMatch(ports, flows []MetricSample, expected uint64, rel Relation) bool {
	return SumFrames(ports, flows).Match(expected, rel)
}

// BytesMatch compares byte aggregates using rel.
func BytesMatch(ports, flows []MetricSample, expected uint64, rel Relation) bool {
	return SumBytes(ports, flows).Match(expected, rel)
}

// TotalFramesOk reports whether frames sent by all ports, frames received by
// all ports and frames received by all flows each equal expected.
func TotalFramesOk(ports, flows []MetricSample, expected uint64) bool {
	return FramesMatch(ports, flows, expected, Equal)
}

// TotalBytesOk is TotalFramesOk over byte counters.
func TotalBytesOk(ports, flows []MetricSample, expected uint64) bool {
	return BytesMatch(ports, flows, expected, Equal)
}

// ExpectedFlowMetrics holds the counters a flow must reach.
type ExpectedFlowMetrics struct {
	FramesTx uint64
	FramesRx uint64
}

// ExpectedPortMetrics holds the counters a port must reach.
type ExpectedPortMetrics struct {
	FramesTx uint64
	FramesRx uint64
}

// ExpectedState maps port and flow names to their expected counters.
type ExpectedState struct {
	Port map[string]ExpectedPortMetrics
	Flow map[string]ExpectedFlowMetrics
}

// NewExpectedState returns an empty ExpectedState.
func NewExpectedState() ExpectedState {
	return ExpectedState{
		Port: map[string]ExpectedPortMetrics{},
		Flow: map[string]ExpectedFlowMetrics{},
	}
}

// FlowMetricsOk reports whether every expected flow is present with the
// expected counters.
func FlowMetricsOk(flows []MetricSample, e ExpectedState) bool {
	seen := 0
	for _, f := range flows {
		want, ok := e.Flow[f.Name]
		if !ok {
			continue
		}
		if f.FramesTx != want.FramesTx || f.FramesRx != want.FramesRx {
			return false
		}
		seen++
	}
	return seen == len(e.Flow)
}

// PortMetricsOk reports whether every expected port is present with the
// expected counters.
func PortMetricsOk(ports []MetricSample, e ExpectedState) bool {
	seen := 0
	for _, p := range ports {
		want, ok := e.Port[p.Name]
		if !ok {
			continue
		}
		if p.FramesTx != want.FramesTx || p.FramesRx != want.FramesRx {
			return false
		}
		seen++
	}
	return seen == len(e.Port)
}

// FlowTransmitMatches reports whether there are flows and every one of them
// is in the given transmit state, for example "started" or "stopped".
func FlowTransmitMatches(flows []MetricSample, state string) bool {
	if len(flows) == 0 {
		return false
	}
	for _, f := range flows {
		if f.Transmit != state {
			return false
		}
	}
	return true
}

// RatesConverged reports whether rx is within tolerance percent of tx.
// Both rates are expected to be non-zero.
func RatesConverged(tx, rx float32, tolerance float64) bool {
	if tx == 0 || rx == 0 {
		return false
	}
	return math.Abs(float64(tx)-float64(rx)) <= float64(tx)*tolerance/100
}

// AllBgp4SessionUp reports whether every BGPv4 peer reports an established
// session.
func AllBgp4SessionUp(metrics gosnappi.MetricsResponseBgpv4MetricIter) bool {
	if metrics == nil || len(metrics.Items()) == 0 {
		return false
	}
	for _, m := range metrics.Items() {
		if m.SessionState() != gosnappi.Bgpv4MetricSessionState.UP {
			return false
		}
	}
	return true
}

// Bgp4RoutesAdvertised sums routes advertised by all BGPv4 peers.
func Bgp4RoutesAdvertised(metrics gosnappi.MetricsResponseBgpv4MetricIter) uint64 {
	if metrics == nil {
		return 0
	}
	var total uint64
	for _, m := range metrics.Items() {
		total += uint64(m.RoutesAdvertised())
	}
	return total
}
