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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func port(name string, tx, rx uint64) MetricSample {
	return MetricSample{Name: name, FramesTx: tx, FramesRx: rx, BytesTx: tx * 128, BytesRx: rx * 128}
}

func flow(name string, rx uint64) MetricSample {
	return MetricSample{Name: name, FramesRx: rx, BytesRx: rx * 128}
}

func TestTotalFramesOk(t *testing.T) {
	tests := []struct {
		desc     string
		ports    []MetricSample
		flows    []MetricSample
		expected uint64
		want     bool
	}{{
		desc:     "all totals match",
		ports:    []MetricSample{port("tx", 1000, 0), port("rx", 0, 1000)},
		flows:    []MetricSample{flow("f1", 1000)},
		expected: 1000,
		want:     true,
	}, {
		desc:     "one frame lost on the port",
		ports:    []MetricSample{port("tx", 1000, 0), port("rx", 0, 999)},
		flows:    []MetricSample{flow("f1", 1000)},
		expected: 1000,
	}, {
		desc:     "one frame lost on the flow",
		ports:    []MetricSample{port("tx", 1000, 0), port("rx", 0, 1000)},
		flows:    []MetricSample{flow("f1", 999)},
		expected: 1000,
	}, {
		desc:     "extra frame sent",
		ports:    []MetricSample{port("tx", 1001, 0), port("rx", 0, 1000)},
		flows:    []MetricSample{flow("f1", 1000)},
		expected: 1000,
	}, {
		desc:     "totals agree but differ from expected",
		ports:    []MetricSample{port("tx", 500, 0), port("rx", 0, 500)},
		flows:    []MetricSample{flow("f1", 500)},
		expected: 1000,
	}, {
		desc:     "bidirectional flows",
		ports:    []MetricSample{port("tx", 1000, 1000), port("rx", 1000, 1000)},
		flows:    []MetricSample{flow("f1", 1000), flow("f2", 1000)},
		expected: 2000,
		want:     true,
	}, {
		desc: "empty inputs with zero expected",
		want: true,
	}, {
		desc:     "empty inputs with non-zero expected",
		expected: 1,
	}}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			before := append([]MetricSample(nil), tc.ports...)
			if got := TotalFramesOk(tc.ports, tc.flows, tc.expected); got != tc.want {
				t.Errorf("TotalFramesOk() got %t, want %t", got, tc.want)
			}
			if diff := cmp.Diff(before, tc.ports); diff != "" {
				t.Errorf("TotalFramesOk() mutated its input (-before +after):\n%s", diff)
			}
		})
	}
}

func TestTotalBytesOk(t *testing.T) {
	ports := []MetricSample{port("tx", 1000, 0), port("rx", 0, 1000)}
	flows := []MetricSample{flow("f1", 1000)}
	if !TotalBytesOk(ports, flows, 128000) {
		t.Errorf("TotalBytesOk(%v, %v, 128000) got false, want true", ports, flows)
	}
	flows[0].BytesRx--
	if TotalBytesOk(ports, flows, 128000) {
		t.Errorf("TotalBytesOk(%v, %v, 128000) got true, want false", ports, flows)
	}
}

func TestSumFrames(t *testing.T) {
	ports := []MetricSample{port("p1", 10, 1), port("p2", 20, 2)}
	flows := []MetricSample{flow("f1", 5), flow("f2", 6)}
	want := Totals{PortTx: 30, PortRx: 3, FlowRx: 11}
	if diff := cmp.Diff(want, SumFrames(ports, flows)); diff != "" {
		t.Errorf("SumFrames() returned diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Totals{}, SumBytes(nil, nil)); diff != "" {
		t.Errorf("SumBytes(nil, nil) returned diff (-want +got):\n%s", diff)
	}
}

func TestRelations(t *testing.T) {
	tests := []struct {
		desc      string
		rel       Relation
		got, want uint64
		ok        bool
	}{
		{desc: "equal", rel: Equal, got: 5, want: 5, ok: true},
		{desc: "not equal", rel: Equal, got: 4, want: 5},
		{desc: "at least above", rel: AtLeast, got: 6, want: 5, ok: true},
		{desc: "at least below", rel: AtLeast, got: 4, want: 5},
		{desc: "half", rel: Fraction(1, 2), got: 500, want: 1000, ok: true},
		{desc: "not half", rel: Fraction(1, 2), got: 501, want: 1000},
		{desc: "within tolerance", rel: Within(1), got: 995, want: 1000, ok: true},
		{desc: "outside tolerance", rel: Within(1), got: 980, want: 1000},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			if got := tc.rel(tc.got, tc.want); got != tc.ok {
				t.Errorf("relation(%d, %d) got %t, want %t", tc.got, tc.want, got, tc.ok)
			}
		})
	}
}

func TestFramesMatchRelation(t *testing.T) {
	ports := []MetricSample{port("tx", 1000, 0), port("rx", 0, 995)}
	flows := []MetricSample{flow("f1", 995)}
	if FramesMatch(ports, flows, 1000, Equal) {
		t.Error("FramesMatch(Equal) got true with lost frames, want false")
	}
	if !FramesMatch(ports, flows, 1000, Within(1)) {
		t.Error("FramesMatch(Within(1)) got false with 0.5% loss, want true")
	}
}

func TestExpectedState(t *testing.T) {
	e := NewExpectedState()
	e.Flow["f1"] = ExpectedFlowMetrics{FramesTx: 100, FramesRx: 100}
	e.Port["p1"] = ExpectedPortMetrics{FramesTx: 100}

	if !FlowMetricsOk([]MetricSample{{Name: "f1", FramesTx: 100, FramesRx: 100}, {Name: "other"}}, e) {
		t.Error("FlowMetricsOk() got false for matching flow, want true")
	}
	if FlowMetricsOk([]MetricSample{{Name: "f1", FramesTx: 100, FramesRx: 99}}, e) {
		t.Error("FlowMetricsOk() got true for lossy flow, want false")
	}
	if FlowMetricsOk(nil, e) {
		t.Error("FlowMetricsOk() got true for missing flow, want false")
	}
	if !PortMetricsOk([]MetricSample{{Name: "p1", FramesTx: 100}}, e) {
		t.Error("PortMetricsOk() got false for matching port, want true")
	}
}

func TestFlowTransmitMatches(t *testing.T) {
	flows := []MetricSample{{Name: "f1", Transmit: "stopped"}, {Name: "f2", Transmit: "stopped"}}
	if !FlowTransmitMatches(flows, "stopped") {
		t.Error("FlowTransmitMatches(stopped) got false, want true")
	}
	flows[1].Transmit = "started"
	if FlowTransmitMatches(flows, "stopped") {
		t.Error("FlowTransmitMatches(stopped) got true with a started flow, want false")
	}
	if FlowTransmitMatches(nil, "stopped") {
		t.Error("FlowTransmitMatches(nil) got true, want false")
	}
}

func TestRatesConverged(t *testing.T) {
	tests := []struct {
		desc   string
		tx, rx float32
		want   bool
	}{
		{desc: "equal", tx: 1000, rx: 1000, want: true},
		{desc: "within", tx: 1000, rx: 990, want: true},
		{desc: "half", tx: 1000, rx: 500},
		{desc: "not started", tx: 0, rx: 0},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			if got := RatesConverged(tc.tx, tc.rx, 1); got != tc.want {
				t.Errorf("RatesConverged(%v, %v) got %t, want %t", tc.tx, tc.rx, got, tc.want)
			}
		})
	}
}
