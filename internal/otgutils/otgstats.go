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
	"github.com/open-traffic-generator/snappi/gosnappi"
)

// MetricSample is the snapshot of the counters of one port or one flow.
type MetricSample struct {
	Name         string
	FramesTx     uint64
	FramesRx     uint64
	BytesTx      uint64
	BytesRx      uint64
	FramesTxRate float32
	FramesRxRate float32
	// Transmit is the flow transmit state; empty for ports.
	Transmit string
}

// PortSamples converts port metrics returned by the controller.
func PortSamples(metrics gosnappi.MetricsResponsePortMetricIter) []MetricSample {
	if metrics == nil {
		return nil
	}
	var out []MetricSample
	for _, m := range metrics.Items() {
		if m == nil {
			continue
		}
		out = append(out, MetricSample{
			Name:         m.Name(),
			FramesTx:     uint64(m.FramesTx()),
			FramesRx:     uint64(m.FramesRx()),
			BytesTx:      uint64(m.BytesTx()),
			BytesRx:      uint64(m.BytesRx()),
			FramesTxRate: float32(m.FramesTxRate()),
			FramesRxRate: float32(m.FramesRxRate()),
		})
	}
	return out
}

// FlowSamples converts flow metrics returned by the controller.
func FlowSamples(metrics gosnappi.MetricsResponseFlowMetricIter) []MetricSample {
	if metrics == nil {
		return nil
	}
	var out []MetricSample
	for _, m := range metrics.Items() {
		if m == nil {
			continue
		}
		s := MetricSample{
			Name:         m.Name(),
			FramesTx:     uint64(m.FramesTx()),
			FramesRx:     uint64(m.FramesRx()),
			BytesTx:      uint64(m.BytesTx()),
			BytesRx:      uint64(m.BytesRx()),
			FramesTxRate: float32(m.FramesTxRate()),
			FramesRxRate: float32(m.FramesRxRate()),
		}
		if m.HasTransmit() {
			s.Transmit = string(m.Transmit())
		}
		out = append(out, s)
	}
	return out
}

// SampleByName returns the sample with the given name. The controller may
// not report a port or flow until traffic starts, so a missing sample is not
// an error.
func SampleByName(samples []MetricSample, name string) (MetricSample, bool) {
	for _, s := range samples {
		if s.Name == name {
			return s, true
		}
	}
	return MetricSample{}, false
}
