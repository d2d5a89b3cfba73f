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
	"encoding/json"
	"slices"

	"github.com/open-traffic-generator/snappi/gosnappi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"k8s.io/klog/v2"
)

// The response is built as JSON and parsed by gosnappi, which takes care of
// the choice and enum fields.
type metricsJSON struct {
	Choice       string           `json:"choice"`
	PortMetrics  []portMetricJSON `json:"port_metrics,omitempty"`
	FlowMetrics  []flowMetricJSON `json:"flow_metrics,omitempty"`
	Bgpv4Metrics []bgpMetricJSON  `json:"bgpv4_metrics,omitempty"`
}

type portMetricJSON struct {
	Name         string  `json:"name"`
	Link         string  `json:"link"`
	Capture      string  `json:"capture"`
	Transmit     string  `json:"transmit"`
	FramesTx     uint64  `json:"frames_tx"`
	FramesRx     uint64  `json:"frames_rx"`
	BytesTx      uint64  `json:"bytes_tx"`
	BytesRx      uint64  `json:"bytes_rx"`
	FramesTxRate float32 `json:"frames_tx_rate"`
	FramesRxRate float32 `json:"frames_rx_rate"`
}

type flowMetricJSON struct {
	Name         string  `json:"name"`
	Transmit     string  `json:"transmit"`
	FramesTx     uint64  `json:"frames_tx"`
	FramesRx     uint64  `json:"frames_rx"`
	BytesTx      uint64  `json:"bytes_tx"`
	BytesRx      uint64  `json:"bytes_rx"`
	FramesTxRate float32 `json:"frames_tx_rate"`
	FramesRxRate float32 `json:"frames_rx_rate"`
}

type bgpMetricJSON struct {
	Name             string `json:"name"`
	SessionState     string `json:"session_state"`
	RoutesAdvertised uint64 `json:"routes_advertised"`
}

// GetMetrics advances the controller by one tick and returns the requested
// metrics. Empty name lists select every port, flow or peer.
func (c *Controller) GetMetrics(req gosnappi.MetricsRequest) (gosnappi.MetricsResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metricsErr != nil {
		return nil, c.metricsErr
	}
	if c.cfg == nil {
		return nil, status.Errorf(codes.FailedPrecondition, "no configuration set")
	}
	c.advance()

	var (
		m   metricsJSON
		err error
	)
	switch req.Choice() {
	case gosnappi.MetricsRequestChoice.PORT:
		m.Choice = "port_metrics"
		m.PortMetrics, err = c.portMetrics(req.Port().PortNames())
	case gosnappi.MetricsRequestChoice.FLOW:
		m.Choice = "flow_metrics"
		m.FlowMetrics, err = c.flowMetrics(req.Flow().FlowNames())
	case gosnappi.MetricsRequestChoice.BGPV4:
		m.Choice = "bgpv4_metrics"
		m.Bgpv4Metrics, err = c.bgpMetrics(req.Bgpv4().PeerNames())
	default:
		err = status.Errorf(codes.Unimplemented, "metrics %q are not supported", req.Choice())
	}
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding metrics: %v", err)
	}
	res := gosnappi.NewMetricsResponse()
	if err := res.Unmarshal().FromJson(string(b)); err != nil {
		return nil, status.Errorf(codes.Internal, "decoding metrics: %v", err)
	}
	return res, nil
}

func (c *Controller) advance() {
	c.ticks++
	for _, f := range c.flows {
		f.txRate = 0
		clear(f.rxRates)
		if !f.started {
			continue
		}
		if f.holdLeft > 0 {
			f.holdLeft--
			continue
		}
		if c.linkDown[f.txPort] {
			continue
		}
		n := f.perTick
		if f.fixed {
			n = min(n, f.packets-f.tx)
		}
		f.tx += n
		f.txRate = float32(n)
		drop := min(f.lossLeft, n)
		f.lossLeft -= drop
		c.deliver(f, n-drop)
		if f.done() {
			f.started = false
		}
	}
	klog.V(2).Infof("fakeotg: tick %d", c.ticks)
}

// deliver splits n frames evenly between the reachable rx ports of f. The
// first port gets the remainder.
func (c *Controller) deliver(f *flowState, n uint64) {
	var ports []string
	for _, name := range f.rxNames {
		if c.withdrawn[name] {
			continue
		}
		p := c.topo.portOf[name]
		if c.linkDown[p] || slices.Contains(ports, p) {
			continue
		}
		ports = append(ports, p)
	}
	if len(ports) == 0 {
		return
	}
	share, rem := n/uint64(len(ports)), n%uint64(len(ports))
	for i, p := range ports {
		k := share
		if i == 0 {
			k += rem
		}
		f.rxByPort[p] += k
		f.rxRates[p] += float32(k)
		f.rx += k
	}
}

func selected(all, names []string, kind string) ([]string, error) {
	if len(names) == 0 {
		return all, nil
	}
	for _, n := range names {
		if !slices.Contains(all, n) {
			return nil, status.Errorf(codes.InvalidArgument, "%s %q is not configured", kind, n)
		}
	}
	return names, nil
}

func (c *Controller) portMetrics(names []string) ([]portMetricJSON, error) {
	names, err := selected(c.topo.ports, names, "port")
	if err != nil {
		return nil, err
	}
	var out []portMetricJSON
	for _, p := range names {
		m := portMetricJSON{Name: p, Link: "up", Capture: "stopped", Transmit: "stopped"}
		if c.linkDown[p] {
			m.Link = "down"
		}
		if c.capturing[p] {
			m.Capture = "started"
		}
		for _, f := range c.flows {
			if f.txPort == p {
				m.FramesTx += f.tx
				m.BytesTx += f.tx * f.size
				m.FramesTxRate += f.txRate
				if f.started {
					m.Transmit = "started"
				}
			}
			m.FramesRx += f.rxByPort[p]
			m.BytesRx += f.rxByPort[p] * f.size
			m.FramesRxRate += f.rxRates[p]
		}
		out = append(out, m)
	}
	return out, nil
}

func (c *Controller) flowMetrics(names []string) ([]flowMetricJSON, error) {
	var all []string
	for _, f := range c.flows {
		all = append(all, f.name)
	}
	names, err := selected(all, names, "flow")
	if err != nil {
		return nil, err
	}
	var out []flowMetricJSON
	for _, n := range names {
		f := c.flows[slices.Index(all, n)]
		out = append(out, flowMetricJSON{
			Name:         f.name,
			Transmit:     f.transmit(),
			FramesTx:     f.tx,
			FramesRx:     f.rx,
			BytesTx:      f.tx * f.size,
			BytesRx:      f.rx * f.size,
			FramesTxRate: f.txRate,
			FramesRxRate: f.rxRate(),
		})
	}
	return out, nil
}

func (c *Controller) bgpMetrics(names []string) ([]bgpMetricJSON, error) {
	var all []string
	for _, p := range c.topo.peers {
		all = append(all, p.name)
	}
	names, err := selected(all, names, "peer")
	if err != nil {
		return nil, err
	}
	var out []bgpMetricJSON
	for _, n := range names {
		p := c.topo.peers[slices.Index(all, n)]
		m := bgpMetricJSON{Name: p.name, SessionState: "down"}
		if c.protocolsUp && !c.linkDown[p.port] {
			m.SessionState = "up"
			for _, rr := range p.ranges {
				if !c.withdrawn[rr] {
					m.RoutesAdvertised += c.topo.routes[rr].count
				}
			}
		}
		out = append(out, m)
	}
	return out, nil
}
