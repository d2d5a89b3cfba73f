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
	"fmt"
	"slices"

	"github.com/open-traffic-generator/snappi-tests/internal/otgconfig"
	"github.com/open-traffic-generator/snappi/gosnappi"
)

// topology maps every named object of a configuration to the port it sits
// behind.
type topology struct {
	ports        []string
	capturePorts []string
	portOf       map[string]string
	routes       map[string]*routeRange
	peers        []*bgpPeer
}

type routeRange struct {
	port  string
	count uint64
}

type bgpPeer struct {
	name   string
	port   string
	ranges []string
}

func newTopology(cfg gosnappi.Config) (*topology, error) {
	pb, err := cfg.Marshal().ToProto()
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	t := &topology{portOf: map[string]string{}, routes: map[string]*routeRange{}}
	for _, p := range pb.GetPorts() {
		t.ports = append(t.ports, p.GetName())
		t.portOf[p.GetName()] = p.GetName()
	}
	for _, c := range pb.GetCaptures() {
		for _, p := range c.GetPortNames() {
			if !slices.Contains(t.ports, p) {
				return nil, fmt.Errorf("capture %q: port %q is not configured", c.GetName(), p)
			}
			if !slices.Contains(t.capturePorts, p) {
				t.capturePorts = append(t.capturePorts, p)
			}
		}
	}

	tunnels := map[string]string{}
	for _, d := range pb.GetDevices() {
		for _, tun := range d.GetVxlan().GetV4Tunnels() {
			tunnels[tun.GetName()] = tun.GetSourceInterface()
		}
	}
	// Ethernets connected to a tunnel sit behind the port of the tunnel's
	// source interface, so port connections are resolved first.
	for _, viaTunnel := range []bool{false, true} {
		for _, d := range pb.GetDevices() {
			for _, eth := range d.GetEthernets() {
				conn := eth.GetConnection()
				var port string
				switch {
				case !viaTunnel && conn.GetPortName() != "":
					port = conn.GetPortName()
					if !slices.Contains(t.ports, port) {
						return nil, fmt.Errorf("ethernet %q: port %q is not configured", eth.GetName(), port)
					}
				case viaTunnel && conn.GetVxlanName() != "":
					port = t.portOf[tunnels[conn.GetVxlanName()]]
					if port == "" {
						return nil, fmt.Errorf("ethernet %q: tunnel %q is not configured", eth.GetName(), conn.GetVxlanName())
					}
				default:
					continue
				}
				t.portOf[d.GetName()] = port
				t.portOf[eth.GetName()] = port
				for _, ip := range eth.GetIpv4Addresses() {
					t.portOf[ip.GetName()] = port
				}
				for _, ip := range eth.GetIpv6Addresses() {
					t.portOf[ip.GetName()] = port
				}
			}
		}
	}

	for _, d := range pb.GetDevices() {
		for _, intf := range d.GetBgp().GetIpv4Interfaces() {
			port, ok := t.portOf[intf.GetIpv4Name()]
			if !ok {
				return nil, fmt.Errorf("bgp interface %q is not configured", intf.GetIpv4Name())
			}
			for _, p := range intf.GetPeers() {
				peer := &bgpPeer{name: p.GetName(), port: port}
				for _, rr := range p.GetV4Routes() {
					var count uint64
					for _, a := range rr.GetAddresses() {
						count += uint64(max(a.GetCount(), 1))
					}
					t.routes[rr.GetName()] = &routeRange{port: port, count: count}
					t.portOf[rr.GetName()] = port
					peer.ranges = append(peer.ranges, rr.GetName())
				}
				t.peers = append(t.peers, peer)
			}
		}
	}
	return t, nil
}

// flowState holds the counters of a flow since it was last started.
type flowState struct {
	name    string
	txPort  string
	rxNames []string
	fixed   bool
	packets uint64
	size    uint64
	perTick uint64

	started  bool
	holdLeft int
	lossLeft uint64

	tx, rx   uint64
	rxByPort map[string]uint64
	txRate   float32
	rxRates  map[string]float32
}

func newFlowState(f gosnappi.Flow, t *topology, steps int) (*flowState, error) {
	pb, err := f.Marshal().ToProto()
	if err != nil {
		return nil, fmt.Errorf("reading flow %q: %w", f.Name(), err)
	}
	fs := &flowState{
		name:     f.Name(),
		rxByPort: map[string]uint64{},
		rxRates:  map[string]float32{},
	}
	switch {
	case pb.GetTxRx().GetPort() != nil:
		p := pb.GetTxRx().GetPort()
		fs.txPort, fs.rxNames = p.GetTxName(), p.GetRxNames()
	case pb.GetTxRx().GetDevice() != nil:
		d := pb.GetTxRx().GetDevice()
		if len(d.GetTxNames()) == 0 {
			return nil, fmt.Errorf("flow %q has no tx endpoint", fs.name)
		}
		fs.txPort, fs.rxNames = t.portOf[d.GetTxNames()[0]], d.GetRxNames()
	}
	if !slices.Contains(t.ports, fs.txPort) {
		return nil, fmt.Errorf("flow %q: tx endpoint is not configured", fs.name)
	}
	for _, n := range fs.rxNames {
		if _, ok := t.portOf[n]; !ok {
			return nil, fmt.Errorf("flow %q: rx endpoint %q is not configured", fs.name, n)
		}
	}

	fs.size = 64
	if size, ok := otgconfig.FlowFrameSize(f); ok {
		fs.size = size
	}
	fs.perTick = ContinuousFramesPerTick
	if packets, ok := otgconfig.FlowPackets(f); ok {
		fs.fixed, fs.packets = true, packets
		fs.perTick = (packets + uint64(steps) - 1) / uint64(steps)
	}
	return fs, nil
}

func (f *flowState) start(hold int, loss uint64) {
	f.tx, f.rx = 0, 0
	clear(f.rxByPort)
	f.holdLeft, f.lossLeft = hold, loss
	f.started = !f.done()
}

func (f *flowState) stop() {
	f.started = false
	f.txRate = 0
	clear(f.rxRates)
}

func (f *flowState) done() bool {
	return f.fixed && f.tx >= f.packets
}

func (f *flowState) rxRate() float32 {
	var r float32
	for _, v := range f.rxRates {
		r += v
	}
	return r
}

func (f *flowState) transmit() string {
	if f.started {
		return "started"
	}
	return "stopped"
}
