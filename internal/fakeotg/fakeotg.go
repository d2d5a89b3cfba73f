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

// Package fakeotg implements an in-memory traffic generator controller that
// can stand in for a real one behind the gosnappi.Api interface.
//
// Time only moves when metrics are read: every GetMetrics call advances the
// controller by one tick. A fixed packet flow sends its packets over Steps
// ticks and a continuous flow sends ContinuousFramesPerTick frames per tick,
// so tests polling metrics see counters ramp up and settle deterministically.
// Frames reach the rx ports of their flow, split evenly between the rx
// endpoints that are reachable. Withdrawn route ranges and ports whose link
// is down are unreachable.
//
// Only SetConfig, SetControlState, GetMetrics and GetCapture are
// implemented; other methods of gosnappi.Api panic.
package fakeotg

import (
	"fmt"
	"slices"
	"sync"

	"github.com/open-traffic-generator/snappi-tests/internal/capture"
	"github.com/open-traffic-generator/snappi/gosnappi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"k8s.io/klog/v2"
)

const (
	// DefaultSteps is the number of ticks a fixed packet flow takes to send
	// all of its packets.
	DefaultSteps = 4
	// ContinuousFramesPerTick is the number of frames a continuous flow sends
	// per tick. Rates are reported in frames per tick.
	ContinuousFramesPerTick = 1000
)

// Option configures a Controller.
type Option func(*Controller)

// WithSteps sets the number of ticks fixed packet flows take to complete.
func WithSteps(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.steps = n
		}
	}
}

// Controller is an in-memory traffic generator controller. It is safe for
// concurrent use.
type Controller struct {
	gosnappi.Api

	mu    sync.Mutex
	steps int
	cfg   gosnappi.Config
	topo  *topology
	flows []*flowState
	ticks int

	protocolsUp bool
	withdrawn   map[string]bool
	linkDown    map[string]bool
	capturing   map[string]bool

	// Knobs set by tests.
	loss       map[string]uint64
	hold       map[string]int
	captures   map[string][][]byte
	warnings   []string
	metricsErr error

	actions []string
}

// New returns a controller without configuration.
func New(opts ...Option) *Controller {
	c := &Controller{
		steps:     DefaultSteps,
		withdrawn: map[string]bool{},
		linkDown:  map[string]bool{},
		capturing: map[string]bool{},
		loss:      map[string]uint64{},
		hold:      map[string]int{},
		captures:  map[string][][]byte{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetLoss makes flow lose its first frames frames.
func (c *Controller) SetLoss(flow string, frames uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loss[flow] = frames
}

// Hold keeps the flows from transmitting for the first ticks ticks after
// they are started, as if paused by PFC.
func (c *Controller) Hold(ticks int, flows ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range flows {
		c.hold[f] = ticks
	}
}

// SetCapture sets the frames returned by GetCapture for port.
func (c *Controller) SetCapture(port string, frames [][]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.captures[port] = frames
}

// AddWarning queues a warning returned with the next SetConfig or
// SetControlState response.
func (c *Controller) AddWarning(w string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, w)
}

// FailMetrics makes GetMetrics return err until it is called with nil.
func (c *Controller) FailMetrics(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metricsErr = err
}

// Actions returns the configuration and control state requests received so
// far, in order.
func (c *Controller) Actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.actions)
}

// Ticks returns how many times the controller advanced.
func (c *Controller) Ticks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Config returns the last configuration set.
func (c *Controller) Config() gosnappi.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

func (c *Controller) record(format string, args ...any) {
	a := fmt.Sprintf(format, args...)
	klog.V(1).Infof("fakeotg: %s", a)
	c.actions = append(c.actions, a)
}

func (c *Controller) warning() gosnappi.Warning {
	w := gosnappi.NewWarning()
	if len(c.warnings) != 0 {
		w.SetWarnings(c.warnings)
		c.warnings = nil
	}
	return w
}

// SetConfig replaces the configuration and resets all state.
func (c *Controller) SetConfig(cfg gosnappi.Config) (gosnappi.Warning, error) {
	if cfg == nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request configuration received")
	}
	topo, err := newTopology(cfg)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	var flows []*flowState
	for _, f := range cfg.Flows().Items() {
		fs, err := newFlowState(f, topo, c.steps)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "%v", err)
		}
		flows = append(flows, fs)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	klog.Infof("fakeotg: got config with %d ports and %d flows", len(topo.ports), len(flows))
	c.cfg, c.topo, c.flows = cfg, topo, flows
	c.protocolsUp = false
	c.withdrawn = map[string]bool{}
	c.linkDown = map[string]bool{}
	c.capturing = map[string]bool{}
	c.record("set_config")
	return c.warning(), nil
}

func (c *Controller) flowsNamed(names []string) ([]*flowState, error) {
	if len(names) == 0 {
		return c.flows, nil
	}
	var out []*flowState
	for _, n := range names {
		i := slices.IndexFunc(c.flows, func(f *flowState) bool { return f.name == n })
		if i < 0 {
			return nil, status.Errorf(codes.InvalidArgument, "flow %q is not configured", n)
		}
		out = append(out, c.flows[i])
	}
	return out, nil
}

// SetControlState starts and stops traffic, capture and protocols, and
// changes link and route states.
func (c *Controller) SetControlState(cs gosnappi.ControlState) (gosnappi.Warning, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg == nil {
		return nil, status.Errorf(codes.FailedPrecondition, "no configuration set")
	}
	var err error
	switch cs.Choice() {
	case gosnappi.ControlStateChoice.TRAFFIC:
		err = c.setTransmit(cs.Traffic().FlowTransmit())
	case gosnappi.ControlStateChoice.PORT:
		err = c.setPortState(cs.Port())
	case gosnappi.ControlStateChoice.PROTOCOL:
		err = c.setProtocolState(cs.Protocol())
	default:
		err = status.Errorf(codes.Unimplemented, "control state %q is not supported", cs.Choice())
	}
	if err != nil {
		return nil, err
	}
	return c.warning(), nil
}

func (c *Controller) setTransmit(ft gosnappi.StateTrafficFlowTransmit) error {
	flows, err := c.flowsNamed(ft.FlowNames())
	if err != nil {
		return err
	}
	c.record("traffic %s", ft.State())
	for _, f := range flows {
		switch ft.State() {
		case gosnappi.StateTrafficFlowTransmitState.START:
			f.start(c.hold[f.name], c.loss[f.name])
		case gosnappi.StateTrafficFlowTransmitState.STOP, gosnappi.StateTrafficFlowTransmitState.PAUSE:
			f.stop()
		case gosnappi.StateTrafficFlowTransmitState.RESUME:
			f.started = !f.done()
		}
	}
	return nil
}

func (c *Controller) setPortState(ps gosnappi.StatePort) error {
	switch ps.Choice() {
	case gosnappi.StatePortChoice.CAPTURE:
		names := ps.Capture().PortNames()
		if len(names) == 0 {
			names = c.topo.capturePorts
		}
		start := ps.Capture().State() == gosnappi.StatePortCaptureState.START
		for _, p := range names {
			if !slices.Contains(c.topo.capturePorts, p) {
				return status.Errorf(codes.InvalidArgument, "capture is not enabled on port %q", p)
			}
			c.capturing[p] = start
		}
		c.record("capture %s %v", ps.Capture().State(), names)
	case gosnappi.StatePortChoice.LINK:
		names := ps.Link().PortNames()
		for _, p := range names {
			if !slices.Contains(c.topo.ports, p) {
				return status.Errorf(codes.InvalidArgument, "port %q is not configured", p)
			}
			c.linkDown[p] = ps.Link().State() == gosnappi.StatePortLinkState.DOWN
		}
		c.record("link %s %v", ps.Link().State(), names)
	default:
		return status.Errorf(codes.Unimplemented, "port state %q is not supported", ps.Choice())
	}
	return nil
}

func (c *Controller) setProtocolState(ps gosnappi.StateProtocol) error {
	switch ps.Choice() {
	case gosnappi.StateProtocolChoice.ALL:
		c.protocolsUp = ps.All().State() == gosnappi.StateProtocolAllState.START
		c.record("protocols %s", ps.All().State())
	case gosnappi.StateProtocolChoice.ROUTE:
		names := ps.Route().Names()
		if len(names) == 0 {
			for n := range c.topo.routes {
				names = append(names, n)
			}
			slices.Sort(names)
		}
		withdraw := ps.Route().State() == gosnappi.StateProtocolRouteState.WITHDRAW
		for _, n := range names {
			if _, ok := c.topo.routes[n]; !ok {
				return status.Errorf(codes.InvalidArgument, "route range %q is not configured", n)
			}
			c.withdrawn[n] = withdraw
		}
		c.record("routes %s %v", ps.Route().State(), names)
	default:
		return status.Errorf(codes.Unimplemented, "protocol state %q is not supported", ps.Choice())
	}
	return nil
}

// GetCapture returns the frames set by SetCapture for the port as a PCAP
// file.
func (c *Controller) GetCapture(req gosnappi.CaptureRequest) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.topo == nil || !slices.Contains(c.topo.capturePorts, req.PortName()) {
		return nil, status.Errorf(codes.FailedPrecondition, "capture is not enabled on port %q", req.PortName())
	}
	return capture.Write(c.captures[req.PortName()])
}
