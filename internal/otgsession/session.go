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

// Package otgsession drives a traffic generator controller: it pushes
// configurations, starts and stops traffic, capture and protocols, reads
// metrics and captures, and waits for metrics to converge.
package otgsession

import (
	"context"
	"fmt"
	"time"

	log "github.com/golang/glog"
	"github.com/open-traffic-generator/snappi-tests/internal/capture"
	"github.com/open-traffic-generator/snappi-tests/internal/otgconfig"
	"github.com/open-traffic-generator/snappi-tests/internal/otgutils"
	"github.com/open-traffic-generator/snappi-tests/internal/settings"
	"github.com/open-traffic-generator/snappi/gosnappi"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	// To be stubbed out by unit tests.
	grpcNewClientFn  = grpc.NewClient
	gosnappiNewAPIFn = gosnappi.NewApi
)

// Recorder observes the metrics read and the waits run by a Session.
type Recorder interface {
	RecordSamples(ports, flows []otgutils.MetricSample)
	RecordWait(condition string, err error)
}

// Session is a connection to a controller together with the settings of
// the run.
type Session struct {
	api      gosnappi.Api
	settings *settings.Settings
	conn     *grpc.ClientConn
	recorder Recorder
}

// New returns a session driving api.
func New(api gosnappi.Api, s *settings.Settings) *Session {
	return &Session{api: api, settings: s}
}

// Dial connects to the controller at s.Location over s.Transport.
func Dial(ctx context.Context, s *settings.Settings) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	api := gosnappiNewAPIFn()
	switch s.Transport {
	case settings.TransportGRPC:
		conn, err := grpcNewClientFn(s.Location, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("dialing controller %s: %w", s.Location, err)
		}
		transport := api.NewGrpcTransport().SetClientConnection(conn)
		if timeout := s.Timeout(); timeout != 0 {
			transport.SetRequestTimeout(timeout)
		}
		log.Infof("Connected to controller at %s over gRPC", s.Location)
		return &Session{api: api, settings: s, conn: conn}, nil
	case settings.TransportHTTP:
		api.NewHttpTransport().SetLocation(s.Location).SetVerify(false)
		log.Infof("Using controller at %s over HTTP", s.Location)
		return &Session{api: api, settings: s}, nil
	}
	return nil, fmt.Errorf("unsupported transport %q", s.Transport)
}

// SetRecorder makes r observe the metrics and waits of the session.
func (s *Session) SetRecorder(r Recorder) {
	s.recorder = r
}

// API returns the controller API of the session.
func (s *Session) API() gosnappi.Api {
	return s.api
}

// Settings returns the settings of the session.
func (s *Session) Settings() *settings.Settings {
	return s.settings
}

// Close releases the connection to the controller.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func checkWarnings(w gosnappi.Warning) {
	if w == nil {
		return
	}
	for _, msg := range w.Warnings() {
		log.Warningf("Controller warning: %s", msg)
	}
}

// SetConfig pushes cfg to the controller.
func (s *Session) SetConfig(cfg gosnappi.Config) error {
	defer otgutils.Timer(time.Now(), "Setting config")
	log.Info("Setting config ...")
	w, err := s.api.SetConfig(cfg)
	if err != nil {
		return fmt.Errorf("setting config: %w", err)
	}
	checkWarnings(w)
	return nil
}

func (s *Session) setControlState(what string, cs gosnappi.ControlState) error {
	log.Infof("%s ...", what)
	w, err := s.api.SetControlState(cs)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	checkWarnings(w)
	return nil
}

func (s *Session) setCapture(ports []string, state gosnappi.StatePortCaptureStateEnum) error {
	cs := gosnappi.NewControlState()
	cs.Port().Capture().SetPortNames(ports).SetState(state)
	return s.setControlState(fmt.Sprintf("Setting capture %s on %v", state, ports), cs)
}

func (s *Session) setTransmit(state gosnappi.StateTrafficFlowTransmitStateEnum) error {
	cs := gosnappi.NewControlState()
	cs.Traffic().FlowTransmit().SetState(state)
	return s.setControlState(fmt.Sprintf("Setting transmit %s", state), cs)
}

// StartTraffic starts all flows. With startCapture set, capture is first
// started on the capture ports of cfg. A nil cfg skips capture.
func (s *Session) StartTraffic(cfg gosnappi.Config, startCapture bool) error {
	if startCapture && cfg != nil {
		if ports := otgconfig.CapturePortNames(cfg); len(ports) != 0 {
			if err := s.setCapture(ports, gosnappi.StatePortCaptureState.START); err != nil {
				return err
			}
		}
	}
	return s.setTransmit(gosnappi.StateTrafficFlowTransmitState.START)
}

// StopTraffic stops all flows. With stopCapture set, capture is then
// stopped on the capture ports of cfg. A nil cfg skips capture.
func (s *Session) StopTraffic(cfg gosnappi.Config, stopCapture bool) error {
	if err := s.setTransmit(gosnappi.StateTrafficFlowTransmitState.STOP); err != nil {
		return err
	}
	if stopCapture && cfg != nil {
		if ports := otgconfig.CapturePortNames(cfg); len(ports) != 0 {
			return s.setCapture(ports, gosnappi.StatePortCaptureState.STOP)
		}
	}
	return nil
}

// StartProtocols starts all emulated protocols.
func (s *Session) StartProtocols() error {
	cs := gosnappi.NewControlState()
	cs.Protocol().All().SetState(gosnappi.StateProtocolAllState.START)
	return s.setControlState("Starting protocols", cs)
}

// StopProtocols stops all emulated protocols.
func (s *Session) StopProtocols() error {
	cs := gosnappi.NewControlState()
	cs.Protocol().All().SetState(gosnappi.StateProtocolAllState.STOP)
	return s.setControlState("Stopping protocols", cs)
}

// SetRouteState withdraws or advertises the named route ranges.
func (s *Session) SetRouteState(names []string, withdraw bool) error {
	state := gosnappi.StateProtocolRouteState.ADVERTISE
	if withdraw {
		state = gosnappi.StateProtocolRouteState.WITHDRAW
	}
	cs := gosnappi.NewControlState()
	cs.Protocol().Route().SetNames(names).SetState(state)
	return s.setControlState(fmt.Sprintf("Setting routes %v to %s", names, state), cs)
}

// SetLinkState brings the links of the ports up or down.
func (s *Session) SetLinkState(ports []string, up bool) error {
	state := gosnappi.StatePortLinkState.DOWN
	if up {
		state = gosnappi.StatePortLinkState.UP
	}
	cs := gosnappi.NewControlState()
	cs.Port().Link().SetPortNames(ports).SetState(state)
	return s.setControlState(fmt.Sprintf("Setting link of %v %s", ports, state), cs)
}

// PortMetrics returns the metrics of the named ports, all ports when none
// are named.
func (s *Session) PortMetrics(names ...string) ([]otgutils.MetricSample, error) {
	req := gosnappi.NewMetricsRequest()
	req.Port().SetPortNames(names)
	res, err := s.api.GetMetrics(req)
	if err != nil {
		return nil, fmt.Errorf("getting port metrics: %w", err)
	}
	return otgutils.PortSamples(res.PortMetrics()), nil
}

// FlowMetrics returns the metrics of the named flows, all flows when none
// are named.
func (s *Session) FlowMetrics(names ...string) ([]otgutils.MetricSample, error) {
	req := gosnappi.NewMetricsRequest()
	req.Flow().SetFlowNames(names)
	res, err := s.api.GetMetrics(req)
	if err != nil {
		return nil, fmt.Errorf("getting flow metrics: %w", err)
	}
	return otgutils.FlowSamples(res.FlowMetrics()), nil
}

// Bgpv4Metrics returns the metrics of the named BGPv4 peers, all peers when
// none are named.
func (s *Session) Bgpv4Metrics(names ...string) (gosnappi.MetricsResponseBgpv4MetricIter, error) {
	req := gosnappi.NewMetricsRequest()
	req.Bgpv4().SetPeerNames(names)
	res, err := s.api.GetMetrics(req)
	if err != nil {
		return nil, fmt.Errorf("getting bgpv4 metrics: %w", err)
	}
	return res.Bgpv4Metrics(), nil
}

// AllStats returns the metrics of all ports and flows, printing them as
// tables when show is set.
func (s *Session) AllStats(show bool) (ports, flows []otgutils.MetricSample, err error) {
	ports, err = s.PortMetrics()
	if err != nil {
		return nil, nil, err
	}
	flows, err = s.FlowMetrics()
	if err != nil {
		return nil, nil, err
	}
	if s.recorder != nil {
		s.recorder.RecordSamples(ports, flows)
	}
	if show {
		otgutils.PrintMetricsTable(&otgutils.MetricsTableOpts{
			ClearPrevious: s.settings.DynamicStatsOutput,
			PortMetrics:   ports,
			FlowMetrics:   flows,
		})
	}
	return ports, flows, nil
}

// Captures returns the frames captured on each capture port of cfg.
func (s *Session) Captures(cfg gosnappi.Config) (map[string][][]byte, error) {
	out := map[string][][]byte{}
	for _, p := range otgconfig.CapturePortNames(cfg) {
		log.Infof("Fetching capture from port %s", p)
		b, err := s.api.GetCapture(gosnappi.NewCaptureRequest().SetPortName(p))
		if err != nil {
			return nil, fmt.Errorf("getting capture of port %s: %w", p, err)
		}
		frames, err := capture.Frames(b)
		if err != nil {
			return nil, fmt.Errorf("port %s: %w", p, err)
		}
		out[p] = frames
	}
	return out, nil
}

// Option overrides the settings of one wait.
type Option func(*otgutils.WaitForOpts)

// WithInterval sets the time between two evaluations of the condition.
func WithInterval(d time.Duration) Option {
	return func(o *otgutils.WaitForOpts) { o.Interval = d }
}

// WithTimeout sets the time after which a pending condition is given up.
func WithTimeout(d time.Duration) Option {
	return func(o *otgutils.WaitForOpts) { o.Timeout = d }
}

// WaitFor polls fn until it is done, with the interval and timeout of the
// settings unless overridden.
func (s *Session) WaitFor(fn otgutils.Condition, condition string, opts ...Option) error {
	o := s.settings.WaitForOpts(condition)
	for _, opt := range opts {
		opt(o)
	}
	err := otgutils.WaitFor(fn, o)
	if s.recorder != nil {
		s.recorder.RecordWait(condition, err)
	}
	return err
}

// TotalsCondition is met when port tx, port rx and flow rx frames all equal
// expectedFrames and the byte counters all equal expectedBytes. Failing to
// read metrics aborts the wait.
func (s *Session) TotalsCondition(expectedFrames, expectedBytes uint64) otgutils.Condition {
	return otgutils.BoolCondition(func() (bool, error) {
		ports, flows, err := s.AllStats(true)
		if err != nil {
			return false, err
		}
		framesOk := otgutils.TotalFramesOk(ports, flows, expectedFrames)
		bytesOk := otgutils.TotalBytesOk(ports, flows, expectedBytes)
		return framesOk && bytesOk, nil
	})
}

// TransmitCondition is met when every flow reports the transmit state.
func (s *Session) TransmitCondition(state string) otgutils.Condition {
	return otgutils.BoolCondition(func() (bool, error) {
		flows, err := s.FlowMetrics()
		if err != nil {
			return false, err
		}
		return otgutils.FlowTransmitMatches(flows, state), nil
	})
}
