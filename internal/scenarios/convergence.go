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
	"time"

	log "github.com/golang/glog"
	"github.com/open-traffic-generator/snappi-tests/internal/otgconfig"
	"github.com/open-traffic-generator/snappi-tests/internal/otgsession"
	"github.com/open-traffic-generator/snappi-tests/internal/otgutils"
)

// Routes advertised by each of the two BGP peers.
const routesPerPeer = 1000

func init() {
	register(Scenario{
		Name:        "route_withdraw",
		Description: "Traffic to routes advertised on rx1 and rx2 moves to rx2 when rx1 withdraws them, and splits again once they are advertised back.",
		Ports:       3,
		Run:         routeWithdraw,
	})
	register(Scenario{
		Name:        "link_down_convergence",
		Description: "Traffic split between rx1 and rx2 moves to rx2 when the rx1 link goes down, reporting the data plane convergence time from the frames lost.",
		Ports:       3,
		Run:         linkDownConvergence,
	})
	register(Scenario{
		Name:        "rib_in_convergence",
		Description: "Traffic starts with all routes withdrawn and splits between rx1 and rx2 once both peers advertise them again.",
		Ports:       3,
		Run:         ribInConvergence,
	})
}

// bgpConverged waits for every peer to be up and advertise routes routes
// in total.
func bgpConverged(s *otgsession.Session, routes uint64) otgutils.Condition {
	return otgutils.BoolCondition(func() (bool, error) {
		m, err := s.Bgpv4Metrics()
		if err != nil {
			return false, err
		}
		return otgutils.AllBgp4SessionUp(m) && otgutils.Bgp4RoutesAdvertised(m) == routes, nil
	})
}

type rates struct {
	tx, rx1, rx2 float32
}

// portRates reads the frame rates of the three ports. ok is false until the
// controller reports all of them.
func portRates(s *otgsession.Session) (r rates, ok bool, err error) {
	ports, err := s.PortMetrics(otgconfig.TxPort, otgconfig.Rx1Port, otgconfig.Rx2Port)
	if err != nil {
		return rates{}, false, err
	}
	r, ok = ratesOf(ports)
	if ok {
		log.V(1).Infof("Rates: tx %v, rx1 %v, rx2 %v", r.tx, r.rx1, r.rx2)
	}
	return r, ok, nil
}

func ratesOf(ports []otgutils.MetricSample) (rates, bool) {
	var r rates
	for _, p := range []struct {
		name string
		rate *float32
		rx   bool
	}{
		{otgconfig.TxPort, &r.tx, false},
		{otgconfig.Rx1Port, &r.rx1, true},
		{otgconfig.Rx2Port, &r.rx2, true},
	} {
		m, ok := otgutils.SampleByName(ports, p.name)
		if !ok {
			return rates{}, false
		}
		*p.rate = m.FramesTxRate
		if p.rx {
			*p.rate = m.FramesRxRate
		}
	}
	return r, true
}

// trafficSplit is met when rx1 and rx2 each receive half of what tx sends.
func trafficSplit(s *otgsession.Session) otgutils.Condition {
	half := otgutils.Fraction(1, 2)
	return otgutils.BoolCondition(func() (bool, error) {
		r, ok, err := portRates(s)
		if err != nil || !ok {
			return false, err
		}
		tx := uint64(r.tx)
		return tx != 0 && half(uint64(r.rx1), tx) && half(uint64(r.rx2), tx), nil
	})
}

// trafficOnSecondary is met when rx2 receives all of what tx sends.
func trafficOnSecondary(s *otgsession.Session) otgutils.Condition {
	return otgutils.BoolCondition(func() (bool, error) {
		r, ok, err := portRates(s)
		if err != nil || !ok {
			return false, err
		}
		exact := otgutils.Within(0)
		return r.tx != 0 && r.rx1 == 0 && exact(uint64(r.rx2), uint64(r.tx)), nil
	})
}

// bgpUp pushes the convergence config and waits for rx1 and rx2 to
// advertise all their routes.
func bgpUp(s *otgsession.Session) error {
	cfg, err := otgconfig.BGPConvergence(s.Settings())
	if err != nil {
		return err
	}
	if err := s.SetConfig(cfg); err != nil {
		return err
	}
	if err := s.StartProtocols(); err != nil {
		return err
	}
	return s.WaitFor(bgpConverged(s, 2*routesPerPeer), "BGP sessions to be up with all routes advertised")
}

// startConvergenceTraffic brings up BGP and waits for the convergence flow
// to split between rx1 and rx2.
func startConvergenceTraffic(s *otgsession.Session) error {
	if err := bgpUp(s); err != nil {
		return err
	}
	if err := s.StartTraffic(nil, false); err != nil {
		return err
	}
	return s.WaitFor(trafficSplit(s), "traffic to start and split between rx1 and rx2")
}

func routeWithdraw(s *otgsession.Session) error {
	if err := startConvergenceTraffic(s); err != nil {
		return err
	}

	if err := s.SetRouteState([]string{otgconfig.PrimaryRoutes}, true); err != nil {
		return err
	}
	if err := s.WaitFor(bgpConverged(s, routesPerPeer), "primary routes to be withdrawn"); err != nil {
		return err
	}
	if err := s.WaitFor(trafficOnSecondary(s), "traffic to converge on rx2"); err != nil {
		return err
	}

	if err := s.SetRouteState([]string{otgconfig.PrimaryRoutes}, false); err != nil {
		return err
	}
	if err := s.WaitFor(trafficSplit(s), "traffic to split again"); err != nil {
		return err
	}

	if err := s.StopTraffic(nil, false); err != nil {
		return err
	}
	return s.StopProtocols()
}

// flowDelivered is met when the convergence flow receives at its full rate.
func flowDelivered(s *otgsession.Session) otgutils.Condition {
	return otgutils.BoolCondition(func() (bool, error) {
		flows, err := s.FlowMetrics(otgconfig.ConvergenceFlow)
		if err != nil {
			return false, err
		}
		f, ok := otgutils.SampleByName(flows, otgconfig.ConvergenceFlow)
		return ok && otgutils.RatesConverged(f.FramesTxRate, f.FramesRxRate, 0), nil
	})
}

// flowTxRate waits for the convergence flow to send and returns its rate.
func flowTxRate(s *otgsession.Session) (float32, error) {
	var rate float32
	err := s.WaitFor(otgutils.BoolCondition(func() (bool, error) {
		flows, err := s.FlowMetrics(otgconfig.ConvergenceFlow)
		if err != nil {
			return false, err
		}
		f, ok := otgutils.SampleByName(flows, otgconfig.ConvergenceFlow)
		rate = f.FramesTxRate
		return ok && rate > 0, nil
	}), "traffic to start")
	return rate, err
}

// dataPlaneConvergence is the time the frames lost by f would take at rate.
func dataPlaneConvergence(f otgutils.MetricSample, rate float32) (time.Duration, error) {
	if !otgutils.AtLeast(f.FramesTx, f.FramesRx) {
		return 0, fmt.Errorf("flow %s received %d frames, more than the %d sent", f.Name, f.FramesRx, f.FramesTx)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("flow %s has no tx rate", f.Name)
	}
	lost := float64(f.FramesTx - f.FramesRx)
	return time.Duration(lost / float64(rate) * float64(time.Second)), nil
}

func linkDownConvergence(s *otgsession.Session) error {
	if err := startConvergenceTraffic(s); err != nil {
		return err
	}
	rate, err := flowTxRate(s)
	if err != nil {
		return err
	}

	if err := s.SetLinkState([]string{otgconfig.Rx1Port}, false); err != nil {
		return err
	}
	if err := s.WaitFor(trafficOnSecondary(s), "traffic to converge on rx2"); err != nil {
		return err
	}
	if err := s.StopTraffic(nil, false); err != nil {
		return err
	}
	if err := s.WaitFor(s.TransmitCondition("stopped"), "flows to stop"); err != nil {
		return err
	}

	flows, err := s.FlowMetrics(otgconfig.ConvergenceFlow)
	if err != nil {
		return err
	}
	f, ok := otgutils.SampleByName(flows, otgconfig.ConvergenceFlow)
	if !ok {
		return fmt.Errorf("no metrics for flow %s", otgconfig.ConvergenceFlow)
	}
	d, err := dataPlaneConvergence(f, rate)
	if err != nil {
		return err
	}
	log.Infof("dp/dp convergence: %v (%d of %d frames lost at %v fps)", d, f.FramesTx-f.FramesRx, f.FramesTx, rate)

	if err := s.SetLinkState([]string{otgconfig.Rx1Port}, true); err != nil {
		return err
	}
	if err := s.WaitFor(bgpConverged(s, 2*routesPerPeer), "rx1 session to be up again"); err != nil {
		return err
	}
	return s.StopProtocols()
}

func ribInConvergence(s *otgsession.Session) error {
	if err := bgpUp(s); err != nil {
		return err
	}

	all := []string{otgconfig.PrimaryRoutes, otgconfig.SecondaryRoutes}
	if err := s.SetRouteState(all, true); err != nil {
		return err
	}
	if err := s.WaitFor(bgpConverged(s, 0), "all routes to be withdrawn"); err != nil {
		return err
	}
	if err := s.StartTraffic(nil, false); err != nil {
		return err
	}
	if _, err := flowTxRate(s); err != nil {
		return err
	}

	if err := s.SetRouteState(all, false); err != nil {
		return err
	}
	start := time.Now()
	if err := s.WaitFor(trafficSplit(s), "traffic to converge on rx1 and rx2"); err != nil {
		return err
	}
	if err := s.WaitFor(flowDelivered(s), "flow to receive all it sends"); err != nil {
		return err
	}
	log.Infof("Traffic converged %v after the routes were advertised", time.Since(start))

	if err := s.StopTraffic(nil, false); err != nil {
		return err
	}
	return s.StopProtocols()
}
