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

package otgconfig

import (
	"fmt"

	"github.com/open-traffic-generator/snappi-tests/internal/settings"
	"github.com/open-traffic-generator/snappi/gosnappi"
)

// Names shared by the configurations below.
const (
	TxPort  = "tx"
	RxPort  = "rx"
	Rx1Port = "rx1"
	Rx2Port = "rx2"

	PrimaryRoutes   = "rx1_rr"
	SecondaryRoutes = "rx2_rr"
	ConvergenceFlow = "convergence_test"

	PFCTxPort    = "raw_tx"
	PFCRxPort    = "raw_rx"
	PFCPauseFlow = "rx_pause"

	DeviceTxMAC  = "00:10:10:20:20:10"
	DeviceRxMAC  = "00:10:10:20:20:20"
	DeviceTxIPv4 = "10.1.1.1"
	DeviceRxIPv4 = "10.1.1.2"
	DeviceTxIPv6 = "abcd::1a"
	DeviceRxIPv6 = "abcd::2a"
	// The raw flows of IPDevices count the source MAC up and the
	// destination MAC down from the device MACs.
	DeviceMACStep  = "00:00:00:00:00:01"
	DeviceMACCount = 1

	srcMAC = "00:cd:dc:cd:dc:cd"
	dstMAC = "00:ab:bc:ab:bc:ab"
)

// TCP ports cycled through by the TCP flows.
var (
	TCPSrcPorts = []uint32{5000, 5050, 5015, 5040, 5032, 5021}
	TCPDstPorts = []uint32{6000, 6015, 6050}
)

func b2bPorts(s *settings.Settings) (gosnappi.Config, error) {
	top := gosnappi.NewConfig()
	if _, err := Ports(top, s, TxPort, RxPort); err != nil {
		return nil, err
	}
	AddLayer1(top, &Layer1Attrs{
		Name:        "l1",
		PortNames:   []string{TxPort, RxPort},
		Speed:       s.Speed,
		Media:       s.Media,
		Promiscuous: s.Promiscuous,
	})
	return top, nil
}

// B2BRaw returns two back to back ports with one raw flow f1 from tx to rx
// and capture enabled on rx.
func B2BRaw(s *settings.Settings) (gosnappi.Config, error) {
	top, err := b2bPorts(s)
	if err != nil {
		return nil, err
	}
	AddCapture(top, "c1", RxPort)
	f := &Flow{FlowName: "f1", TxPort: TxPort, RxPort: RxPort}
	f.CreateFlow(top)
	return top, nil
}

// BasicFlowStats sends 10000 frames of 128 bytes at 1000 pps over an
// ethernet/vlan/ipv4/tcp flow, capturing on rx.
func BasicFlowStats(s *settings.Settings) (gosnappi.Config, error) {
	top, err := b2bPorts(s)
	if err != nil {
		return nil, err
	}
	AddCapture(top, "cap", RxPort)
	f := &Flow{
		FlowName:      "flw",
		TxPort:        TxPort,
		RxPort:        RxPort,
		FrameSize:     128,
		PpsRate:       1000,
		PacketsToSend: 10000,
	}
	f.CreateFlow(top)
	f.AddEthHeader()
	f.AddVlanHeader()
	f.AddIPv4Header()
	f.AddTCPHeader()
	return top, nil
}

func tcpFlow(top gosnappi.Config, name, tx, rx string, size, packets uint32) {
	f := &Flow{
		FlowName:      name,
		TxPort:        tx,
		RxPort:        rx,
		FrameSize:     size,
		PacketsToSend: packets,
		EthFlow:       &EthFlowParams{SrcMAC: srcMAC, DstMAC: dstMAC},
		IPv4Flow:      &IPv4FlowParams{IPv4Src: "1.1.1.2", IPv4Dst: "1.1.1.1"},
		TCPFlow:       &TCPFlowParams{SrcPorts: TCPSrcPorts, DstPorts: TCPDstPorts},
	}
	f.CreateFlow(top)
	f.AddEthHeader()
	f.AddIPv4Header()
	f.AddTCPHeader()
}

// TCPUnidir sends packets frames of size bytes from tx to rx, cycling
// through 6 source and 3 destination TCP ports.
func TCPUnidir(s *settings.Settings, size, packets uint32) (gosnappi.Config, error) {
	top, err := b2bPorts(s)
	if err != nil {
		return nil, err
	}
	AddCapture(top, "cap", RxPort)
	tcpFlow(top, "tx_flow", TxPort, RxPort, size, packets)
	return top, nil
}

// TCPBidir is TCPUnidir with a second flow from rx to tx.
func TCPBidir(s *settings.Settings, size, packets uint32) (gosnappi.Config, error) {
	top, err := b2bPorts(s)
	if err != nil {
		return nil, err
	}
	tcpFlow(top, "tx_flow", TxPort, RxPort, size, packets)
	tcpFlow(top, "rx_flow", RxPort, TxPort, size, packets)
	return top, nil
}

// PFCFlowName returns the name of the flow sending at priority p.
func PFCFlowName(p int) string {
	return fmt.Sprintf("tx_p%d", p)
}

// PFCPause has 8 flows on raw_tx, one per priority, each sending packets
// frames at 10% line rate, and a pause storm flow from raw_rx. raw_tx only
// honors pause frames for the lossless priorities.
func PFCPause(s *settings.Settings, lossless []uint32, packets uint32) (gosnappi.Config, error) {
	top := gosnappi.NewConfig()
	if _, err := Ports(top, s, PFCTxPort, PFCRxPort); err != nil {
		return nil, err
	}
	AddLayer1(top, &Layer1Attrs{
		Name:               "tx_l1",
		PortNames:          []string{PFCTxPort},
		Speed:              s.Speed,
		Media:              s.Media,
		LosslessPriorities: lossless,
	})
	AddLayer1(top, &Layer1Attrs{
		Name:      "rx_l1",
		PortNames: []string{PFCRxPort},
		Speed:     s.Speed,
		Media:     s.Media,
	})
	for i := range 8 {
		queue := uint32(i)
		f := &Flow{
			FlowName:      PFCFlowName(i),
			TxPort:        PFCTxPort,
			RxPort:        PFCRxPort,
			FrameSize:     128,
			Flowrate:      10,
			PacketsToSend: packets,
			EthFlow:       &EthFlowParams{SrcMAC: srcMAC, DstMAC: dstMAC, PFCQueue: &queue},
			IPv4Flow:      &IPv4FlowParams{IPv4Src: "10.1.1.1", IPv4Dst: "10.1.1.2", DSCP: queue * 8},
		}
		f.CreateFlow(top)
		f.AddEthHeader()
		f.AddIPv4Header()
	}
	pause := &Flow{
		FlowName:  PFCPauseFlow,
		TxPort:    PFCRxPort,
		RxPort:    PFCTxPort,
		FrameSize: 128,
		Flowrate:  100,
	}
	pause.CreateFlow(top).Duration().FixedSeconds().SetSeconds(20)
	pause.AddPFCPauseHeader(dstMAC)
	return top, nil
}

// BGPConvergence has a device on tx sending to the same 1000 routes
// advertised by BGP peers on rx1 and rx2.
func BGPConvergence(s *settings.Settings) (gosnappi.Config, error) {
	top := gosnappi.NewConfig()
	if _, err := Ports(top, s, TxPort, Rx1Port, Rx2Port); err != nil {
		return nil, err
	}
	AddLayer1(top, &Layer1Attrs{
		Name:              "ly",
		PortNames:         []string{TxPort, Rx1Port, Rx2Port},
		Speed:             s.Speed,
		IeeeMediaDefaults: true,
	})

	tx := &InterfaceProperties{Name: "tx", PortName: TxPort, MAC: "00:00:00:00:00:aa", IPv4: "21.1.1.2", IPv4Gateway: "21.1.1.1", IPv4Len: 24}
	ConfigureInterface(top, "tx_device", tx)

	for _, rx := range []struct {
		port, mac, addr, gw, routes string
	}{
		{Rx1Port, "00:00:00:00:00:bb", "22.1.1.2", "22.1.1.1", PrimaryRoutes},
		{Rx2Port, "00:00:00:00:00:cc", "23.1.1.2", "23.1.1.1", SecondaryRoutes},
	} {
		intf := &InterfaceProperties{Name: rx.port, PortName: rx.port, MAC: rx.mac, IPv4: rx.addr, IPv4Gateway: rx.gw, IPv4Len: 24}
		dev := ConfigureInterface(top, rx.port+"_device", intf)
		peer := AddBGPV4Peer(dev, rx.port+"_bgpv4", intf.IPv4Name(), rx.addr, rx.gw)
		AddV4Routes(peer, rx.routes, "200.1.0.1", 32, 1000)
	}

	f := &Flow{
		FlowName:  ConvergenceFlow,
		TxNames:   []string{tx.IPv4Name()},
		RxNames:   []string{PrimaryRoutes, SecondaryRoutes},
		FrameSize: 1024,
		Flowrate:  50,
	}
	f.CreateFlow(top)
	return top, nil
}

// VXLAN connects two edge devices over VXLAN tunnels between tx and rx and
// sends packets frames between the routes advertised by their iBGP peers.
func VXLAN(s *settings.Settings, packets uint32) (gosnappi.Config, error) {
	top := gosnappi.NewConfig()
	if _, err := Ports(top, s, TxPort, RxPort); err != nil {
		return nil, err
	}

	ends := []struct {
		dev, port, mac, addr, gw        string
		edgeMAC, edgeAddr, edgeGw, pfx string
	}{
		{"d1", TxPort, "00:01:00:00:00:01", "10.10.10.1", "10.10.10.2", "00:18:01:00:00:01", "100.1.1.1", "100.1.1.2", "200.1.1.1"},
		{"d2", RxPort, "00:01:00:00:00:02", "10.10.10.2", "10.10.10.1", "00:16:01:00:00:01", "100.1.1.2", "100.1.1.1", "201.1.1.1"},
	}
	var routes []string
	for i, e := range ends {
		intf := &InterfaceProperties{Name: e.dev, PortName: e.port, MAC: e.mac, IPv4: e.addr, IPv4Gateway: e.gw, IPv4Len: 24}
		dev := ConfigureInterface(top, e.dev, intf)
		tunnel := e.dev + "_vxlan"
		AddVxlanV4Tunnel(dev, tunnel, intf.IPv4Name(), 1000, "225.0.0.1")

		edgeIntf := &InterfaceProperties{Name: "edge_" + e.dev, VxlanName: tunnel, MAC: e.edgeMAC, IPv4: e.edgeAddr, IPv4Gateway: e.edgeGw, IPv4Len: 24}
		edge := ConfigureInterface(top, "edge_"+e.dev, edgeIntf)
		peer := AddBGPV4Peer(edge, fmt.Sprintf("edge_bgp%d", i+1), edgeIntf.IPv4Name(), e.edgeAddr, e.edgeGw, WithIBGP(), WithASNumber(1000))
		name := fmt.Sprintf("A%d", i+1)
		AddV4Routes(peer, name, e.pfx, 32, 1)
		routes = append(routes, name)
	}

	f := &Flow{
		FlowName:      "f1",
		TxNames:       routes[:1],
		RxNames:       routes[1:],
		PacketsToSend: packets,
	}
	f.CreateFlow(top).Metrics().SetLoss(true)
	return top, nil
}

// IPDevices has dual stack devices on tx and rx with one device flow per
// address family and one raw flow per family, capturing on rx.
func IPDevices(s *settings.Settings, size, packets uint32) (gosnappi.Config, error) {
	top, err := b2bPorts(s)
	if err != nil {
		return nil, err
	}
	AddCapture(top, "c1", RxPort)

	tx := &InterfaceProperties{Name: "tx", PortName: TxPort, MAC: DeviceTxMAC, IPv4: DeviceTxIPv4, IPv4Gateway: DeviceRxIPv4, IPv4Len: 24, IPv6: DeviceTxIPv6, IPv6Gateway: DeviceRxIPv6, IPv6Len: 48}
	rx := &InterfaceProperties{Name: "rx", PortName: RxPort, MAC: DeviceRxMAC, IPv4: DeviceRxIPv4, IPv4Gateway: DeviceTxIPv4, IPv4Len: 24, IPv6: DeviceRxIPv6, IPv6Gateway: DeviceTxIPv6, IPv6Len: 48}
	ConfigureInterface(top, "tx_dev", tx)
	ConfigureInterface(top, "rx_dev", rx)

	flows := []*Flow{
		{FlowName: "FlowIpv4Device", TxNames: []string{tx.IPv4Name()}, RxNames: []string{rx.IPv4Name()}, Flowrate: 10},
		{FlowName: "FlowIpv6Device", TxNames: []string{tx.IPv6Name()}, RxNames: []string{rx.IPv6Name()}, Flowrate: 10},
	}
	for _, f := range flows {
		f.FrameSize, f.PacketsToSend = size, packets
		f.CreateFlow(top)
	}

	eth := &EthFlowParams{SrcMAC: DeviceTxMAC, DstMAC: DeviceRxMAC, MACStep: DeviceMACStep, SrcMACCount: DeviceMACCount, DstMACCount: DeviceMACCount, DstDecrement: true}
	v4 := &Flow{
		FlowName: "FlowIpv4Raw", TxPort: TxPort, RxPort: RxPort, FrameSize: size, PacketsToSend: packets,
		EthFlow:  eth,
		IPv4Flow: &IPv4FlowParams{IPv4Src: DeviceTxIPv4, IPv4Dst: DeviceRxIPv4, IPStep: "0.0.1.0", IPv4SrcCount: 1, IPv4DstCount: 1},
	}
	v4.CreateFlow(top)
	v4.AddEthHeader()
	v4.AddIPv4Header()

	v6 := &Flow{
		FlowName: "FlowIpv6Raw", TxPort: TxPort, RxPort: RxPort, FrameSize: size, PacketsToSend: packets,
		EthFlow:  eth,
		IPv6Flow: &IPv6FlowParams{IPv6Src: DeviceTxIPv6, IPv6Dst: DeviceRxIPv6, IPStep: "1::", IPv6SrcCount: 1, IPv6DstCount: 1},
	}
	v6.CreateFlow(top)
	v6.AddEthHeader()
	v6.AddIPv6Header()
	return top, nil
}
