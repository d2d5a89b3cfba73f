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
	"github.com/open-traffic-generator/snappi/gosnappi"
)

// Iana Ethertype is the IANA Ethertype for IPv4 and IPv6.
const (
	IanaIPv4Ethertype = 2048
	IanaIPv6Ethertype = 34525
)

/*
Flow is a struct to hold Flow parameters.
Either TxPort and RxPort or TxNames and RxNames must be set. Ports give a raw
flow, names of devices, interfaces or route ranges give a device flow.
Creating a raw TCP flow.

	top := gosnappi.NewConfig()
	f := &Flow{
		FlowName:      "f1",
		TxPort:        "tx",
		RxPort:        "rx",
		FrameSize:     128,
		PpsRate:       1000,
		PacketsToSend: 10000,
		EthFlow:       &EthFlowParams{SrcMAC: "00:cd:dc:cd:dc:cd", DstMAC: "00:ab:bc:ab:bc:ab"},
		TCPFlow:       &TCPFlowParams{SrcPorts: []uint32{5000}, DstPorts: []uint32{6000}},
	}
	f.CreateFlow(top)
	f.AddEthHeader()
	f.AddTCPHeader()
*/
type Flow struct {
	FlowName      string
	TxPort        string
	RxPort        string
	TxNames       []string
	RxNames       []string
	FrameSize     uint32
	Flowrate      float32
	PpsRate       uint64
	PacketsToSend uint32
	VLANFlow      *VLANFlowParams
	EthFlow       *EthFlowParams
	IPv4Flow      *IPv4FlowParams
	IPv6Flow      *IPv6FlowParams
	TCPFlow       *TCPFlowParams
	UDPFlow       *UDPFlowParams
	flow          gosnappi.Flow
}

// VLANFlowParams is a struct to hold VLAN traffic parameters.
type VLANFlowParams struct {
	VLANId    uint32
	VLANCount uint32
}

// EthFlowParams is a struct to hold Ethernet traffic parameters.
// A non-zero count turns the address into an incrementing counter, or a
// decrementing one when the matching Decrement flag is set.
type EthFlowParams struct {
	SrcMAC       string
	DstMAC       string
	MACStep      string
	SrcMACCount  uint32
	DstMACCount  uint32
	DstDecrement bool
	// PFCQueue maps the frames to a priority queue when set.
	PFCQueue *uint32
}

// IPv4FlowParams is a struct to hold IPv4 traffic parameters.
type IPv4FlowParams struct {
	IPv4Src      string
	IPv4Dst      string
	IPStep       string
	IPv4SrcCount uint32
	IPv4DstCount uint32
	DSCP         uint32
}

// IPv6FlowParams is a struct to hold IPv6 traffic parameters.
type IPv6FlowParams struct {
	IPv6Src      string
	IPv6Dst      string
	IPStep       string
	IPv6SrcCount uint32
	IPv6DstCount uint32
}

// TCPFlowParams is a struct to hold TCP traffic parameters. Each packet
// takes the next port of the list.
type TCPFlowParams struct {
	SrcPorts []uint32
	DstPorts []uint32
}

// UDPFlowParams is a struct to hold UDP traffic parameters.
type UDPFlowParams struct {
	UDPSrcPort  uint32
	UDPDstPort  uint32
	UDPSrcCount uint32
	UDPDstCount uint32
}

// CreateFlow defines Tx and Rx end points for traffic flow.
func (f *Flow) CreateFlow(top gosnappi.Config) gosnappi.Flow {
	f.flow = top.Flows().Add().SetName(f.FlowName)
	f.flow.Metrics().SetEnable(true)
	if f.TxPort != "" {
		f.flow.TxRx().Port().SetTxName(f.TxPort).SetRxNames([]string{f.RxPort})
	} else {
		f.flow.TxRx().Device().
			SetTxNames(f.TxNames).
			SetRxNames(f.RxNames)
	}

	if f.FrameSize != 0 {
		f.flow.Size().SetFixed(f.FrameSize)
	}
	if f.Flowrate != 0 {
		f.flow.Rate().SetPercentage(f.Flowrate)
	}
	if f.PpsRate != 0 {
		f.flow.Rate().SetPps(f.PpsRate)
	}
	if f.PacketsToSend != 0 {
		f.flow.Duration().FixedPackets().SetPackets(f.PacketsToSend)
	}
	return f.flow
}

// AddEthHeader adds an Ethernet header to the flow.
func (f *Flow) AddEthHeader() {
	eth := f.flow.Packet().Add().Ethernet()
	if f.EthFlow == nil {
		return
	}
	step := f.EthFlow.MACStep
	if step == "" {
		step = "00:00:00:00:00:01"
	}
	switch {
	case f.EthFlow.SrcMACCount != 0:
		eth.Src().Increment().SetStart(f.EthFlow.SrcMAC).SetStep(step).SetCount(f.EthFlow.SrcMACCount)
	case f.EthFlow.SrcMAC != "":
		eth.Src().SetValue(f.EthFlow.SrcMAC)
	}
	switch {
	case f.EthFlow.DstMACCount != 0 && f.EthFlow.DstDecrement:
		eth.Dst().Decrement().SetStart(f.EthFlow.DstMAC).SetStep(step).SetCount(f.EthFlow.DstMACCount)
	case f.EthFlow.DstMACCount != 0:
		eth.Dst().Increment().SetStart(f.EthFlow.DstMAC).SetStep(step).SetCount(f.EthFlow.DstMACCount)
	case f.EthFlow.DstMAC != "":
		eth.Dst().SetValue(f.EthFlow.DstMAC)
	}
	if f.EthFlow.PFCQueue != nil {
		eth.PfcQueue().SetValue(*f.EthFlow.PFCQueue)
	}
}

// AddVlanHeader adds a VLAN header to the flow.
func (f *Flow) AddVlanHeader() {
	vlan := f.flow.Packet().Add().Vlan()
	if f.VLANFlow == nil {
		return
	}
	if f.VLANFlow.VLANCount != 0 {
		vlan.Id().Increment().SetStart(f.VLANFlow.VLANId).SetCount(f.VLANFlow.VLANCount)
	} else {
		vlan.Id().SetValue(f.VLANFlow.VLANId)
	}
}

// AddIPv4Header adds an IPv4 header to the flow.
func (f *Flow) AddIPv4Header() {
	ipv4Hdr := f.flow.Packet().Add().Ipv4()
	if f.IPv4Flow == nil {
		return
	}
	step := f.IPv4Flow.IPStep
	if step == "" {
		step = "0.0.0.1"
	}
	switch {
	case f.IPv4Flow.IPv4SrcCount != 0:
		ipv4Hdr.Src().Increment().SetStart(f.IPv4Flow.IPv4Src).SetStep(step).SetCount(f.IPv4Flow.IPv4SrcCount)
	case f.IPv4Flow.IPv4Src != "":
		ipv4Hdr.Src().SetValue(f.IPv4Flow.IPv4Src)
	}
	switch {
	case f.IPv4Flow.IPv4DstCount != 0:
		ipv4Hdr.Dst().Increment().SetStart(f.IPv4Flow.IPv4Dst).SetStep(step).SetCount(f.IPv4Flow.IPv4DstCount)
	case f.IPv4Flow.IPv4Dst != "":
		ipv4Hdr.Dst().SetValue(f.IPv4Flow.IPv4Dst)
	}
	if f.IPv4Flow.DSCP != 0 {
		ipv4Hdr.Priority().Dscp().Phb().SetValue(f.IPv4Flow.DSCP)
	}
}

// AddIPv6Header adds an IPv6 header to the flow.
func (f *Flow) AddIPv6Header() {
	ipv6Hdr := f.flow.Packet().Add().Ipv6()
	if f.IPv6Flow == nil {
		return
	}
	step := f.IPv6Flow.IPStep
	if step == "" {
		step = "::1"
	}
	switch {
	case f.IPv6Flow.IPv6SrcCount != 0:
		ipv6Hdr.Src().Increment().SetStart(f.IPv6Flow.IPv6Src).SetStep(step).SetCount(f.IPv6Flow.IPv6SrcCount)
	case f.IPv6Flow.IPv6Src != "":
		ipv6Hdr.Src().SetValue(f.IPv6Flow.IPv6Src)
	}
	switch {
	case f.IPv6Flow.IPv6DstCount != 0:
		ipv6Hdr.Dst().Increment().SetStart(f.IPv6Flow.IPv6Dst).SetStep(step).SetCount(f.IPv6Flow.IPv6DstCount)
	case f.IPv6Flow.IPv6Dst != "":
		ipv6Hdr.Dst().SetValue(f.IPv6Flow.IPv6Dst)
	}
}

// AddTCPHeader adds a TCP header to the flow.
func (f *Flow) AddTCPHeader() {
	tcpHdr := f.flow.Packet().Add().Tcp()
	if f.TCPFlow == nil {
		return
	}
	if len(f.TCPFlow.SrcPorts) != 0 {
		tcpHdr.SrcPort().SetValues(f.TCPFlow.SrcPorts)
	}
	if len(f.TCPFlow.DstPorts) != 0 {
		tcpHdr.DstPort().SetValues(f.TCPFlow.DstPorts)
	}
}

// AddUDPHeader adds a UDP header to the flow.
func (f *Flow) AddUDPHeader() {
	udpHdr := f.flow.Packet().Add().Udp()
	if f.UDPFlow == nil {
		return
	}
	if f.UDPFlow.UDPSrcCount != 0 {
		udpHdr.SrcPort().Increment().SetStart(f.UDPFlow.UDPSrcPort).SetCount(f.UDPFlow.UDPSrcCount)
	} else {
		udpHdr.SrcPort().SetValue(f.UDPFlow.UDPSrcPort)
	}
	if f.UDPFlow.UDPDstCount != 0 {
		udpHdr.DstPort().Increment().SetStart(f.UDPFlow.UDPDstPort).SetCount(f.UDPFlow.UDPDstCount)
	} else {
		udpHdr.DstPort().SetValue(f.UDPFlow.UDPDstPort)
	}
}

// AddPFCPauseHeader makes the flow a PFC pause storm pausing every class
// for the maximum quanta.
func (f *Flow) AddPFCPauseHeader(srcMAC string) {
	pfc := f.flow.Packet().Add().Pfcpause()
	pfc.Src().SetValue(srcMAC)
	pfc.ClassEnableVector().SetValue(0xff)
	pfc.ControlOpCode().SetValue(0x0101)
	pfc.PauseClass0().SetValue(0xffff)
	pfc.PauseClass1().SetValue(0xffff)
	pfc.PauseClass2().SetValue(0xffff)
	pfc.PauseClass3().SetValue(0xffff)
	pfc.PauseClass4().SetValue(0xffff)
	pfc.PauseClass5().SetValue(0xffff)
	pfc.PauseClass6().SetValue(0xffff)
	pfc.PauseClass7().SetValue(0xffff)
}

// Flow returns the flow created by CreateFlow.
func (f *Flow) Flow() gosnappi.Flow {
	return f.flow
}
