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

// Package otgconfig builds the traffic configurations pushed to the
// controller and derives the expected results from them.
package otgconfig

import (
	"fmt"
	"os"

	"github.com/open-traffic-generator/snappi-tests/internal/settings"
	"github.com/open-traffic-generator/snappi/gosnappi"
	"google.golang.org/protobuf/encoding/protojson"
)

// using protojson to marshal will emit property names with lowerCamelCase
// instead of snake_case
var prettyProtoMarshaller = protojson.MarshalOptions{UseProtoNames: true, Multiline: true}

// Port is a test port of a configuration.
type Port struct {
	Name     string
	Location string
}

// Ports adds one port per name, located at the configured port of the same
// index.
func Ports(top gosnappi.Config, s *settings.Settings, names ...string) ([]Port, error) {
	var ports []Port
	for i, name := range names {
		loc, err := s.Port(i)
		if err != nil {
			return nil, err
		}
		top.Ports().Add().SetName(name).SetLocation(loc)
		ports = append(ports, Port{Name: name, Location: loc})
	}
	top.Options().PortOptions().SetLocationPreemption(true)
	return ports, nil
}

// Layer1Attrs holds the layer 1 settings of a group of ports.
type Layer1Attrs struct {
	Name          string
	PortNames     []string
	Speed         string
	Media         string
	AutoNegotiate bool
	// IeeeMediaDefaults lets the port pick its media defaults.
	IeeeMediaDefaults bool
	Promiscuous       bool
	// LosslessPriorities are the PFC classes the ports honor pause frames for.
	LosslessPriorities []uint32
	// LinkTraining and RsFec only apply with AutoNegotiate.
	LinkTraining bool
	RsFec        bool
}

// AddLayer1 adds layer 1 settings for the ports in a.
func AddLayer1(top gosnappi.Config, a *Layer1Attrs) gosnappi.Layer1 {
	l1 := top.Layer1().Add().SetName(a.Name).SetPortNames(a.PortNames)
	if a.Speed != "" {
		l1.SetSpeed(gosnappi.Layer1SpeedEnum(a.Speed))
	}
	if a.Media != "" {
		l1.SetMedia(gosnappi.Layer1MediaEnum(a.Media))
	}
	l1.SetPromiscuous(a.Promiscuous)
	l1.SetIeeeMediaDefaults(a.IeeeMediaDefaults)
	l1.SetAutoNegotiate(a.AutoNegotiate)
	if a.AutoNegotiate {
		l1.AutoNegotiation().SetLinkTraining(a.LinkTraining).SetRsFec(a.RsFec)
	}
	if len(a.LosslessPriorities) != 0 {
		SetPFCClasses(l1, a.LosslessPriorities)
	}
	return l1
}

// SetPFCClasses makes the ports of l1 honor pause frames for the given
// priorities only.
func SetPFCClasses(l1 gosnappi.Layer1, priorities []uint32) {
	qbb := l1.FlowControl().Ieee8021Qbb()
	for _, p := range priorities {
		switch p {
		case 0:
			qbb.SetPfcClass0(p)
		case 1:
			qbb.SetPfcClass1(p)
		case 2:
			qbb.SetPfcClass2(p)
		case 3:
			qbb.SetPfcClass3(p)
		case 4:
			qbb.SetPfcClass4(p)
		case 5:
			qbb.SetPfcClass5(p)
		case 6:
			qbb.SetPfcClass6(p)
		case 7:
			qbb.SetPfcClass7(p)
		}
	}
}

// AddCapture enables PCAP capture on the given ports.
func AddCapture(top gosnappi.Config, name string, portNames ...string) {
	top.Captures().Add().SetName(name).SetPortNames(portNames).SetFormat(gosnappi.CaptureFormat.PCAP)
}

// CapturePortNames returns the ports capture is enabled on, without
// duplicates and in configuration order.
func CapturePortNames(top gosnappi.Config) []string {
	var names []string
	seen := map[string]bool{}
	for _, c := range top.Captures().Items() {
		for _, n := range c.PortNames() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}

// FlowPackets returns the packet count of a fixed packets flow and false
// for flows of any other duration.
func FlowPackets(f gosnappi.Flow) (uint64, bool) {
	if !f.HasDuration() || f.Duration().Choice() != gosnappi.FlowDurationChoice.FIXED_PACKETS {
		return 0, false
	}
	return uint64(f.Duration().FixedPackets().Packets()), true
}

// FlowFrameSize returns the frame size of a fixed size flow and false for
// flows of any other size.
func FlowFrameSize(f gosnappi.Flow) (uint64, bool) {
	if !f.HasSize() {
		// Unset sizes default to a fixed 64 bytes.
		return 64, true
	}
	if f.Size().Choice() != gosnappi.FlowSizeChoice.FIXED {
		return 0, false
	}
	return uint64(f.Size().Fixed()), true
}

// ExpectedFrames sums the packets of all flows. Every flow must send a fixed
// number of packets.
func ExpectedFrames(top gosnappi.Config) (uint64, error) {
	var total uint64
	for _, f := range top.Flows().Items() {
		n, ok := FlowPackets(f)
		if !ok {
			return 0, fmt.Errorf("flow %q does not send a fixed number of packets", f.Name())
		}
		total += n
	}
	return total, nil
}

// ExpectedBytes sums packets times frame size over all flows. Every flow must
// send a fixed number of fixed size packets.
func ExpectedBytes(top gosnappi.Config) (uint64, error) {
	var total uint64
	for _, f := range top.Flows().Items() {
		n, ok := FlowPackets(f)
		if !ok {
			return 0, fmt.Errorf("flow %q does not send a fixed number of packets", f.Name())
		}
		size, ok := FlowFrameSize(f)
		if !ok {
			return 0, fmt.Errorf("flow %q does not send fixed size frames", f.Name())
		}
		total += n * size
	}
	return total, nil
}

// FromJSON parses a configuration serialized as JSON.
func FromJSON(b []byte) (gosnappi.Config, error) {
	top := gosnappi.NewConfig()
	if err := top.Unmarshal().FromJson(string(b)); err != nil {
		return nil, err
	}
	return top, nil
}

// LoadJSON reads a configuration serialized as JSON.
func LoadJSON(path string) (gosnappi.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	top, err := FromJSON(b)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return top, nil
}

// RelocatePorts moves the ports of top, in order, to the configured ports.
func RelocatePorts(top gosnappi.Config, s *settings.Settings) error {
	for i, p := range top.Ports().Items() {
		loc, err := s.Port(i)
		if err != nil {
			return err
		}
		p.SetLocation(loc)
	}
	return nil
}

// ToJSON renders top the way it is sent to the controller.
func ToJSON(top gosnappi.Config) (string, error) {
	pb, err := top.Marshal().ToProto()
	if err != nil {
		return "", fmt.Errorf("marshalling config: %w", err)
	}
	b, err := prettyProtoMarshaller.Marshal(pb)
	if err != nil {
		return "", fmt.Errorf("marshalling config: %w", err)
	}
	return string(b), nil
}
