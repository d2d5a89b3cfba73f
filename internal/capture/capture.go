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

// Package capture decodes the PCAP captures returned by the controller and
// checks the headers of the captured frames.
//
// Checking that every frame sent by a flow was captured with the expected
// addresses:
//
//	frames, err := capture.Frames(pcapBytes)
//	if err != nil {
//		return err
//	}
//	matched, err := capture.Validate(frames, []capture.Expected{{
//		SrcMAC: "00:10:10:20:20:10",
//		DstMAC: "00:10:10:20:20:20",
//		SrcIP:  "10.1.1.1",
//		DstIP:  "10.1.1.2",
//		Size:   128,
//	}})
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/open-traffic-generator/snappi-tests/internal/iputil"
)

// Layer sizes used to pad built frames.
const (
	ethernetHeaderLen = 14
	ipv4HeaderLen     = 20
	ipv6HeaderLen     = 40
	tcpHeaderLen      = 20
	arpLen            = 28

	snapLen = 65536
)

// ErrNoFrames is returned when a check finds no frame to inspect.
var ErrNoFrames = errors.New("no matching frames captured")

// Frames returns the frames of a PCAP file in capture order.
func Frames(pcap []byte) ([][]byte, error) {
	r, err := pcapgo.NewReader(bytes.NewReader(pcap))
	if err != nil {
		return nil, fmt.Errorf("could not open pcap: %w", err)
	}
	var frames [][]byte
	for {
		data, _, err := r.ReadPacketData()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return nil, fmt.Errorf("could not read frame %d: %w", len(frames), err)
		}
		frames = append(frames, data)
	}
}

// Write encodes frames as an ethernet PCAP file.
func Write(frames [][]byte) ([]byte, error) {
	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	if err := w.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		return nil, err
	}
	ts := time.Unix(0, 0)
	for i, f := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     ts.Add(time.Duration(i) * time.Microsecond),
			CaptureLength: len(f),
			Length:        len(f),
		}
		if err := w.WritePacket(ci, f); err != nil {
			return nil, fmt.Errorf("could not write frame %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

func decode(frame []byte) gopacket.Packet {
	return gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
}

// CountMatching returns how many frames satisfy pred.
func CountMatching(frames [][]byte, pred func(gopacket.Packet) bool) int {
	n := 0
	for _, f := range frames {
		if pred(decode(f)) {
			n++
		}
	}
	return n
}

// ValidateTCPPorts checks that every TCP frame uses a source port from
// srcPorts and a destination port from dstPorts. It returns the number of
// TCP frames checked.
func ValidateTCPPorts(frames [][]byte, srcPorts, dstPorts []uint32) (int, error) {
	src, dst := portSet(srcPorts), portSet(dstPorts)
	n := 0
	for i, f := range frames {
		l := decode(f).Layer(layers.LayerTypeTCP)
		if l == nil {
			continue
		}
		tcp := l.(*layers.TCP)
		if !src[uint32(tcp.SrcPort)] {
			return n, fmt.Errorf("frame %d: TCP source port %d not in %v", i, tcp.SrcPort, srcPorts)
		}
		if !dst[uint32(tcp.DstPort)] {
			return n, fmt.Errorf("frame %d: TCP destination port %d not in %v", i, tcp.DstPort, dstPorts)
		}
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("TCP ports: %w", ErrNoFrames)
	}
	return n, nil
}

func portSet(ports []uint32) map[uint32]bool {
	set := make(map[uint32]bool, len(ports))
	for _, p := range ports {
		set[p] = true
	}
	return set
}

// ValidateIPv4 checks the addresses of every IPv4 frame. It returns the
// number of IPv4 frames checked.
func ValidateIPv4(frames [][]byte, src, dst string) (int, error) {
	wantSrc, wantDst := net.ParseIP(src), net.ParseIP(dst)
	n := 0
	for i, f := range frames {
		p := decode(f)
		l := p.Layer(layers.LayerTypeIPv4)
		if l == nil || p.ErrorLayer() != nil {
			continue
		}
		ip := l.(*layers.IPv4)
		// Runts and other frames that only claim to carry IPv4.
		if ip.Version != 4 {
			continue
		}
		if !ip.SrcIP.Equal(wantSrc) {
			return n, fmt.Errorf("frame %d: IPv4 source %s, want %s", i, ip.SrcIP, src)
		}
		if !ip.DstIP.Equal(wantDst) {
			return n, fmt.Errorf("frame %d: IPv4 destination %s, want %s", i, ip.DstIP, dst)
		}
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("IPv4: %w", ErrNoFrames)
	}
	return n, nil
}

// Expected holds the header values of the frames of one flow. Empty
// addresses and zero ports or size are not checked. IP addresses may be
// IPv4 or IPv6.
type Expected struct {
	SrcMAC  string
	DstMAC  string
	SrcIP   string
	DstIP   string
	SrcPort uint16
	DstPort uint16
	Size    int
}

// Validate matches each frame to the entry of want with the same destination
// MAC and checks the rest of its headers. Frames matching no entry, such as
// ARP or neighbor discovery, are skipped. It returns the number of frames
// matched.
func Validate(frames [][]byte, want []Expected) (int, error) {
	byDst := map[string]*Expected{}
	for i := range want {
		mac, err := net.ParseMAC(want[i].DstMAC)
		if err != nil {
			return 0, fmt.Errorf("bad destination MAC %q: %w", want[i].DstMAC, err)
		}
		byDst[mac.String()] = &want[i]
	}

	matched := 0
	for i, f := range frames {
		p := decode(f)
		l := p.Layer(layers.LayerTypeEthernet)
		if l == nil {
			continue
		}
		eth := l.(*layers.Ethernet)
		e, ok := byDst[eth.DstMAC.String()]
		if !ok {
			continue
		}
		if err := e.check(p, eth, len(f)); err != nil {
			return matched, fmt.Errorf("frame %d: %w", i, err)
		}
		matched++
	}
	return matched, nil
}

func (e *Expected) check(p gopacket.Packet, eth *layers.Ethernet, size int) error {
	if e.SrcMAC != "" {
		mac, err := net.ParseMAC(e.SrcMAC)
		if err != nil {
			return fmt.Errorf("bad source MAC %q: %w", e.SrcMAC, err)
		}
		if !bytes.Equal(eth.SrcMAC, mac) {
			return fmt.Errorf("source MAC %s, want %s", eth.SrcMAC, mac)
		}
	}
	if e.Size != 0 && size != e.Size {
		return fmt.Errorf("size %d, want %d", size, e.Size)
	}

	var src, dst net.IP
	switch {
	case p.Layer(layers.LayerTypeIPv4) != nil:
		ip := p.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
		src, dst = ip.SrcIP, ip.DstIP
	case p.Layer(layers.LayerTypeIPv6) != nil:
		ip := p.Layer(layers.LayerTypeIPv6).(*layers.IPv6)
		src, dst = ip.SrcIP, ip.DstIP
	}
	if e.SrcIP != "" && !src.Equal(net.ParseIP(e.SrcIP)) {
		return fmt.Errorf("source IP %v, want %s", src, e.SrcIP)
	}
	if e.DstIP != "" && !dst.Equal(net.ParseIP(e.DstIP)) {
		return fmt.Errorf("destination IP %v, want %s", dst, e.DstIP)
	}

	if e.SrcPort == 0 && e.DstPort == 0 {
		return nil
	}
	l := p.Layer(layers.LayerTypeTCP)
	if l == nil {
		return errors.New("no TCP header")
	}
	tcp := l.(*layers.TCP)
	if e.SrcPort != 0 && uint16(tcp.SrcPort) != e.SrcPort {
		return fmt.Errorf("TCP source port %d, want %d", tcp.SrcPort, e.SrcPort)
	}
	if e.DstPort != 0 && uint16(tcp.DstPort) != e.DstPort {
		return fmt.Errorf("TCP destination port %d, want %d", tcp.DstPort, e.DstPort)
	}
	return nil
}

// BuildFrame serializes an ethernet frame carrying the headers of e, padded
// with zeros up to e.Size. The IP header is IPv6 when e.SrcIP is an IPv6
// address. A TCP header is added when ports are set and e.SrcIP is not empty.
// Without e.SrcIP the frame is an ARP request from e.SrcMAC.
func BuildFrame(e Expected) ([]byte, error) {
	src, err := net.ParseMAC(e.SrcMAC)
	if err != nil {
		return nil, fmt.Errorf("bad source MAC %q: %w", e.SrcMAC, err)
	}
	dst, err := net.ParseMAC(e.DstMAC)
	if err != nil {
		return nil, fmt.Errorf("bad destination MAC %q: %w", e.DstMAC, err)
	}
	eth := &layers.Ethernet{SrcMAC: src, DstMAC: dst}
	stack := []gopacket.SerializableLayer{eth}
	headerLen := ethernetHeaderLen

	var network gopacket.NetworkLayer
	srcIP, dstIP := net.ParseIP(e.SrcIP), net.ParseIP(e.DstIP)
	withTCP := e.SrcPort != 0 || e.DstPort != 0
	switch {
	case srcIP == nil:
		eth.EthernetType = layers.EthernetTypeARP
		stack = append(stack, &layers.ARP{
			AddrType:          layers.LinkTypeEthernet,
			Protocol:          layers.EthernetTypeIPv4,
			HwAddressSize:     6,
			ProtAddressSize:   4,
			Operation:         layers.ARPRequest,
			SourceHwAddress:   src,
			SourceProtAddress: net.IPv4zero.To4(),
			DstHwAddress:      make([]byte, 6),
			DstProtAddress:    net.IPv4zero.To4(),
		})
		headerLen += arpLen
		withTCP = false
	case srcIP.To4() != nil:
		eth.EthernetType = layers.EthernetTypeIPv4
		ip := &layers.IPv4{Version: 4, IHL: 5, TTL: 64, Protocol: layers.IPProtocolNoNextHeader, SrcIP: srcIP.To4(), DstIP: dstIP.To4()}
		if withTCP {
			ip.Protocol = layers.IPProtocolTCP
		}
		stack, network = append(stack, ip), ip
		headerLen += ipv4HeaderLen
	default:
		eth.EthernetType = layers.EthernetTypeIPv6
		ip := &layers.IPv6{Version: 6, HopLimit: 64, NextHeader: layers.IPProtocolNoNextHeader, SrcIP: srcIP, DstIP: dstIP}
		if withTCP {
			ip.NextHeader = layers.IPProtocolTCP
		}
		stack, network = append(stack, ip), ip
		headerLen += ipv6HeaderLen
	}
	if withTCP {
		tcp := &layers.TCP{SrcPort: layers.TCPPort(e.SrcPort), DstPort: layers.TCPPort(e.DstPort), Window: 1024}
		if err := tcp.SetNetworkLayerForChecksum(network); err != nil {
			return nil, err
		}
		stack = append(stack, tcp)
		headerLen += tcpHeaderLen
	}
	if pad := e.Size - headerLen; pad > 0 {
		stack = append(stack, gopacket.Payload(make([]byte, pad)))
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, stack...); err != nil {
		return nil, fmt.Errorf("could not serialize frame: %w", err)
	}
	return buf.Bytes(), nil
}

// Describe returns a one line summary of the layers of frame.
func Describe(frame []byte) string {
	var names []string
	for _, l := range decode(frame).Layers() {
		names = append(names, l.LayerType().String())
	}
	if len(frame) < ethernetHeaderLen {
		return fmt.Sprintf("%d bytes %v", len(frame), names)
	}
	return fmt.Sprintf("%d bytes %v ethertype %s", len(frame), names, iputil.ToHex(frame[12:14]))
}
