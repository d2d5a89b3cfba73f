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

// InterfaceProperties is a struct to hold the addresses of an emulated
// interface. Name is used as a prefix of the ethernet and IP names.
type InterfaceProperties struct {
	Name        string
	PortName    string
	VxlanName   string
	MAC         string
	IPv4        string
	IPv4Gateway string
	IPv4Len     uint32
	IPv6        string
	IPv6Gateway string
	IPv6Len     uint32
}

// EthName returns the name of the ethernet interface of i.
func (i *InterfaceProperties) EthName() string { return i.Name + "_eth" }

// IPv4Name returns the name of the IPv4 address of i.
func (i *InterfaceProperties) IPv4Name() string { return i.Name + "_ipv4" }

// IPv6Name returns the name of the IPv6 address of i.
func (i *InterfaceProperties) IPv6Name() string { return i.Name + "_ipv6" }

// ConfigureInterface adds a device with one ethernet interface connected to
// intf.PortName, or to the tunnel intf.VxlanName, and the addresses of intf.
func ConfigureInterface(top gosnappi.Config, devName string, intf *InterfaceProperties) gosnappi.Device {
	dev := top.Devices().Add().SetName(devName)
	eth := dev.Ethernets().Add().SetName(intf.EthName()).SetMac(intf.MAC)
	if intf.VxlanName != "" {
		eth.Connection().SetVxlanName(intf.VxlanName)
	} else {
		eth.Connection().SetPortName(intf.PortName)
	}
	if intf.IPv4 != "" {
		eth.Ipv4Addresses().Add().SetName(intf.IPv4Name()).
			SetAddress(intf.IPv4).SetGateway(intf.IPv4Gateway).SetPrefix(intf.IPv4Len)
	}
	if intf.IPv6 != "" {
		eth.Ipv6Addresses().Add().SetName(intf.IPv6Name()).
			SetAddress(intf.IPv6).SetGateway(intf.IPv6Gateway).SetPrefix(intf.IPv6Len)
	}
	return dev
}

// BGPPeerAttrs defines attributes for a BGP peer.
type BGPPeerAttrs struct {
	Name        string
	RouterID    string
	IPv4Name    string
	PeerAddress string
	ASNumber    uint32
	ASType      gosnappi.BgpV4PeerAsTypeEnum
}

// BGPPeerOption is a function to set BGPPeerAttrs options.
type BGPPeerOption func(*BGPPeerAttrs)

// WithIBGP makes the peer an internal peer.
func WithIBGP() BGPPeerOption {
	return func(attrs *BGPPeerAttrs) {
		attrs.ASType = gosnappi.BgpV4PeerAsType.IBGP
	}
}

// WithASNumber sets the AS number of the peer.
func WithASNumber(as uint32) BGPPeerOption {
	return func(attrs *BGPPeerAttrs) {
		attrs.ASNumber = as
	}
}

// AddBGPV4Peer adds a BGPv4 peer on the IPv4 interface ipv4Name of dev. The
// peer is external with AS 65200 unless options say otherwise.
func AddBGPV4Peer(dev gosnappi.Device, name, ipv4Name, routerID, peerAddress string, opts ...BGPPeerOption) gosnappi.BgpV4Peer {
	attrs := &BGPPeerAttrs{
		Name:        name,
		RouterID:    routerID,
		IPv4Name:    ipv4Name,
		PeerAddress: peerAddress,
		ASNumber:    65200,
		ASType:      gosnappi.BgpV4PeerAsType.EBGP,
	}
	for _, opt := range opts {
		opt(attrs)
	}
	bgp := dev.Bgp().SetRouterId(attrs.RouterID)
	return bgp.Ipv4Interfaces().Add().SetIpv4Name(attrs.IPv4Name).Peers().Add().
		SetName(attrs.Name).
		SetPeerAddress(attrs.PeerAddress).
		SetAsNumber(attrs.ASNumber).
		SetAsType(attrs.ASType)
}

// AddV4Routes advertises count consecutive prefixes starting at address.
func AddV4Routes(peer gosnappi.BgpV4Peer, name, address string, prefix, count uint32) gosnappi.BgpV4RouteRange {
	rr := peer.V4Routes().Add().SetName(name)
	rr.Addresses().Add().SetAddress(address).SetPrefix(prefix).SetCount(count)
	return rr
}

// AddVxlanV4Tunnel adds a VXLAN tunnel sourced at the IPv4 interface ipv4Name
// of dev, flooding to the multicast group.
func AddVxlanV4Tunnel(dev gosnappi.Device, name, ipv4Name string, vni uint32, multicast string) {
	tunnel := dev.Vxlan().V4Tunnels().Add().
		SetName(name).
		SetVni(vni).
		SetSourceInterface(ipv4Name)
	tunnel.DestinationIpMode().Multicast().SetAddress(multicast)
}
