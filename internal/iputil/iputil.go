// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package iputil converts MAC and IPv4 addresses to and from numbers and
// expands the counter patterns used in flow headers.
package iputil

import (
	"encoding/binary"
	"fmt"
	"net"
	"strings"
)

const macMax = 1<<48 - 1

// MACToNum returns the numeric value of a MAC address.
func MACToNum(mac string) (uint64, error) {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return 0, err
	}
	if len(hw) != 6 {
		return 0, fmt.Errorf("%q is not a 48-bit MAC address", mac)
	}
	return binary.BigEndian.Uint64(append([]byte{0, 0}, hw...)), nil
}

// NumToMAC formats the low 48 bits of n as a MAC address.
func NumToMAC(n uint64) string {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n&macMax)
	return net.HardwareAddr(b[2:]).String()
}

// IPToNum returns the numeric value of an IPv4 address.
func IPToNum(ip string) (uint32, error) {
	v4 := net.ParseIP(ip).To4()
	if v4 == nil {
		return 0, fmt.Errorf("%q is not an IPv4 address", ip)
	}
	return binary.BigEndian.Uint32(v4), nil
}

// NumToIP formats n as an IPv4 address.
func NumToIP(n uint32) string {
	b := make(net.IP, 4)
	binary.BigEndian.PutUint32(b, n)
	return b.String()
}

// CounterPattern expands a header counter into the count addresses it
// produces, starting at start and moving by step up or down. Addresses are
// MACs when mac is set and IPv4 addresses otherwise. Values wrap around the
// address width.
func CounterPattern(start, step string, count int, up, mac bool) ([]string, error) {
	if mac {
		s, err := MACToNum(start)
		if err != nil {
			return nil, err
		}
		st, err := MACToNum(step)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, count)
		for range count {
			out = append(out, NumToMAC(s))
			if up {
				s = (s + st) & macMax
			} else {
				s = (s - st) & macMax
			}
		}
		return out, nil
	}
	s, err := IPToNum(start)
	if err != nil {
		return nil, err
	}
	st, err := IPToNum(step)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, count)
	for range count {
		out = append(out, NumToIP(s))
		if up {
			s += st
		} else {
			s -= st
		}
	}
	return out, nil
}

// ToHex renders captured bytes as one big-endian hex number, as in 0xbb8
// for {0x0b, 0xb8}.
func ToHex(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		fmt.Fprintf(&sb, "%02x", c)
	}
	s := strings.TrimLeft(sb.String(), "0")
	if s == "" {
		s = "0"
	}
	return "0x" + s
}
