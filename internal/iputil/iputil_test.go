package iputil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNumConversions(t *testing.T) {
	n, err := MACToNum("00:0C:29:E3:53:EA")
	if err != nil {
		t.Fatalf("MACToNum() unexpected error: %v", err)
	}
	if n != 52242371562 {
		t.Errorf("MACToNum() got %d, want 52242371562", n)
	}
	if got, want := NumToMAC(52242371562), "00:0c:29:e3:53:ea"; got != want {
		t.Errorf("NumToMAC() got %q, want %q", got, want)
	}
	ip, err := IPToNum("10.1.1.1")
	if err != nil {
		t.Fatalf("IPToNum() unexpected error: %v", err)
	}
	if ip != 167837953 {
		t.Errorf("IPToNum() got %d, want 167837953", ip)
	}
	if got, want := NumToIP(167837953), "10.1.1.1"; got != want {
		t.Errorf("NumToIP() got %q, want %q", got, want)
	}
	if _, err := IPToNum("2001:db8::1"); err == nil {
		t.Error("IPToNum(IPv6) got nil error, want error")
	}
}

func TestCounterPattern(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		step    string
		count   int
		up      bool
		mac     bool
		want    []string
		wantErr bool
	}{{
		name:  "MAC up",
		start: "00:0c:29:e3:53:ea",
		step:  "00:00:00:00:01:00",
		count: 2,
		up:    true,
		mac:   true,
		want:  []string{"00:0c:29:e3:53:ea", "00:0c:29:e3:54:ea"},
	}, {
		name:  "IPv4 up",
		start: "10.1.1.1",
		step:  "0.0.1.1",
		count: 2,
		up:    true,
		want:  []string{"10.1.1.1", "10.1.2.2"},
	}, {
		name:  "IPv4 down",
		start: "10.1.2.2",
		step:  "0.0.1.1",
		count: 3,
		want:  []string{"10.1.2.2", "10.1.1.1", "10.1.0.0"},
	}, {
		name:  "MAC wraps",
		start: "ff:ff:ff:ff:ff:ff",
		step:  "00:00:00:00:00:01",
		count: 2,
		up:    true,
		mac:   true,
		want:  []string{"ff:ff:ff:ff:ff:ff", "00:00:00:00:00:00"},
	}, {
		name:    "bad start",
		start:   "not-an-ip",
		step:    "0.0.0.1",
		count:   1,
		wantErr: true,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CounterPattern(tt.start, tt.step, tt.count, tt.up, tt.mac)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CounterPattern() got error %v, want error %t", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CounterPattern() returned diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToHex(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{in: []byte{11, 184}, want: "0xbb8"},
		{in: []byte{0, 30}, want: "0x1e"},
		{in: []byte{0, 0}, want: "0x0"},
	}
	for _, tt := range tests {
		if got := ToHex(tt.in); got != tt.want {
			t.Errorf("ToHex(%v) got %q, want %q", tt.in, got, tt.want)
		}
	}
}
