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

package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("os.WriteFile() unexpected error: %v", err)
	}
	return path
}

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v) unexpected error: %v", args, err)
	}
	return fs
}

const fileContent = `{
  "location": "otg.example.com:40051",
  "ports": ["10.0.0.1;1;1", "10.0.0.1;1;2"],
  "speed": "speed_100_gbps",
  "timeout_seconds": 10,
  "interval_seconds": 0.25,
  "dynamic_stats_output": true
}`

func TestLoad(t *testing.T) {
	t.Setenv(EnvFile, "")
	file := writeFile(t, fileContent)

	tests := []struct {
		desc string
		args []string
		env  map[string]string
		want *Settings
	}{{
		desc: "file only",
		args: []string{"--settings", file},
		want: &Settings{
			Location:           "otg.example.com:40051",
			Transport:          TransportGRPC,
			Ports:              []string{"10.0.0.1;1;1", "10.0.0.1;1;2"},
			Speed:              "speed_100_gbps",
			TimeoutSeconds:     10,
			IntervalSeconds:    0.25,
			LogLevel:           "info",
			DynamicStatsOutput: true,
			LicenseServers:     []string{},
			Promiscuous:        true,
		},
	}, {
		desc: "flags override file",
		args: []string{"--settings", file, "--ports", "p1 p2  p3", "--timeout_seconds", "5", "--license_servers", "ls1 ls2"},
		want: &Settings{
			Location:           "otg.example.com:40051",
			Transport:          TransportGRPC,
			Ports:              []string{"p1", "p2", "p3"},
			Speed:              "speed_100_gbps",
			TimeoutSeconds:     5,
			IntervalSeconds:    0.25,
			LogLevel:           "info",
			DynamicStatsOutput: true,
			LicenseServers:     []string{"ls1", "ls2"},
			Promiscuous:        true,
		},
	}, {
		desc: "environment overrides file",
		args: []string{"--settings", file},
		env:  map[string]string{"SNAPPI_LOCATION": "https://otg:8443", "SNAPPI_TRANSPORT": "http"},
		want: &Settings{
			Location:           "https://otg:8443",
			Transport:          TransportHTTP,
			Ports:              []string{"10.0.0.1;1;1", "10.0.0.1;1;2"},
			Speed:              "speed_100_gbps",
			TimeoutSeconds:     10,
			IntervalSeconds:    0.25,
			LogLevel:           "info",
			DynamicStatsOutput: true,
			LicenseServers:     []string{},
			Promiscuous:        true,
		},
	}}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			got, err := Load(flags(t, tc.args...))
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Load() returned diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadSettingsFileEnv(t *testing.T) {
	base := writeFile(t, fileContent)
	custom := writeFile(t, `{"location": "custom:40051", "ports": ["a", "b"]}`)
	t.Setenv(EnvFile, custom)

	got, err := Load(flags(t, "--settings", base))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if got.Location != "custom:40051" {
		t.Errorf("Load() got location %q, want custom:40051", got.Location)
	}
	// The custom file replaces the base file instead of merging with it.
	if got.Speed != "speed_1_gbps" {
		t.Errorf("Load() got speed %q, want default speed_1_gbps", got.Speed)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvFile, "")
	t.Chdir(t.TempDir())
	got, err := Load(nil)
	if err != nil {
		t.Fatalf("Load(nil) unexpected error: %v", err)
	}
	if got.Timeout() != 30*time.Second || got.Interval() != 500*time.Millisecond {
		t.Errorf("Load(nil) got timeout %v interval %v, want 30s and 500ms", got.Timeout(), got.Interval())
	}
	if got.Speed != "speed_1_gbps" {
		t.Errorf("Load(nil) got speed %q, want speed_1_gbps", got.Speed)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv(EnvFile, "")
	if _, err := Load(flags(t, "--settings", filepath.Join(t.TempDir(), "missing.json"))); err == nil {
		t.Error("Load() with a missing settings file got nil error, want error")
	}
}

func TestValidate(t *testing.T) {
	valid := Settings{Location: "otg:40051", Transport: TransportGRPC, Ports: []string{"p1"}, IntervalSeconds: 0.5, TimeoutSeconds: 30}
	tests := []struct {
		desc    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{desc: "valid", mutate: func(*Settings) {}},
		{desc: "no ports", mutate: func(s *Settings) { s.Ports = nil }, wantErr: true},
		{desc: "no location", mutate: func(s *Settings) { s.Location = "" }, wantErr: true},
		{desc: "bad transport", mutate: func(s *Settings) { s.Transport = "smtp" }, wantErr: true},
		{desc: "zero interval", mutate: func(s *Settings) { s.IntervalSeconds = 0 }, wantErr: true},
		{desc: "zero timeout", mutate: func(s *Settings) { s.TimeoutSeconds = 0 }},
		{desc: "negative timeout", mutate: func(s *Settings) { s.TimeoutSeconds = -1 }, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			s := valid
			s.Ports = append([]string(nil), valid.Ports...)
			tc.mutate(&s)
			if err := s.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() got error %v, want error %t", err, tc.wantErr)
			}
		})
	}
	s := valid
	s.Ports = nil
	if err := s.Validate(); !errors.Is(err, ErrNoPorts) {
		t.Errorf("Validate() got %v, want ErrNoPorts", err)
	}
}

func TestWaitForOpts(t *testing.T) {
	s := &Settings{TimeoutSeconds: 2, IntervalSeconds: 0.1}
	opts := s.WaitForOpts("flows to stop")
	if opts.Condition != "flows to stop" || opts.Timeout != 2*time.Second || opts.Interval != 100*time.Millisecond {
		t.Errorf("WaitForOpts() got %+v", opts)
	}
	if _, err := s.Port(0); err == nil {
		t.Error("Port(0) with no ports got nil error, want error")
	}
}
