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

package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/open-traffic-generator/snappi-tests/internal/otgutils"
)

func fixedNow(t *testing.T) time.Time {
	t.Helper()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = time.Now })
	return now
}

func TestAdd(t *testing.T) {
	r := New(nil)
	r.Add("tcp_bidir_flows", 1500*time.Millisecond, nil)
	r.Add("vxlan", 10*time.Second, fmt.Errorf("vxlan: %w", &otgutils.WaitError{Kind: otgutils.ErrTimedOut, Condition: "stats"}))
	r.Add("pfc_pause_e2e", time.Second, &otgutils.WaitError{Kind: otgutils.ErrAborted, Condition: "stats", Err: errors.New("boom")})
	r.Add("load_json_config", 0, errors.New("bad config"))

	want := []Result{
		{Name: "tcp_bidir_flows", Passed: true, ElapsedSeconds: 1.5},
		{Name: "vxlan", Failure: "timed_out", Error: "vxlan: timeout occurred while waiting for stats (0s elapsed)", ElapsedSeconds: 10},
		{Name: "pfc_pause_e2e", Failure: "aborted", Error: "wait aborted for stats: boom", ElapsedSeconds: 1},
		{Name: "load_json_config", Failure: "error", Error: "bad config"},
	}
	if diff := cmp.Diff(want, r.Results); diff != "" {
		t.Errorf("Results diff (-want +got):\n%s", diff)
	}
	if got := len(r.Failed()); got != 3 {
		t.Errorf("Failed() returned %d results, want 3", got)
	}
	if got, want := r.Summary(), "1 passed, 3 failed"; !strings.HasSuffix(got, want) {
		t.Errorf("Summary() = %q, want suffix %q", got, want)
	}
}

func TestNew(t *testing.T) {
	now := fixedNow(t)
	props := map[string]string{"topology": "p1,p2"}
	r := New(props)
	if r.RunID == uuid.Nil {
		t.Error("New() left RunID unset")
	}
	if !r.Started.Equal(now) {
		t.Errorf("New() Started = %v, want %v", r.Started, now)
	}
	if other := New(props); other.RunID == r.RunID {
		t.Errorf("two reports share RunID %v", r.RunID)
	}
}

func TestWriteRead(t *testing.T) {
	fixedNow(t)
	r := New(map[string]string{"controller.location": "localhost:40051"})
	r.Add("route_withdraw", 2*time.Second, nil)
	r.Add("vxlan", time.Second, errors.New("no route"))

	path := filepath.Join(t.TempDir(), "report.yaml")
	if err := r.Write(path); err != nil {
		t.Fatalf("Write() unexpected error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"run_id: " + r.RunID.String(), "name: route_withdraw", "failure: error"} {
		if !strings.Contains(string(b), want) {
			t.Errorf("report does not contain %q:\n%s", want, b)
		}
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() unexpected error: %v", err)
	}
	if diff := cmp.Diff(r, got); diff != "" {
		t.Errorf("Read() diff (-want +got):\n%s", diff)
	}
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("results: {"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{filepath.Join(dir, "missing.yaml"), bad} {
		if _, err := Read(path); err == nil {
			t.Errorf("Read(%s) got nil error, want error", path)
		}
	}
}
