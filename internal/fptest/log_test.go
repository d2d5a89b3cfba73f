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

package fptest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	kept := "ABC+,-.:;=^|~xyz()<>[]{}123"
	underscored := " /_"
	dropped := "!@#$%&*"
	arg := kept + underscored + dropped
	want := kept + "___"

	if got := sanitizeFilename(arg); got != want {
		t.Errorf("sanitizeFilename(%q) got %q, want %q", arg, got, want)
	}
}

func TestWriteOutput(t *testing.T) {
	*outputsDir = t.TempDir()
	defer func() { *outputsDir = "" }()

	path, err := WriteOutput("TestWriteOutput/sub test", ".json", "{}")
	if err != nil {
		t.Fatalf("WriteOutput got error: %v", err)
	}
	if got, want := filepath.Base(path), "TestWriteOutput_sub_test.json"; got != want {
		t.Errorf("WriteOutput wrote %s, want %s", got, want)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "{}" {
		t.Errorf("WriteOutput content %q, want %q", b, "{}")
	}
	if !strings.HasPrefix(path, *outputsDir) {
		t.Errorf("WriteOutput path %s is not under %s", path, *outputsDir)
	}
}
