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
	"flag"
	"os"
	"path/filepath"
	"strings"
)

var outputsDir = flag.String("outputs_dir", "", "Directory for test outputs, defaults to $TEST_UNDECLARED_OUTPUTS_DIR or the temp dir.")

// sanitizeFilename keeps the characters safe in a file name, turning
// spaces and slashes into underscores and dropping the rest.
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case strings.ContainsRune("+,-.:;=^|~()<>[]{}", r):
			return r
		case r == ' ', r == '/', r == '_':
			return '_'
		}
		return -1
	}, name)
}

func outputDir() string {
	if *outputsDir != "" {
		return *outputsDir
	}
	if dir := os.Getenv("TEST_UNDECLARED_OUTPUTS_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

// WriteOutput writes content to a file named after the test with the given
// suffix and returns its path.
func WriteOutput(testName, suffix, content string) (string, error) {
	dir := outputDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, sanitizeFilename(testName)+suffix)
	return path, os.WriteFile(path, []byte(content), 0o644)
}
