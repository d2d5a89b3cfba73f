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

// Package scenarios holds the traffic test scenarios of the suite. Each
// scenario configures the controller of a session, runs traffic and checks
// the resulting metrics and captures.
package scenarios

import (
	"fmt"
	"slices"
	"sort"

	"github.com/open-traffic-generator/snappi-tests/internal/otgsession"
)

// Scenario is a named traffic test.
type Scenario struct {
	Name        string
	Description string
	// Ports is the number of test ports the scenario needs.
	Ports int
	Run   func(s *otgsession.Session) error
}

var registry = map[string]Scenario{}

func register(sc Scenario) {
	if _, ok := registry[sc.Name]; ok {
		panic(fmt.Sprintf("scenario %q registered twice", sc.Name))
	}
	registry[sc.Name] = sc
}

// All returns the registered scenarios sorted by name.
func All() []Scenario {
	var out []Scenario
	for _, sc := range registry {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the names of the registered scenarios, sorted.
func Names() []string {
	var names []string
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the scenario with the given name.
func Lookup(name string) (Scenario, error) {
	sc, ok := registry[name]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario %q, want one of %v", name, Names())
	}
	return sc, nil
}

// Select returns the named scenarios in order, or all of them when no
// names are given.
func Select(names ...string) ([]Scenario, error) {
	if len(names) == 0 {
		return All(), nil
	}
	var out []Scenario
	for _, n := range names {
		sc, err := Lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}
