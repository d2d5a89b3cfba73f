// Copyright © 2024 Google LLC
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

// Program snappitest runs the traffic scenarios of the suite against a
// controller and reports their outcome.
//
// Usage:
//
//	snappitest run [scenario...] --report=report.yaml
//	snappitest list
//	snappitest stats --watch=2s
//	snappitest export --listen=:9100
//	snappitest config show configs/list_tcp_ports.json
package main

import (
	"os"

	log "github.com/golang/glog"
	"github.com/open-traffic-generator/snappi-tests/tools/snappitest/cmd"
)

func main() {
	defer log.Flush()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
