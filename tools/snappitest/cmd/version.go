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

package cmd

import (
	"fmt"

	"github.com/open-traffic-generator/snappi-tests/internal/rundata"
	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build and git details of the binary",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		props := rundata.Properties(nil)
		for _, k := range []string{"build.main.path", "build.main.version", "build.go_version", "git.commit", "git.clean"} {
			if v, ok := props[k]; ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", k, v)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
