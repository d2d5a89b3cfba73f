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

	"github.com/open-traffic-generator/snappi-tests/internal/otgconfig"
	"github.com/spf13/cobra"
)

// configCmd groups the commands working on JSON configurations.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect JSON traffic configurations",
}

var configShowCmd = &cobra.Command{
	Use:   "show <file.json>...",
	Short: "Print configurations in their canonical JSON form",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			top, err := otgconfig.LoadJSON(path)
			if err != nil {
				return err
			}
			s, err := otgconfig.ToJSON(top)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

var configTotalsCmd = &cobra.Command{
	Use:   "totals <file.json>...",
	Short: "Print the frames and bytes the flows of configurations send",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			top, err := otgconfig.LoadJSON(path)
			if err != nil {
				return err
			}
			frames, err := otgconfig.ExpectedFrames(top)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			bytes, err := otgconfig.ExpectedBytes(top)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames, %d bytes\n", path, frames, bytes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configTotalsCmd)
}
