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

// Package cmd holds the commands of snappitest.
package cmd

import (
	"context"
	"flag"

	"github.com/open-traffic-generator/snappi-tests/internal/otgsession"
	"github.com/open-traffic-generator/snappi-tests/internal/settings"
	"github.com/spf13/cobra"
)

var (
	// dialFn is replaced in tests.
	dialFn = otgsession.Dial

	runSettings *settings.Settings
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "snappitest",
	Short: "Run snappi traffic scenarios against a controller",
	Long: `snappitest pushes traffic configurations to an Open Traffic Generator
controller, runs traffic and checks the resulting port and flow metrics.

Settings are read from settings.json, the file named by SETTINGS_FILE,
SNAPPI_<KEY> environment variables and the flags below, in that order.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Marks the glog flags as parsed; pflag already set their values.
		if err := flag.CommandLine.Parse(nil); err != nil {
			return err
		}
		s, err := settings.Load(cmd.Root().PersistentFlags())
		if err != nil {
			return err
		}
		runSettings = s
		return nil
	},
}

// Execute runs the command named by the process arguments.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	settings.RegisterFlags(rootCmd.PersistentFlags())
	// glog and rundata flags.
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

// dial connects to the controller of the loaded settings.
func dial(ctx context.Context) (*otgsession.Session, error) {
	if err := runSettings.Validate(); err != nil {
		return nil, err
	}
	return dialFn(ctx, runSettings)
}
