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
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/open-traffic-generator/snappi-tests/internal/exporter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Serve the controller metrics to Prometheus",
	Long: `Read the port and flow metrics of the controller every interval_seconds
and serve them on /metrics until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		sess, err := dial(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		e := exporter.New(viper.GetString("listen"))
		if err := e.Start(); err != nil {
			return err
		}
		defer e.Stop()
		if err := e.Poll(ctx, sess, runSettings.Interval()); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("listen", "l", exporter.DefaultAddr, "Address to serve the metrics on.")
	viper.BindPFlag("listen", exportCmd.Flags().Lookup("listen"))
}
