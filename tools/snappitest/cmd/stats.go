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
	"os"
	"os/signal"
	"time"

	"github.com/open-traffic-generator/snappi-tests/internal/otgutils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the port and flow metrics of the controller",
	Long: `Print the port and flow metrics of the controller once, or every
--watch interval until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		sess, err := dial(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		watch := viper.GetDuration("watch")
		for {
			ports, flows, err := sess.AllStats(false)
			if err != nil {
				return err
			}
			if runSettings.DynamicStatsOutput && watch > 0 {
				otgutils.ClearScreen()
			}
			fmt.Fprint(cmd.OutOrStdout(), otgutils.FormatMetricsTable(&otgutils.MetricsTableOpts{PortMetrics: ports, FlowMetrics: flows}))
			if watch <= 0 {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(watch):
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().DurationP("watch", "w", 0, "Print the metrics again at this interval until interrupted.")
	viper.BindPFlag("watch", statsCmd.Flags().Lookup("watch"))
}
