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
	"time"

	log "github.com/golang/glog"
	"github.com/open-traffic-generator/snappi-tests/internal/exporter"
	"github.com/open-traffic-generator/snappi-tests/internal/report"
	"github.com/open-traffic-generator/snappi-tests/internal/rundata"
	"github.com/open-traffic-generator/snappi-tests/internal/scenarios"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var timeNow = time.Now

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [scenario...]",
	Short: "Run traffic scenarios",
	Long: `Run the named scenarios in order, or every scenario when none is named.
A scenario needing more ports than configured fails without running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		selected, err := scenarios.Select(args...)
		if err != nil {
			return err
		}
		sess, err := dial(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		if addr := viper.GetString("metrics-listen"); addr != "" {
			e := exporter.New(addr)
			if err := e.Start(); err != nil {
				return err
			}
			defer e.Stop()
			sess.SetRecorder(e)
		}

		r := report.New(rundata.Properties(runSettings))
		for _, sc := range selected {
			if n := len(runSettings.Ports); n < sc.Ports {
				r.Add(sc.Name, 0, fmt.Errorf("needs %d ports, %d configured", sc.Ports, n))
				continue
			}
			log.Infof("Running %s: %s", sc.Name, sc.Description)
			start := timeNow()
			err := sc.Run(sess)
			r.Add(sc.Name, timeNow().Sub(start), err)
		}

		if path := viper.GetString("report"); path != "" {
			if err := r.Write(path); err != nil {
				return err
			}
		}
		for _, res := range r.Failed() {
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %s\n", res.Name, res.Error)
		}
		fmt.Fprintln(cmd.OutOrStdout(), r.Summary())
		if failed := len(r.Failed()); failed > 0 {
			return fmt.Errorf("%d of %d scenarios failed", failed, len(r.Results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("report", "r", "", "Write the YAML report of the run to this file.")
	viper.BindPFlag("report", runCmd.Flags().Lookup("report"))
	runCmd.Flags().String("metrics-listen", "", "Serve the metrics read during the run on this address.")
	viper.BindPFlag("metrics-listen", runCmd.Flags().Lookup("metrics-listen"))
}
