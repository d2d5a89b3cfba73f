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

package otgutils

import (
	"fmt"
	"strings"
	"testing"

	log "github.com/golang/glog"
	"github.com/open-traffic-generator/snappi/gosnappi"
)

// Struct used for printing OTG stats
type MetricsTableOpts struct {
	ClearPrevious bool
	PortMetrics   []MetricSample
	FlowMetrics   []MetricSample
	Bgpv4Metrics  gosnappi.MetricsResponseBgpv4MetricIter
}

// FormatMetricsTable renders the metrics in opts as text tables.
func FormatMetricsTable(opts *MetricsTableOpts) string {
	if opts == nil {
		return ""
	}
	var out strings.Builder
	out.WriteString("\n")

	if opts.Bgpv4Metrics != nil {
		border := strings.Repeat("-", 20*9+5)
		out.WriteString("\nBGPv4 Metrics\n" + border + "\n")
		rows := []struct {
			name string
			val  func(gosnappi.Bgpv4Metric) any
		}{
			{"Name", func(d gosnappi.Bgpv4Metric) any { return d.Name() }},
			{"Session State", func(d gosnappi.Bgpv4Metric) any { return d.SessionState() }},
			{"Session Flaps", func(d gosnappi.Bgpv4Metric) any { return d.SessionFlapCount() }},
			{"Routes Advertised", func(d gosnappi.Bgpv4Metric) any { return d.RoutesAdvertised() }},
			{"Routes Received", func(d gosnappi.Bgpv4Metric) any { return d.RoutesReceived() }},
			{"Route Withdraws Tx", func(d gosnappi.Bgpv4Metric) any { return d.RouteWithdrawsSent() }},
			{"Route Withdraws Rx", func(d gosnappi.Bgpv4Metric) any { return d.RouteWithdrawsReceived() }},
		}
		for _, r := range rows {
			fmt.Fprintf(&out, "%-28s", r.name)
			for _, d := range opts.Bgpv4Metrics.Items() {
				if d != nil {
					fmt.Fprintf(&out, "%-25v", r.val(d))
				}
			}
			out.WriteString("\n")
		}
		out.WriteString(border + "\n\n")
	}

	if opts.PortMetrics != nil {
		border := strings.Repeat("-", 15*7)
		out.WriteString("\nPort Metrics\n" + border + "\n")
		fmt.Fprintf(&out, "%-15s%-15s%-15s%-15s%-15s%-15s%-15s\n",
			"Name", "Frames Tx", "Frames Rx", "Bytes Tx", "Bytes Rx", "FPS Tx", "FPS Rx")
		for _, m := range opts.PortMetrics {
			fmt.Fprintf(&out, "%-15v%-15v%-15v%-15v%-15v%-15v%-15v\n",
				m.Name, m.FramesTx, m.FramesRx, m.BytesTx, m.BytesRx, m.FramesTxRate, m.FramesRxRate)
		}
		out.WriteString(border + "\n\n")
	}

	if opts.FlowMetrics != nil {
		border := strings.Repeat("-", 25*6)
		out.WriteString("\nFlow Metrics\n" + border + "\n")
		fmt.Fprintf(&out, "%-25s%-25s%-25s%-25s%-25s%-25s\n",
			"Name", "Frames Tx", "Frames Rx", "Bytes Rx", "FPS Tx", "FPS Rx")
		for _, m := range opts.FlowMetrics {
			fmt.Fprintf(&out, "%-25v%-25v%-25v%-25v%-25v%-25v\n",
				m.Name, m.FramesTx, m.FramesRx, m.BytesRx, m.FramesTxRate, m.FramesRxRate)
		}
		out.WriteString(border + "\n\n")
	}
	return out.String()
}

// PrintMetricsTable logs the metrics in opts, clearing the screen first when
// opts.ClearPrevious is set.
func PrintMetricsTable(opts *MetricsTableOpts) {
	if opts == nil {
		return
	}
	if opts.ClearPrevious {
		ClearScreen()
	}
	log.Info(FormatMetricsTable(opts))
}

// LogFlowMetrics is displaying the otg flow statistics.
func LogFlowMetrics(t testing.TB, flows []MetricSample) {
	t.Helper()
	t.Log(FormatMetricsTable(&MetricsTableOpts{FlowMetrics: flows}))
}

// LogPortMetrics is displaying otg port stats.
func LogPortMetrics(t testing.TB, ports []MetricSample) {
	t.Helper()
	t.Log(FormatMetricsTable(&MetricsTableOpts{PortMetrics: ports}))
}
