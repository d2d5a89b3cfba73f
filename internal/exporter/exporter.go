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

// Package exporter exposes the port and flow metrics read from a traffic
// generator, and the outcome of waits, as Prometheus metrics.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	log "github.com/golang/glog"
	"github.com/open-traffic-generator/snappi-tests/internal/otgsession"
	"github.com/open-traffic-generator/snappi-tests/internal/otgutils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "snappi"

// DefaultAddr is the listen address used when none is set.
const DefaultAddr = ":9100"

type sampleGauges struct {
	framesTx     *prometheus.GaugeVec
	framesRx     *prometheus.GaugeVec
	bytesTx      *prometheus.GaugeVec
	bytesRx      *prometheus.GaugeVec
	framesTxRate *prometheus.GaugeVec
	framesRxRate *prometheus.GaugeVec
}

func newSampleGauges(kind string) *sampleGauges {
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: kind,
			Name:      name,
			Help:      fmt.Sprintf(help, kind),
		}, []string{"name"})
	}
	return &sampleGauges{
		framesTx:     gauge("frames_tx", "Frames transmitted by the %s."),
		framesRx:     gauge("frames_rx", "Frames received by the %s."),
		bytesTx:      gauge("bytes_tx", "Bytes transmitted by the %s."),
		bytesRx:      gauge("bytes_rx", "Bytes received by the %s."),
		framesTxRate: gauge("frames_tx_rate", "Frames per second transmitted by the %s."),
		framesRxRate: gauge("frames_rx_rate", "Frames per second received by the %s."),
	}
}

func (g *sampleGauges) collectors() []prometheus.Collector {
	return []prometheus.Collector{g.framesTx, g.framesRx, g.bytesTx, g.bytesRx, g.framesTxRate, g.framesRxRate}
}

func (g *sampleGauges) set(samples []otgutils.MetricSample) {
	for _, s := range samples {
		g.framesTx.WithLabelValues(s.Name).Set(float64(s.FramesTx))
		g.framesRx.WithLabelValues(s.Name).Set(float64(s.FramesRx))
		g.bytesTx.WithLabelValues(s.Name).Set(float64(s.BytesTx))
		g.bytesRx.WithLabelValues(s.Name).Set(float64(s.BytesRx))
		g.framesTxRate.WithLabelValues(s.Name).Set(float64(s.FramesTxRate))
		g.framesRxRate.WithLabelValues(s.Name).Set(float64(s.FramesRxRate))
	}
}

// Exporter holds the latest metrics of each port and flow. It implements
// otgsession.Recorder.
type Exporter struct {
	addr     string
	registry *prometheus.Registry
	server   *http.Server
	listener net.Listener

	ports *sampleGauges
	flows *sampleGauges

	// Waits counts finished waits by condition and result.
	Waits *prometheus.CounterVec
	// LastUpdate is the unix time of the last metrics read.
	LastUpdate prometheus.Gauge
}

// New returns an exporter serving on addr once started.
func New(addr string) *Exporter {
	if addr == "" {
		addr = DefaultAddr
	}
	e := &Exporter{
		addr:     addr,
		registry: prometheus.NewRegistry(),
		ports:    newSampleGauges("port"),
		flows:    newSampleGauges("flow"),
		Waits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wait_total",
			Help:      "Finished waits by condition and result.",
		}, []string{"condition", "result"}),
		LastUpdate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_update_timestamp_seconds",
			Help:      "Unix time of the last metrics read.",
		}),
	}
	e.registry.MustRegister(e.ports.collectors()...)
	e.registry.MustRegister(e.flows.collectors()...)
	e.registry.MustRegister(e.Waits, e.LastUpdate)
	return e
}

// RecordSamples updates the gauges of the given ports and flows.
func (e *Exporter) RecordSamples(ports, flows []otgutils.MetricSample) {
	e.ports.set(ports)
	e.flows.set(flows)
	e.LastUpdate.SetToCurrentTime()
}

// RecordWait counts a finished wait.
func (e *Exporter) RecordWait(condition string, err error) {
	e.Waits.WithLabelValues(condition, otgutils.Result(err)).Inc()
}

// Handler serves the metrics of the exporter.
func (e *Exporter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	return mux
}

// Start serves /metrics in the background.
func (e *Exporter) Start() error {
	ln, err := net.Listen("tcp", e.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", e.addr, err)
	}
	e.listener = ln
	e.server = &http.Server{Handler: e.Handler()}
	go func() {
		log.Infof("Serving metrics on http://%s/metrics", ln.Addr())
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the address the exporter listens on, which differs from the
// configured one when started on port 0.
func (e *Exporter) Addr() string {
	if e.listener != nil {
		return e.listener.Addr().String()
	}
	return e.addr
}

// Stop shuts the server down.
func (e *Exporter) Stop() error {
	if e.server == nil {
		return nil
	}
	return e.server.Close()
}

// Poll reads all port and flow metrics of s every interval until ctx is
// done. Failed reads are logged and retried on the next interval.
func (e *Exporter) Poll(ctx context.Context, s *otgsession.Session, interval time.Duration) error {
	s.SetRecorder(e)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, _, err := s.AllStats(false); err != nil {
			log.Warningf("Reading metrics: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
