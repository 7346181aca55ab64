// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

// Package telemetry exposes Prometheus counters and gauges describing the
// live run: flows processed, alerts raised per detector, blocklist size and
// outstanding workers.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"ddosguard/internal/ddos/detect"
)

var (
	flowsProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ddosguard_flows_processed_total",
		Help: "Total flow records processed across all workers",
	})
	alertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ddosguard_alerts_total",
		Help: "Total alerts raised, labeled by detector kind",
	}, []string{"kind"})
	blocklistSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ddosguard_blocklist_size",
		Help: "Current number of entries in the global blocklist",
	})
	workersRemaining = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ddosguard_workers_remaining",
		Help: "Number of workers that have not yet reported completion",
	})
	windowLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ddosguard_window_latency_ms",
		Help:    "Per-window processing latency in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
)

func init() {
	prometheus.MustRegister(flowsProcessedTotal, alertsTotal, blocklistSize, workersRemaining, windowLatency)
}

// ObserveWindow records one processed window: its flow count, the alerts it
// produced, and how long it took.
func ObserveWindow(flowCount int, alerts []detect.Alert, latencyMs float64) {
	flowsProcessedTotal.Add(float64(flowCount))
	for _, a := range alerts {
		alertsTotal.WithLabelValues(a.Kind.String()).Inc()
	}
	windowLatency.Observe(latencyMs)
}

// SetBlocklistSize reports the current size of the global blocklist.
func SetBlocklistSize(n int) {
	blocklistSize.Set(float64(n))
}

// SetWorkersRemaining reports how many workers have yet to complete.
func SetWorkersRemaining(n int) {
	workersRemaining.Set(float64(n))
}
