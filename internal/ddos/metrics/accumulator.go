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

// Package metrics accumulates the confusion matrix and the
// latency/throughput/resource counters the coordinator reports on, and
// rolls up per-worker Metrics into one aggregated report.
package metrics

import (
	"sync"

	"ddosguard/internal/ddos/blocklist"
	"ddosguard/internal/ddos/detect"
	"ddosguard/pkg/flow"
)

// maxDetectedIPs bounds the per-window detected-IP dedup set.
const maxDetectedIPs = 100

// Snapshot is the flat, copyable metrics record exchanged between a worker
// and the coordinator, and finally reported to the operator.
type Snapshot struct {
	TruePositives  int64
	FalsePositives int64
	TrueNegatives  int64
	FalseNegatives int64

	TotalFlows        int64
	DDoSFlows         int64
	BenignFlows       int64
	BlockedFlows      int64
	LegitimateBlocked int64

	TotalLatencyMs          float64
	ThroughputFlowsPerSec   float64
	TransportOverheadMs     float64
	LocalDetectionTimeMs    float64
	GlobalDetectionTimeMs   float64
	DetectionLeadTimeMs     float64
	CPUUsagePercent         float64
	MemoryUsageMB           float64
	LatencyP95Ms            float64
	LatencyP99Ms            float64
	AttackTrafficDroppedPct float64
}

// Accumulator is a concurrency-safe, single-owner (per worker) mutable
// counter set built up window by window.
type Accumulator struct {
	mu sync.Mutex
	s  Snapshot
}

// New returns an empty accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// Update folds one window's confusion matrix into the accumulator given its
// detector alerts and the blocklist snapshot in effect when the window was
// processed.
func (a *Accumulator) Update(window []flow.Record, alerts []detect.Alert, blocked *blocklist.List) {
	detected := make(map[string]struct{}, maxDetectedIPs)
	for _, al := range alerts {
		if len(detected) >= maxDetectedIPs {
			break
		}
		detected[al.SrcIP] = struct{}{}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, rec := range window {
		a.s.TotalFlows++
		if rec.IsAttack {
			a.s.DDoSFlows++
		} else {
			a.s.BenignFlows++
		}

		_, wasDetected := detected[rec.SrcIP]
		wasBlocked := blocked != nil && blocked.Contains(rec.SrcIP)
		if wasBlocked {
			a.s.BlockedFlows++
		}

		switch {
		case rec.IsAttack && wasDetected:
			a.s.TruePositives++
		case !rec.IsAttack && wasDetected:
			a.s.FalsePositives++
		case !rec.IsAttack && !wasDetected:
			a.s.TrueNegatives++
		case rec.IsAttack && !wasDetected:
			a.s.FalseNegatives++
		}

		if !rec.IsAttack && wasBlocked {
			a.s.LegitimateBlocked++
		}
	}
}

// AddLatency adds one window's processing time, in milliseconds, to the
// running latency total.
func (a *Accumulator) AddLatency(ms float64) {
	a.mu.Lock()
	a.s.TotalLatencyMs += ms
	a.mu.Unlock()
}

// Finalize computes the fields that are only meaningful once a worker's
// partition is exhausted: throughput, synthesized percentiles, and
// attack-traffic-dropped percentage. processingMs is the wall time spent
// actually processing windows (excludes the final snapshot itself).
func (a *Accumulator) Finalize(processingMs, wallMs float64, cpuPercent, memoryMB float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.s.LocalDetectionTimeMs = processingMs
	a.s.GlobalDetectionTimeMs = wallMs
	if processingMs > 0 {
		a.s.ThroughputFlowsPerSec = float64(a.s.TotalFlows) * 1000.0 / processingMs
	}
	// Simulated lead time for the first window's detection, carried over
	// from the reference as an explicit constant rather than a measurement.
	a.s.DetectionLeadTimeMs = 50.0

	avgLatency := 0.0
	if a.s.TotalFlows > 0 {
		avgLatency = a.s.TotalLatencyMs / float64(a.s.TotalFlows)
	}
	a.s.LatencyP95Ms = avgLatency * 1.2
	a.s.LatencyP99Ms = avgLatency * 2.0

	a.s.CPUUsagePercent = cpuPercent
	a.s.MemoryUsageMB = memoryMB

	if a.s.DDoSFlows > 0 {
		a.s.AttackTrafficDroppedPct = float64(a.s.TruePositives) * 100.0 / float64(a.s.DDoSFlows)
	}
}

// AddTransportOverhead accounts time spent in transport sends/receives
// toward the overhead counter.
func (a *Accumulator) AddTransportOverhead(ms float64) {
	a.mu.Lock()
	a.s.TransportOverheadMs += ms
	a.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (a *Accumulator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.s
}
