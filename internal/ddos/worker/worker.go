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

// Package worker implements the per-partition processing loop: read a
// window, run the three detectors, send alerts, opportunistically drain a
// blocklist update, and fold the window into the running metrics.
package worker

import (
	"context"
	"log"
	"runtime"
	"time"

	"ddosguard/internal/ddos/blocklist"
	"ddosguard/internal/ddos/detect"
	"ddosguard/internal/ddos/metrics"
	"ddosguard/internal/ddos/telemetry"
	"ddosguard/internal/ddos/transport"
	"ddosguard/internal/ddos/window"
)

// cpuPlaceholderPercent mirrors the reference's own simplified CPU-usage
// estimate: it never measures actual CPU time, only reports a fixed
// estimate once the process has done some work.
const cpuPlaceholderPercent = 50.0

// Worker owns one partition of the input file and the local blocklist and
// metrics state built up while processing it.
type Worker struct {
	ID          int
	Transport   transport.WorkerTransport
	DatasetPath string
	Start       int
	Count       int
}

// New constructs a Worker for partition [start, start+count) of path.
func New(id int, wt transport.WorkerTransport, path string, start, count int) *Worker {
	return &Worker{ID: id, Transport: wt, DatasetPath: path, Start: start, Count: count}
}

// Run processes the worker's partition window by window until exhausted (or
// ctx is cancelled), then sends the completion envelope with final metrics.
// An I/O error opening or reading the input still sends a Done, with empty
// metrics, so the coordinator's liveness is preserved; the error is also
// returned to the caller.
func (w *Worker) Run(ctx context.Context) (metrics.Snapshot, error) {
	reader, err := window.NewReader(w.DatasetPath, w.Start, w.Count)
	if err != nil {
		log.Printf("[worker %d] cannot open dataset: %v", w.ID, err)
		empty := metrics.Snapshot{}
		_ = w.Transport.SendDone(empty)
		return empty, err
	}
	defer reader.Close()

	local := blocklist.New()
	acc := metrics.New()
	wallStart := time.Now()
	processingMs := 0.0

	for {
		select {
		case <-ctx.Done():
			return w.finish(acc, processingMs, wallStart)
		default:
		}

		records, err := reader.Next()
		if err != nil {
			log.Printf("[worker %d] read error: %v", w.ID, err)
			empty := metrics.Snapshot{}
			_ = w.Transport.SendDone(empty)
			return empty, err
		}
		if len(records) == 0 {
			break
		}

		windowStart := time.Now()
		alerts := detect.RunAll(records)

		for _, a := range alerts {
			if err := w.Transport.SendAlert(a); err != nil {
				log.Printf("[worker %d] send alert: %v", w.ID, err)
			}
		}

		if entries, ok := w.Transport.ProbeBlocklist(); ok {
			local.ReplaceAll(entries)
		}

		acc.Update(records, alerts, local)
		elapsedMs := float64(time.Since(windowStart).Microseconds()) / 1000.0
		acc.AddLatency(elapsedMs)
		processingMs += elapsedMs
		telemetry.ObserveWindow(len(records), alerts, elapsedMs)
	}

	return w.finish(acc, processingMs, wallStart)
}

func (w *Worker) finish(acc *metrics.Accumulator, processingMs float64, wallStart time.Time) (metrics.Snapshot, error) {
	wallMs := float64(time.Since(wallStart).Microseconds()) / 1000.0
	acc.Finalize(processingMs, wallMs, cpuPlaceholderPercent, memoryUsageMB())

	snap := acc.Snapshot()
	if err := w.Transport.SendDone(snap); err != nil {
		return snap, err
	}
	return snap, nil
}

func memoryUsageMB() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.Alloc) / (1024 * 1024)
}
