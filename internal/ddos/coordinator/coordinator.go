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

// Package coordinator implements the master event loop: poll for alerts
// and completions from any worker, grow and broadcast the global
// blocklist, and aggregate final metrics once every worker is done.
package coordinator

import (
	"context"
	"log"
	"sync"
	"time"

	"ddosguard/internal/ddos/blocklist"
	"ddosguard/internal/ddos/detect"
	"ddosguard/internal/ddos/metrics"
	"ddosguard/internal/ddos/telemetry"
	"ddosguard/internal/ddos/transport"
)

// MaxAlertLog bounds the number of alerts kept in the global alert log;
// beyond this, new alerts still drive blocklist insertion but are not
// retained for the report's top-attackers table.
const MaxAlertLog = 10000

// idlePoll is the backoff between probe rounds when neither an alert nor a
// completion is pending, so the coordinator does not spin a core at 100%
// while waiting.
const idlePoll = time.Millisecond

// Coordinator owns the global blocklist and alert log, and aggregates
// per-worker Metrics as each worker reports completion.
type Coordinator struct {
	Transport transport.CoordinatorTransport
	Workers   int

	mu        sync.Mutex
	blocklist *blocklist.List
	alertLog  []detect.Alert
	results   []metrics.Snapshot

	OnBlocklistGrow func(entries []blocklist.Entry)
}

// New constructs a Coordinator for the given number of workers.
func New(t transport.CoordinatorTransport, workers int) *Coordinator {
	return &Coordinator{
		Transport: t,
		Workers:   workers,
		blocklist: blocklist.New(),
	}
}

// Run polls until every worker has reported completion (or ctx is
// cancelled) and returns the per-worker metrics snapshots in arrival order.
func (c *Coordinator) Run(ctx context.Context) ([]metrics.Snapshot, error) {
	done := 0
	telemetry.SetWorkersRemaining(c.Workers)
	for done < c.Workers {
		select {
		case <-ctx.Done():
			return c.results, ctx.Err()
		default:
		}

		progressed := false

		if alert, fromWorker, ok := c.Transport.ProbeAlert(); ok {
			progressed = true
			c.recordAlert(alert, fromWorker)
		}

		if snap, fromWorker, ok := c.Transport.ProbeDone(); ok {
			progressed = true
			log.Printf("[coordinator] worker %d completed (%d/%d)", fromWorker, done+1, c.Workers)
			c.mu.Lock()
			c.results = append(c.results, snap)
			c.mu.Unlock()
			done++
			telemetry.SetWorkersRemaining(c.Workers - done)
		}

		if !progressed {
			time.Sleep(idlePoll)
		}
	}
	return c.results, nil
}

func (c *Coordinator) recordAlert(alert detect.Alert, fromWorker int) {
	c.mu.Lock()
	if len(c.alertLog) < MaxAlertLog {
		c.alertLog = append(c.alertLog, alert)
	}
	inserted := c.blocklist.Add(alert.SrcIP, alert.Timestamp)
	c.mu.Unlock()

	if !inserted {
		return
	}

	log.Printf("[coordinator] added %s to blocklist (kind=%s conf=%.2f) from worker %d",
		alert.SrcIP, alert.Kind, alert.Confidence, fromWorker)

	snapshot := c.blocklist.Snapshot(0)
	telemetry.SetBlocklistSize(len(snapshot))
	if err := c.Transport.Broadcast(snapshot); err != nil {
		log.Printf("[coordinator] broadcast failed: %v", err)
	}
	if c.OnBlocklistGrow != nil {
		c.OnBlocklistGrow(snapshot)
	}
}

// AlertLog returns a copy of the alerts recorded so far.
func (c *Coordinator) AlertLog() []detect.Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]detect.Alert, len(c.alertLog))
	copy(out, c.alertLog)
	return out
}

// Blocklist returns the coordinator's authoritative blocklist.
func (c *Coordinator) Blocklist() *blocklist.List {
	return c.blocklist
}
