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

package coordinator

import (
	"context"
	"testing"
	"time"

	"ddosguard/internal/ddos/detect"
	"ddosguard/internal/ddos/metrics"
	"ddosguard/internal/ddos/transport"
)

func TestCoordinator_CompletesWhenAllWorkersDone(t *testing.T) {
	coord, workers := transport.NewInProc(2)
	defer coord.Close()

	c := New(coord, 2)

	go func() {
		_ = workers[0].SendDone(metrics.Snapshot{TotalFlows: 10})
		_ = workers[1].SendDone(metrics.Snapshot{TotalFlows: 20})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	results, err := c.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
}

func TestCoordinator_AlertGrowsAndBroadcastsBlocklist(t *testing.T) {
	coord, workers := transport.NewInProc(2)
	defer coord.Close()

	c := New(coord, 2)

	go func() {
		_ = workers[0].SendAlert(detect.Alert{SrcIP: "1.2.3.4", Kind: detect.CUSUM, Confidence: 2})
		_ = workers[0].SendDone(metrics.Snapshot{TotalFlows: 1})
		_ = workers[1].SendDone(metrics.Snapshot{TotalFlows: 1})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !c.Blocklist().Contains("1.2.3.4") {
		t.Fatalf("expected 1.2.3.4 to be blocklisted")
	}
	if entries, ok := workers[1].ProbeBlocklist(); !ok || len(entries) != 1 || entries[0].IP != "1.2.3.4" {
		t.Fatalf("worker 1 did not receive the broadcast blocklist: %+v ok=%v", entries, ok)
	}

	log := c.AlertLog()
	if len(log) != 1 || log[0].SrcIP != "1.2.3.4" {
		t.Fatalf("unexpected alert log: %+v", log)
	}
}

func TestCoordinator_DuplicateAlertDoesNotRebroadcast(t *testing.T) {
	coord, workers := transport.NewInProc(1)
	defer coord.Close()

	c := New(coord, 1)

	go func() {
		_ = workers[0].SendAlert(detect.Alert{SrcIP: "5.5.5.5", Kind: detect.Entropy, Confidence: 1})
		_ = workers[0].SendAlert(detect.Alert{SrcIP: "5.5.5.5", Kind: detect.Entropy, Confidence: 1})
		_ = workers[0].SendDone(metrics.Snapshot{})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	log := c.AlertLog()
	if len(log) != 2 {
		t.Fatalf("expected both alerts logged even though only one insertion happened, got %d", len(log))
	}
	if c.Blocklist().Len() != 1 {
		t.Fatalf("expected exactly one blocklist entry, got %d", c.Blocklist().Len())
	}
	if _, ok := workers[0].ProbeBlocklist(); !ok {
		t.Fatalf("expected the first insertion to be broadcast")
	}
	if entries, ok := workers[0].ProbeBlocklist(); ok {
		t.Fatalf("expected no second broadcast for the duplicate alert, got %+v", entries)
	}
}

func TestCoordinator_ContextCancellationStopsRun(t *testing.T) {
	coord, _ := transport.NewInProc(3)
	defer coord.Close()

	c := New(coord, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := c.Run(ctx)
	if err == nil {
		t.Fatalf("expected context cancellation error")
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}
