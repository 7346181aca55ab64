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

package transport

import (
	"testing"
	"time"

	"ddosguard/internal/ddos/blocklist"
	"ddosguard/internal/ddos/detect"
	"ddosguard/internal/ddos/metrics"
)

func TestInProc_AlertRoundTrip(t *testing.T) {
	coord, workers := NewInProc(2)
	defer coord.Close()

	if _, _, ok := coord.ProbeAlert(); ok {
		t.Fatalf("expected no alert before any send")
	}

	want := detect.Alert{SrcIP: "10.0.0.1", Kind: detect.Entropy, Confidence: 1}
	if err := workers[1].SendAlert(want); err != nil {
		t.Fatalf("SendAlert: %v", err)
	}

	got, fromWorker, ok := coord.ProbeAlert()
	if !ok {
		t.Fatalf("expected an alert to be available")
	}
	if fromWorker != 1 || got != want {
		t.Fatalf("got alert %+v from worker %d, want %+v from worker 1", got, fromWorker, want)
	}
}

func TestInProc_BroadcastNeverBlocks(t *testing.T) {
	coord, workers := NewInProc(3)
	defer coord.Close()

	entries := []blocklist.Entry{{IP: "1.1.1.1"}}
	// Broadcast repeatedly without any worker ever draining; this must not
	// block (that is the deadlock-avoidance property from the protocol).
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			if err := coord.Broadcast(entries); err != nil {
				t.Errorf("Broadcast: %v", err)
			}
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Broadcast blocked against an undrained worker")
	}
	_ = workers
}

func TestInProc_BlocklistDeliveredToCorrectWorker(t *testing.T) {
	coord, workers := NewInProc(2)
	defer coord.Close()

	entries := []blocklist.Entry{{IP: "2.2.2.2"}}
	if err := coord.Broadcast(entries); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	got, ok := workers[0].ProbeBlocklist()
	if !ok || len(got) != 1 || got[0].IP != "2.2.2.2" {
		t.Fatalf("worker 0 did not receive the broadcast: %+v, ok=%v", got, ok)
	}
	got1, ok := workers[1].ProbeBlocklist()
	if !ok || len(got1) != 1 {
		t.Fatalf("worker 1 did not receive the broadcast: %+v, ok=%v", got1, ok)
	}
}

func TestInProc_DoneRoundTrip(t *testing.T) {
	coord, workers := NewInProc(1)
	defer coord.Close()

	snap := metrics.Snapshot{TotalFlows: 42}
	if err := workers[0].SendDone(snap); err != nil {
		t.Fatalf("SendDone: %v", err)
	}
	got, fromWorker, ok := coord.ProbeDone()
	if !ok || fromWorker != 0 || got.TotalFlows != 42 {
		t.Fatalf("unexpected done envelope: %+v fromWorker=%d ok=%v", got, fromWorker, ok)
	}
}
