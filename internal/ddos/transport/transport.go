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

// Package transport implements the coordinator/worker message-passing
// protocol: three tagged message classes (alert, blocklist, completion)
// exchanged through a non-blocking-probe-driven discipline that keeps the
// coordinator's broadcast from ever deadlocking against a worker mid
// alert-burst.
//
// Two backends satisfy the same interfaces: an in-process one built on
// buffered Go channels (the default, and the only one exercised by unit
// tests), and a Redis pub/sub backend that lets the coordinator and workers
// run as independent OS processes.
package transport

import (
	"ddosguard/internal/ddos/blocklist"
	"ddosguard/internal/ddos/detect"
	"ddosguard/internal/ddos/metrics"
)

// CoordinatorTransport is the coordinator's half of the protocol: probing
// for alerts and completions from any worker, and broadcasting blocklist
// updates to all of them.
type CoordinatorTransport interface {
	// ProbeAlert performs a non-blocking check for a pending alert from any
	// worker. ok is false when none is currently available.
	ProbeAlert() (alert detect.Alert, workerID int, ok bool)

	// Broadcast pushes the full blocklist snapshot to every worker. It must
	// never block waiting on a worker that is itself blocked sending an
	// alert; implementations satisfy this with buffered, drop-stale
	// delivery, since every broadcast already carries the complete state.
	Broadcast(entries []blocklist.Entry) error

	// ProbeDone performs a non-blocking check for a worker's completion
	// envelope and final metrics.
	ProbeDone() (snapshot metrics.Snapshot, workerID int, ok bool)

	Close() error
}

// WorkerTransport is a single worker's half of the protocol.
type WorkerTransport interface {
	// SendAlert delivers one alert to the coordinator.
	SendAlert(alert detect.Alert) error

	// ProbeBlocklist performs a non-blocking check for a pending blocklist
	// broadcast from the coordinator.
	ProbeBlocklist() (entries []blocklist.Entry, ok bool)

	// SendDone delivers the completion envelope and final metrics once the
	// worker's partition is exhausted.
	SendDone(snapshot metrics.Snapshot) error

	Close() error
}

type alertMsg struct {
	workerID int
	alert    detect.Alert
}

type doneMsg struct {
	workerID int
	snapshot metrics.Snapshot
}
