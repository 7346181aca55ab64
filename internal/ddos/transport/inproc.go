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
	"ddosguard/internal/ddos/blocklist"
	"ddosguard/internal/ddos/detect"
	"ddosguard/internal/ddos/metrics"
)

// blocklistBuf is the per-worker broadcast channel capacity. It must be at
// least 1 so the coordinator's broadcast send never blocks on a worker that
// hasn't drained its previous update; since every broadcast carries the
// full blocklist, dropping a stale pending one when the channel is full is
// always safe.
const blocklistBuf = 2

type inprocHub struct {
	alertCh     chan alertMsg
	doneCh      chan doneMsg
	blocklistCh []chan []blocklist.Entry
	workers     int
}

func newInprocHub(workers int) *inprocHub {
	h := &inprocHub{
		alertCh:     make(chan alertMsg, 1024),
		doneCh:      make(chan doneMsg, workers+1),
		blocklistCh: make([]chan []blocklist.Entry, workers),
		workers:     workers,
	}
	for i := range h.blocklistCh {
		h.blocklistCh[i] = make(chan []blocklist.Entry, blocklistBuf)
	}
	return h
}

type inprocCoordinator struct {
	hub *inprocHub
}

func (c *inprocCoordinator) ProbeAlert() (detect.Alert, int, bool) {
	select {
	case m := <-c.hub.alertCh:
		return m.alert, m.workerID, true
	default:
		return detect.Alert{}, 0, false
	}
}

func (c *inprocCoordinator) Broadcast(entries []blocklist.Entry) error {
	for i := 0; i < c.hub.workers; i++ {
		select {
		case c.hub.blocklistCh[i] <- entries:
		default:
			// Drain one stale pending update and retry once; if the
			// worker is badly behind it will simply pick up this
			// broadcast's successor.
			select {
			case <-c.hub.blocklistCh[i]:
			default:
			}
			select {
			case c.hub.blocklistCh[i] <- entries:
			default:
			}
		}
	}
	return nil
}

func (c *inprocCoordinator) ProbeDone() (metrics.Snapshot, int, bool) {
	select {
	case m := <-c.hub.doneCh:
		return m.snapshot, m.workerID, true
	default:
		return metrics.Snapshot{}, 0, false
	}
}

func (c *inprocCoordinator) Close() error { return nil }

type inprocWorker struct {
	hub *inprocHub
	id  int
}

func (w *inprocWorker) SendAlert(a detect.Alert) error {
	w.hub.alertCh <- alertMsg{workerID: w.id, alert: a}
	return nil
}

func (w *inprocWorker) ProbeBlocklist() ([]blocklist.Entry, bool) {
	select {
	case entries := <-w.hub.blocklistCh[w.id]:
		return entries, true
	default:
		return nil, false
	}
}

func (w *inprocWorker) SendDone(s metrics.Snapshot) error {
	w.hub.doneCh <- doneMsg{workerID: w.id, snapshot: s}
	return nil
}

func (w *inprocWorker) Close() error { return nil }

// NewInProc builds an in-process coordinator and one WorkerTransport per
// worker, all sharing buffered Go channels as the medium.
func NewInProc(workers int) (CoordinatorTransport, []WorkerTransport) {
	hub := newInprocHub(workers)
	ws := make([]WorkerTransport, workers)
	for i := range ws {
		ws[i] = &inprocWorker{hub: hub, id: i}
	}
	return &inprocCoordinator{hub: hub}, ws
}
