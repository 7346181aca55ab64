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
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ddosguard/internal/ddos/blocklist"
	"ddosguard/internal/ddos/detect"
	"ddosguard/internal/ddos/metrics"
)

// RedisOptions configures the Redis pub/sub backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

const (
	alertChannel = "ddosguard:alerts"
	doneChannel  = "ddosguard:done"
)

func blocklistChannel(workerID int) string {
	return fmt.Sprintf("ddosguard:blocklist:%d", workerID)
}

func newRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

type wireAlert struct {
	WorkerID int          `json:"worker_id"`
	Alert    detect.Alert `json:"alert"`
}

type wireDone struct {
	WorkerID int             `json:"worker_id"`
	Snapshot metrics.Snapshot `json:"snapshot"`
}

// RedisCoordinatorTransport is the coordinator side of the Redis backend:
// it subscribes to the shared alert and completion channels and publishes
// blocklist broadcasts to each worker's own channel.
type RedisCoordinatorTransport struct {
	client  *redis.Client
	ctx     context.Context
	cancel  context.CancelFunc
	workers int
	sub     *redis.PubSub
	alertCh chan alertMsg
	doneCh  chan doneMsg
}

// NewRedisCoordinatorTransport connects to Redis and starts pumping
// incoming alert/done messages into locally-buffered channels so that
// ProbeAlert/ProbeDone can stay non-blocking.
func NewRedisCoordinatorTransport(opts RedisOptions, workers int) (*RedisCoordinatorTransport, error) {
	ctx, cancel := context.WithCancel(context.Background())
	client := newRedisClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		cancel()
		return nil, fmt.Errorf("transport: connect redis: %w", err)
	}

	sub := client.Subscribe(ctx, alertChannel, doneChannel)
	t := &RedisCoordinatorTransport{
		client:  client,
		ctx:     ctx,
		cancel:  cancel,
		workers: workers,
		sub:     sub,
		alertCh: make(chan alertMsg, 1024),
		doneCh:  make(chan doneMsg, workers+1),
	}
	go t.pump()
	return t, nil
}

func (t *RedisCoordinatorTransport) pump() {
	for msg := range t.sub.Channel() {
		switch msg.Channel {
		case alertChannel:
			var w wireAlert
			if err := json.Unmarshal([]byte(msg.Payload), &w); err != nil {
				continue
			}
			select {
			case t.alertCh <- alertMsg{workerID: w.WorkerID, alert: w.Alert}:
			default:
			}
		case doneChannel:
			var w wireDone
			if err := json.Unmarshal([]byte(msg.Payload), &w); err != nil {
				continue
			}
			select {
			case t.doneCh <- doneMsg{workerID: w.WorkerID, snapshot: w.Snapshot}:
			default:
			}
		}
	}
}

func (t *RedisCoordinatorTransport) ProbeAlert() (detect.Alert, int, bool) {
	select {
	case m := <-t.alertCh:
		return m.alert, m.workerID, true
	default:
		return detect.Alert{}, 0, false
	}
}

func (t *RedisCoordinatorTransport) Broadcast(entries []blocklist.Entry) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	for i := 0; i < t.workers; i++ {
		if err := t.client.Publish(t.ctx, blocklistChannel(i), payload).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (t *RedisCoordinatorTransport) ProbeDone() (metrics.Snapshot, int, bool) {
	select {
	case m := <-t.doneCh:
		return m.snapshot, m.workerID, true
	default:
		return metrics.Snapshot{}, 0, false
	}
}

func (t *RedisCoordinatorTransport) Close() error {
	t.cancel()
	_ = t.sub.Close()
	return t.client.Close()
}

// RedisWorkerTransport is one worker's side of the Redis backend.
type RedisWorkerTransport struct {
	client      *redis.Client
	ctx         context.Context
	cancel      context.CancelFunc
	id          int
	sub         *redis.PubSub
	blocklistCh chan []blocklist.Entry
}

// NewRedisWorkerTransport connects to Redis as worker id and subscribes to
// that worker's own blocklist channel.
func NewRedisWorkerTransport(opts RedisOptions, id int) (*RedisWorkerTransport, error) {
	ctx, cancel := context.WithCancel(context.Background())
	client := newRedisClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		cancel()
		return nil, fmt.Errorf("transport: connect redis: %w", err)
	}

	sub := client.Subscribe(ctx, blocklistChannel(id))
	t := &RedisWorkerTransport{
		client:      client,
		ctx:         ctx,
		cancel:      cancel,
		id:          id,
		sub:         sub,
		blocklistCh: make(chan []blocklist.Entry, blocklistBuf),
	}
	go t.pump()
	return t, nil
}

func (t *RedisWorkerTransport) pump() {
	for msg := range t.sub.Channel() {
		var entries []blocklist.Entry
		if err := json.Unmarshal([]byte(msg.Payload), &entries); err != nil {
			continue
		}
		select {
		case t.blocklistCh <- entries:
		default:
			select {
			case <-t.blocklistCh:
			default:
			}
			select {
			case t.blocklistCh <- entries:
			default:
			}
		}
	}
}

func (t *RedisWorkerTransport) SendAlert(a detect.Alert) error {
	payload, err := json.Marshal(wireAlert{WorkerID: t.id, Alert: a})
	if err != nil {
		return err
	}
	return t.client.Publish(t.ctx, alertChannel, payload).Err()
}

func (t *RedisWorkerTransport) ProbeBlocklist() ([]blocklist.Entry, bool) {
	select {
	case entries := <-t.blocklistCh:
		return entries, true
	default:
		return nil, false
	}
}

func (t *RedisWorkerTransport) SendDone(s metrics.Snapshot) error {
	payload, err := json.Marshal(wireDone{WorkerID: t.id, Snapshot: s})
	if err != nil {
		return err
	}
	return t.client.Publish(t.ctx, doneChannel, payload).Err()
}

func (t *RedisWorkerTransport) Close() error {
	t.cancel()
	_ = t.sub.Close()
	return t.client.Close()
}
