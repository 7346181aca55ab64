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

// Package api exposes the run's live state over HTTP: Prometheus metrics at
// /metrics and a JSON status snapshot at /status.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ddosguard/internal/ddos/metrics"
)

// Status is the JSON payload served at /status.
type Status struct {
	WorkersTotal  int              `json:"workers_total"`
	WorkersDone   int              `json:"workers_done"`
	BlocklistSize int              `json:"blocklist_size"`
	AlertCount    int              `json:"alert_count"`
	Aggregate     metrics.Snapshot `json:"aggregate,omitempty"`
	Complete      bool             `json:"complete"`
}

// Server serves live run status over HTTP. Callers update the status via
// SetStatus as the run progresses; the HTTP handlers only read it.
type Server struct {
	mu     sync.RWMutex
	status Status
}

// NewServer creates an API server with an empty initial status.
func NewServer() *Server {
	return &Server{}
}

// SetStatus replaces the currently served status snapshot.
func (s *Server) SetStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

// RegisterRoutes wires /metrics and /status onto mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/status", s.handleStatus)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(st); err != nil {
		http.Error(w, "failed to encode status", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on addr and blocks until it exits.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	fmt.Printf("ddosguard API server listening on %s\n", addr)
	return httpServer.ListenAndServe()
}
