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

// Package main provides the entry point for ddosguard: it partitions a
// preprocessed flow-log CSV across a pool of workers, runs them alongside a
// coordinator that aggregates alerts into a shared blocklist, and emits a
// performance report plus mitigation rule files once every worker is done.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ddosguard/internal/ddos/api"
	"ddosguard/internal/ddos/blocklist"
	"ddosguard/internal/ddos/coordinator"
	"ddosguard/internal/ddos/metrics"
	"ddosguard/internal/ddos/mitigation"
	"ddosguard/internal/ddos/report"
	"ddosguard/internal/ddos/telemetry"
	"ddosguard/internal/ddos/transport"
	"ddosguard/internal/ddos/window"
	"ddosguard/internal/ddos/worker"
)

func main() {
	workers := flag.Int("workers", 4, "Number of worker partitions to run concurrently")
	transportKind := flag.String("transport", "inproc", "Message transport backend: inproc or redis")
	redisAddr := flag.String("redis-addr", "127.0.0.1:6379", "Redis address, used when -transport=redis")
	metricsAddr := flag.String("metrics-addr", "", "If non-empty, expose /metrics and /status on this address (e.g., :9090)")
	outputDir := flag.String("output-dir", ".", "Directory mitigation rule files are written to")
	resultsFile := flag.String("results-file", "results.txt", "Path to append one summary line per run")
	scalabilityFile := flag.String("scalability-file", "scalability_results/scalability_summary.csv", "Path to the per-worker-count scalability CSV")
	verbose := flag.Bool("verbose", false, "Log every blocklist insertion as it happens")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <dataset_file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *workers < 1 {
		log.Fatalf("-workers must be at least 1, got %d", *workers)
	}
	datasetFile := flag.Arg(0)

	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		fmt.Println("\nShutting down...")
		cancel()
	}()

	var apiServer *api.Server
	if *metricsAddr != "" {
		apiServer = api.NewServer()
		mux := http.NewServeMux()
		apiServer.RegisterRoutes(mux)
		httpServer := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			fmt.Printf("ddosguard API server listening on %s\n", *metricsAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("metrics server exited: %v", err)
			}
		}()
	}

	totalLines, err := window.CountDataLines(datasetFile)
	if err != nil {
		log.Fatalf("could not read %s: %v", datasetFile, err)
	}

	coordTransport, workerTransports, err := transport.Build(*transportKind, *workers, transport.RedisOptions{Addr: *redisAddr})
	if err != nil {
		log.Fatalf("could not build transport %q: %v", *transportKind, err)
	}
	defer coordTransport.Close()

	coord := coordinator.New(coordTransport, *workers)
	if *verbose {
		coord.OnBlocklistGrow = func(entries []blocklist.Entry) {
			log.Printf("[coordinator] blocklist now has %d entries", len(entries))
		}
	}

	type workerResult struct {
		id       int
		snapshot metrics.Snapshot
		err      error
	}
	results := make(chan workerResult, *workers)

	wallStart := time.Now()

	for i := 0; i < *workers; i++ {
		start, count := window.Partition(totalLines, *workers, i)
		w := worker.New(i, workerTransports[i], datasetFile, start, count)
		go func(id int, w *worker.Worker) {
			snap, err := w.Run(ctx)
			results <- workerResult{id: id, snapshot: snap, err: err}
		}(i, w)
	}

	coordDone := make(chan struct {
		snapshots []metrics.Snapshot
		err       error
	}, 1)
	go func() {
		snapshots, err := coord.Run(ctx)
		coordDone <- struct {
			snapshots []metrics.Snapshot
			err       error
		}{snapshots, err}
	}()

	for i := 0; i < *workers; i++ {
		r := <-results
		if r.err != nil {
			log.Printf("[worker %d] exited with error: %v", r.id, r.err)
		}
	}
	coordResult := <-coordDone
	if coordResult.err != nil {
		log.Printf("[coordinator] exited: %v", coordResult.err)
	}
	snapshots := coordResult.snapshots

	aggregated := metrics.Aggregate(snapshots)
	wallTimeSec := time.Since(wallStart).Seconds()

	alerts := coord.AlertLog()
	blockedEntries := coord.Blocklist().Snapshot(0)

	telemetry.SetBlocklistSize(len(blockedEntries))
	telemetry.SetWorkersRemaining(0)

	if apiServer != nil {
		apiServer.SetStatus(api.Status{
			WorkersTotal:  *workers,
			WorkersDone:   *workers,
			BlocklistSize: len(blockedEntries),
			AlertCount:    len(alerts),
			Aggregate:     aggregated,
			Complete:      true,
		})
	}

	if err := report.WriteComprehensiveReport(os.Stdout, aggregated, report.Params{
		DatasetFile:   datasetFile,
		Workers:       *workers,
		TotalTimeSec:  wallTimeSec,
		Alerts:        alerts,
		BlocklistSize: len(blockedEntries),
	}); err != nil {
		log.Printf("could not write report: %v", err)
	}

	if _, err := mitigation.EmitAll(*outputDir, blockedEntries); err != nil {
		log.Printf("could not emit mitigation rules: %v", err)
	}

	if err := report.AppendResultsLog(*resultsFile, *workers, aggregated); err != nil {
		log.Printf("could not append results log: %v", err)
	}

	if err := report.UpdateScalabilitySummary(*scalabilityFile, *workers, *workers+1, wallTimeSec, aggregated); err != nil {
		log.Printf("could not update scalability summary: %v", err)
	}

	fmt.Printf("Results saved to %s\n", *resultsFile)
}
