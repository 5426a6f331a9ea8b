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

// Package main runs the Tribbler keeper, the background process that keeps
// the back ends' logical clocks close to each other.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tribbler"
	"tribbler/internal/keeper"
)

func main() {
	// 1. Parse configuration flags.
	configPath := flag.String("config", tribbler.DefaultConfigPath, "Cluster config file")
	this := flag.Int("this", 0, "Index of this keeper in the config file's keeper list")
	interval := flag.Duration("interval", keeper.DefaultInterval, "Pause between clock synchronization rounds")
	metricsAddr := flag.String("metrics_addr", "", "If non-empty, expose Prometheus /metrics on this address (e.g., :9090)")
	flag.Parse()

	cfg, err := tribbler.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Could not load cluster config: %v", err)
	}
	if *this < 0 || *this >= len(cfg.Keepers) {
		log.Fatalf("-this=%d out of range: config lists %d keepers", *this, len(cfg.Keepers))
	}

	// 2. Optionally expose metrics.
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			fmt.Printf("Keeper metrics listening on %s\n", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Fatalf("Metrics server failed: %v", err)
			}
		}()
	}

	// 3. Run the keeper until SIGINT/SIGTERM.
	id := uuid.New()
	ready := make(chan bool, 1)
	shutdown := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- keeper.Serve(keeper.Config{
			Backs:    cfg.Backs,
			Addrs:    cfg.Keepers,
			This:     *this,
			ID:       id,
			Ready:    ready,
			Shutdown: shutdown,
			Interval: *interval,
		})
	}()

	<-ready
	fmt.Printf("Tribbler keeper %s keeping %d back ends every %v\n", id, len(cfg.Backs), *interval)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("\nShutting down keeper...")
	close(shutdown)
	if err := <-done; err != nil {
		log.Fatalf("Keeper exited with error: %v", err)
	}
	fmt.Println("Keeper gracefully stopped.")
}
