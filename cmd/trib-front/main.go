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

// Package main runs a Tribbler front-end HTTP server. In "bins" mode it is
// stateless and serves the cluster described by the config file; any number
// of front ends can run side by side. In "ref" mode it serves a
// single-process in-memory implementation, handy for local development
// without back ends.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tribbler"
	"tribbler/internal/api"
	"tribbler/internal/bins"
	"tribbler/internal/front"
	"tribbler/internal/ref"
)

func main() {
	// 1. Parse configuration flags.
	httpAddr := flag.String("http_addr", ":8080", "HTTP listen address (e.g., :8080)")
	serverType := flag.String("server_type", "bins", `Implementation: "bins" (distributed) or "ref" (in-memory)`)
	configPath := flag.String("config", tribbler.DefaultConfigPath, "Cluster config file (bins mode)")
	populate := flag.Bool("populate", false, "Seed the service with demo users and posts")
	metricsAddr := flag.String("metrics_addr", "", "If non-empty, expose Prometheus /metrics on this address (e.g., :9090)")
	flag.Parse()

	// 2. Build the service implementation.
	var srv tribbler.Server
	switch *serverType {
	case "bins":
		cfg, err := tribbler.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Could not load cluster config: %v", err)
		}
		srv = front.NewServer(bins.NewClient(cfg.Backs))
	case "ref":
		srv = ref.NewServer()
	default:
		log.Fatalf("Unknown -server_type %q", *serverType)
	}

	if *populate {
		if err := api.Populate(context.Background(), srv); err != nil {
			log.Fatalf("Could not populate demo data: %v", err)
		}
		fmt.Println("Seeded demo users and posts.")
	}

	// 3. Optionally expose metrics.
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			fmt.Printf("Front-end metrics listening on %s\n", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Fatalf("Metrics server failed: %v", err)
			}
		}()
	}

	// 4. Set up the HTTP server and routes. The http.Server lives in main
	// so shutdown stays graceful.
	mux := http.NewServeMux()
	api.NewServer(srv).RegisterRoutes(mux)
	httpServer := &http.Server{
		Addr:    *httpAddr,
		Handler: mux,
	}

	go func() {
		fmt.Printf("Tribbler front end (%s) listening on %s\n", *serverType, *httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", *httpAddr, err)
		}
	}()

	// 5. Graceful shutdown on SIGINT/SIGTERM.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("\nShutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	fmt.Println("Server gracefully stopped.")
}
