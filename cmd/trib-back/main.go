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

// Package main runs one Tribbler key-value back end. A cluster runs one
// trib-back process per address in the shared config file; each holds a
// disjoint shard of the key space, assigned to it by the front ends'
// bin router.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tribbler"
	"tribbler/internal/kvrpc"
	"tribbler/internal/store"
)

func main() {
	// 1. Parse configuration flags.
	// - addr: explicit listen address; overrides the config file.
	// - this: which entry of the config's back-end list this process is.
	// - store: storage engine, "mem" or "redis".
	// - redis_addr: Redis server address when -store=redis.
	addr := flag.String("addr", "", "Listen address (host:port); overrides -config/-this")
	this := flag.Int("this", 0, "Index of this back end in the config file's back-end list")
	configPath := flag.String("config", tribbler.DefaultConfigPath, "Cluster config file")
	engine := flag.String("store", "mem", `Storage engine: "mem" or "redis"`)
	redisAddr := flag.String("redis_addr", "localhost:6379", "Redis address when -store=redis")
	flag.Parse()

	listen := *addr
	if listen == "" {
		cfg, err := tribbler.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Could not load cluster config: %v", err)
		}
		if *this < 0 || *this >= len(cfg.Backs) {
			log.Fatalf("-this=%d out of range: config lists %d back ends", *this, len(cfg.Backs))
		}
		listen = cfg.Backs[*this]
	}

	// 2. Build the storage engine.
	st, err := store.Build(*engine, store.Options{RedisAddr: *redisAddr})
	if err != nil {
		log.Fatalf("Could not build storage: %v", err)
	}

	// 3. Serve, stopping on SIGINT/SIGTERM.
	ready := make(chan bool, 1)
	shutdown := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- kvrpc.Serve(kvrpc.BackConfig{
			Addr:     listen,
			Store:    st,
			Ready:    ready,
			Shutdown: shutdown,
		})
	}()

	if ok := <-ready; !ok {
		log.Fatalf("Back end failed to bind %s: %v", listen, <-done)
	}
	fmt.Printf("Tribbler back end (%s) listening on %s\n", *engine, listen)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("\nShutting down back end...")
	close(shutdown)
	if err := <-done; err != nil {
		log.Fatalf("Back end exited with error: %v", err)
	}
	fmt.Println("Back end gracefully stopped.")
}
