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

// Package keeper runs the background clock synchronizer. Each back end
// issues logical timestamps from its own counter; the keeper periodically
// max-merges those counters so a timestamp issued on one back end is not
// re-used by another beyond a short delay window. This is a weak
// max-broadcast, not consensus.
package keeper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tribbler"
	"tribbler/internal/kvrpc"
)

// DefaultInterval is the pause between synchronization rounds.
const DefaultInterval = time.Second

// Config configures one keeper process.
type Config struct {
	// Backs are the host:port addresses of the KV back ends to keep in
	// sync, in a fixed order shared by every keeper.
	Backs []string
	// Addrs are the addresses of all keepers; This indexes ours.
	Addrs []string
	This  int
	// ID identifies this keeper instance in logs.
	ID uuid.UUID
	// Ready, when non-nil, receives true once, right after the keeper
	// task has started and before its first round.
	Ready chan<- bool
	// Shutdown, when non-nil, stops the keeper when it fires.
	Shutdown <-chan struct{}
	// Interval overrides DefaultInterval when positive.
	Interval time.Duration
	// Dial overrides the back-end transport; nil means kvrpc over HTTP.
	Dial func(addr string) tribbler.Storage
}

// Serve runs the keeper until Shutdown fires, then returns nil. It signals
// Ready before the first round. A back end that fails during a round is
// skipped for that round and retried on the next tick; the remaining back
// ends keep synchronizing.
func Serve(cfg Config) error {
	dial := cfg.Dial
	if dial == nil {
		dial = func(addr string) tribbler.Storage { return kvrpc.NewClient(addr) }
	}
	clients := make([]tribbler.Storage, len(cfg.Backs))
	for i, addr := range cfg.Backs {
		clients[i] = dial(addr)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	// In-flight RPCs abort as soon as shutdown is requested.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Shutdown != nil {
		go func() {
			<-cfg.Shutdown
			cancel()
		}()
	}

	if cfg.ID != (uuid.UUID{}) {
		fmt.Printf("keeper %s: syncing %d back ends every %v\n", cfg.ID, len(cfg.Backs), interval)
	}
	if cfg.Ready != nil {
		cfg.Ready <- true
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		syncRound(ctx, clients)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// syncRound runs the two-pass max-merge. The first pass collects the
// global maximum; the second pushes it to lagging back ends. After a clean
// second pass every back end's counter is at or above the pre-round global
// maximum.
func syncRound(ctx context.Context, clients []tribbler.Storage) {
	syncRounds.Inc()
	var clock uint64
	errs := 0
	for pass := 0; pass < 2; pass++ {
		for i, c := range clients {
			v, err := c.Clock(ctx, clock)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				syncErrors.Inc()
				errs++
				fmt.Printf("keeper: back end %d clock sync failed: %v\n", i, err)
				continue
			}
			if v > clock {
				clock = v
			}
		}
	}
	if errs == 0 {
		lastSyncedClock.Set(float64(clock))
	}
}
