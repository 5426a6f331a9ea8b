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

package keeper

import "github.com/prometheus/client_golang/prometheus"

var (
	syncRounds = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tribbler_keeper_sync_rounds_total",
		Help: "Total clock synchronization rounds attempted",
	})
	syncErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tribbler_keeper_sync_errors_total",
		Help: "Total per-back-end clock RPC failures during synchronization",
	})
	lastSyncedClock = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tribbler_keeper_clock",
		Help: "Logical clock value after the last fully successful round",
	})
)

func init() {
	prometheus.MustRegister(syncRounds, syncErrors, lastSyncedClock)
}
