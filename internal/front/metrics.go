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

package front

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	opsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tribbler_front_ops_total",
		Help: "Total front-end operations by name",
	}, []string{"op"})
	opErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tribbler_front_op_errors_total",
		Help: "Total front-end operations that returned an error, by name",
	}, []string{"op"})
	opDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tribbler_front_op_duration_seconds",
		Help:    "Front-end operation latency by name",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(opsTotal, opErrorsTotal, opDuration)
}

// instrument records one operation. Use as:
//
//	defer instrument("post", time.Now())(&err)
func instrument(op string, start time.Time) func(err *error) {
	return func(err *error) {
		opsTotal.WithLabelValues(op).Inc()
		opDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		if err != nil && *err != nil {
			opErrorsTotal.WithLabelValues(op).Inc()
		}
	}
}
