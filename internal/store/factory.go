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

package store

import (
	"errors"
	"fmt"

	"tribbler"
)

// Options holds the knobs for Build.
type Options struct {
	// RedisAddr is the Redis server address for the "redis" engine,
	// e.g. "127.0.0.1:6379".
	RedisAddr string
}

// Build constructs a storage engine for a back end based on a string
// selector. Supported engines:
//   - "mem" (default): in-memory, lost on restart
//   - "redis": durable, backed by the Redis server at opts.RedisAddr
func Build(engine string, opts Options) (tribbler.Storage, error) {
	switch engine {
	case "", "mem":
		return NewMemStorage(), nil
	case "redis":
		if opts.RedisAddr == "" {
			return nil, errors.New("redis engine requires a redis address")
		}
		return DialRedis(opts.RedisAddr), nil
	default:
		return nil, fmt.Errorf("unknown storage engine: %s", engine)
	}
}
