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
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
)

func newRedisStorageForTest(t *testing.T) *RedisStorage {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStorage(client)
}

func TestRedisStorage_Conformance(t *testing.T) {
	testStorageConformance(t, newRedisStorageForTest(t))
}

// TestRedisStorage_ClockPersistsCounter verifies the Lua clock script keeps
// its counter in Redis, so a reconnecting client continues where the
// previous one stopped.
func TestRedisStorage_ClockPersistsCounter(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	first := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s1 := NewRedisStorage(first)
	c1, err := s1.Clock(ctx, 10)
	if err != nil {
		t.Fatalf("clock: %v", err)
	}
	if c1 < 10 {
		t.Fatalf("clock = %d, want >= 10", c1)
	}
	_ = first.Close()

	second := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer second.Close()
	s2 := NewRedisStorage(second)
	c2, err := s2.Clock(ctx, 0)
	if err != nil {
		t.Fatalf("clock: %v", err)
	}
	if c2 <= c1 {
		t.Fatalf("clock regressed across clients: %d then %d", c1, c2)
	}
}
