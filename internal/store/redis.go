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
	"errors"
	"fmt"
	"sort"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"tribbler"
)

// Redis key namespaces. String keys and list keys live in separate
// namespaces so that a string key and a list key with the same logical name
// never collide, mirroring MemStorage's two maps.
const (
	redisStrPrefix  = "s:"
	redisListPrefix = "l:"
	redisClockKey   = "clock"
)

// redisClockScript implements the Clock contract atomically on the server:
// it returns max(atLeast, counter) and advances the counter one past the
// returned value. Run under EVAL, so concurrent callers never observe the
// same value twice.
const redisClockScript = `
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local at = tonumber(ARGV[1])
local ret = cur
if at > ret then
  ret = at
end
redis.call('SET', KEYS[1], ret + 1)
return ret
`

// RedisStorage is a tribbler.Storage backed by a Redis server, for
// deployments that want back-end state to survive a process restart. It
// uses github.com/redis/go-redis/v9 under the hood.
type RedisStorage struct {
	c redis.Cmdable
}

// NewRedisStorage wraps an existing go-redis client.
func NewRedisStorage(c redis.Cmdable) *RedisStorage {
	return &RedisStorage{c: c}
}

// DialRedis builds a RedisStorage for the Redis server at addr, e.g.
// "127.0.0.1:6379".
func DialRedis(addr string) *RedisStorage {
	return NewRedisStorage(redis.NewClient(&redis.Options{Addr: addr}))
}

func (r *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.c.Get(ctx, redisStrPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (r *RedisStorage) Set(ctx context.Context, kv tribbler.KeyValue) (bool, error) {
	if err := r.c.Set(ctx, redisStrPrefix+kv.Key, kv.Value, 0).Err(); err != nil {
		return false, fmt.Errorf("redis set: %w", err)
	}
	return true, nil
}

func (r *RedisStorage) Keys(ctx context.Context, p tribbler.Pattern) ([]string, error) {
	return r.scanKeys(ctx, redisStrPrefix, p)
}

func (r *RedisStorage) ListGet(ctx context.Context, key string) ([]string, error) {
	vals, err := r.c.LRange(ctx, redisListPrefix+key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	return vals, nil
}

func (r *RedisStorage) ListAppend(ctx context.Context, kv tribbler.KeyValue) (bool, error) {
	if err := r.c.RPush(ctx, redisListPrefix+kv.Key, kv.Value).Err(); err != nil {
		return false, fmt.Errorf("redis rpush: %w", err)
	}
	return true, nil
}

func (r *RedisStorage) ListRemove(ctx context.Context, kv tribbler.KeyValue) (int, error) {
	n, err := r.c.LRem(ctx, redisListPrefix+kv.Key, 0, kv.Value).Result()
	if err != nil {
		return 0, fmt.Errorf("redis lrem: %w", err)
	}
	return int(n), nil
}

func (r *RedisStorage) ListKeys(ctx context.Context, p tribbler.Pattern) ([]string, error) {
	return r.scanKeys(ctx, redisListPrefix, p)
}

func (r *RedisStorage) Clock(ctx context.Context, atLeast uint64) (uint64, error) {
	v, err := r.c.Eval(ctx, redisClockScript, []string{redisClockKey}, atLeast).Result()
	if err != nil {
		return 0, fmt.Errorf("redis clock eval: %w", err)
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("redis clock eval: unexpected reply %T", v)
	}
	return uint64(n), nil
}

// scanKeys walks the given namespace with SCAN and filters the logical key
// names against p client-side, so pattern semantics stay identical to
// MemStorage regardless of Redis glob rules.
func (r *RedisStorage) scanKeys(ctx context.Context, namespace string, p tribbler.Pattern) ([]string, error) {
	keys := []string{}
	var cursor uint64
	for {
		batch, next, err := r.c.Scan(ctx, cursor, namespace+"*", 256).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan: %w", err)
		}
		for _, k := range batch {
			logical := strings.TrimPrefix(k, namespace)
			if p.Match(logical) {
				keys = append(keys, logical)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(keys)
	return keys, nil
}

var _ tribbler.Storage = (*RedisStorage)(nil)
