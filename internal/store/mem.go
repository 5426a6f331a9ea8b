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

// Package store provides the storage engines a Tribbler back end can run
// on: an in-memory engine for tests and single-host deployments, and a
// Redis engine for durable deployments. Both implement tribbler.Storage.
package store

import (
	"context"
	"sort"
	"sync"

	"tribbler"
)

// MemStorage is an in-memory tribbler.Storage. It is safe for concurrent
// use; reads take shared access and writes exclusive access.
type MemStorage struct {
	mu    sync.RWMutex
	strs  map[string]string
	lists map[string][]string
	// clock is the next value Clock may return; every returned value is
	// strictly greater than all previously returned ones.
	clock uint64
}

// NewMemStorage returns an empty in-memory storage.
func NewMemStorage() *MemStorage {
	return &MemStorage{
		strs:  make(map[string]string),
		lists: make(map[string][]string),
	}
}

func (m *MemStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.strs[key]
	return v, ok, nil
}

func (m *MemStorage) Set(ctx context.Context, kv tribbler.KeyValue) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strs[kv.Key] = kv.Value
	return true, nil
}

func (m *MemStorage) Keys(ctx context.Context, p tribbler.Pattern) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := []string{}
	for k := range m.strs {
		if p.Match(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemStorage) ListGet(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	lst := m.lists[key]
	out := make([]string, len(lst))
	copy(out, lst)
	return out, nil
}

func (m *MemStorage) ListAppend(ctx context.Context, kv tribbler.KeyValue) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[kv.Key] = append(m.lists[kv.Key], kv.Value)
	return true, nil
}

func (m *MemStorage) ListRemove(ctx context.Context, kv tribbler.KeyValue) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	lst := m.lists[kv.Key]
	kept := lst[:0]
	removed := 0
	for _, v := range lst {
		if v == kv.Value {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	if len(kept) == 0 {
		delete(m.lists, kv.Key)
	} else {
		m.lists[kv.Key] = kept
	}
	return removed, nil
}

func (m *MemStorage) ListKeys(ctx context.Context, p tribbler.Pattern) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := []string{}
	for k := range m.lists {
		if p.Match(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Clock returns max(atLeast, next) where next is one past the previously
// returned value, and advances the counter past the result.
func (m *MemStorage) Clock(ctx context.Context, atLeast uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := m.clock
	if atLeast > ret {
		ret = atLeast
	}
	m.clock = ret + 1
	return ret, nil
}

var _ tribbler.Storage = (*MemStorage)(nil)
