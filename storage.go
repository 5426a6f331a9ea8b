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

package tribbler

import "context"

// KeyValue is a single key-value pair for Set, ListAppend, and ListRemove.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// KV is shorthand for constructing a KeyValue.
func KV(key, value string) KeyValue { return KeyValue{Key: key, Value: value} }

// Pattern selects keys by prefix and suffix. A zero Pattern matches every
// key.
type Pattern struct {
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
}

// Match reports whether key satisfies the pattern.
func (p Pattern) Match(key string) bool {
	return len(key) >= len(p.Prefix)+len(p.Suffix) &&
		key[:len(p.Prefix)] == p.Prefix &&
		key[len(key)-len(p.Suffix):] == p.Suffix
}

// Storage is the key-value surface of one back end. Every call may involve
// a network round trip; all calls take a context for cancellation. A
// back end linearizes its own operations: ListAppend returns only after the
// appended value is visible to a subsequent ListGet on that back end.
type Storage interface {
	// Get returns the value stored under key, with ok=false when key is
	// absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores kv.Value under kv.Key, replacing any prior value.
	Set(ctx context.Context, kv KeyValue) (bool, error)

	// Keys returns, in ascending order, the string keys matching p.
	Keys(ctx context.Context, p Pattern) ([]string, error)

	// ListGet returns the list stored under key, in append order. A
	// missing key yields an empty list.
	ListGet(ctx context.Context, key string) ([]string, error)

	// ListAppend appends kv.Value to the list under kv.Key.
	ListAppend(ctx context.Context, kv KeyValue) (bool, error)

	// ListRemove removes every occurrence of kv.Value from the list
	// under kv.Key and returns the number removed. Removing an absent
	// value is a no-op returning 0.
	ListRemove(ctx context.Context, kv KeyValue) (int, error)

	// ListKeys returns, in ascending order, the list keys matching p.
	ListKeys(ctx context.Context, p Pattern) ([]string, error)

	// Clock returns a logical timestamp that is at least atLeast and
	// strictly greater than every value this back end returned before.
	Clock(ctx context.Context, atLeast uint64) (uint64, error)
}

// BinStorage hands out per-user views ("bins") over a fleet of back ends.
// Bin never blocks; connections to the chosen back end are established
// lazily, so an unreachable back end surfaces only on the first Storage
// call of the returned bin.
type BinStorage interface {
	// Bin returns the bin for name. The empty name yields the general
	// bin used for cross-user records.
	Bin(name string) Storage
}
