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

// Package store contains a storage conformance suite shared by the engine
// tests: every tribbler.Storage implementation must pass it.
package store

import (
	"context"
	"reflect"
	"testing"

	"tribbler"
)

// testStorageConformance exercises the full Storage surface against a fresh
// engine instance.
func testStorageConformance(t *testing.T, s tribbler.Storage) {
	t.Helper()
	ctx := context.Background()

	// Get on a missing key reports absence, not an error.
	if _, ok, err := s.Get(ctx, "nope"); err != nil || ok {
		t.Fatalf("get missing key: ok=%v err=%v", ok, err)
	}

	// Set then Get round-trips, and Set overwrites.
	if _, err := s.Set(ctx, tribbler.KV("a", "1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := s.Set(ctx, tribbler.KV("a", "2")); err != nil {
		t.Fatalf("set overwrite: %v", err)
	}
	if v, ok, err := s.Get(ctx, "a"); err != nil || !ok || v != "2" {
		t.Fatalf("get after set: v=%q ok=%v err=%v", v, ok, err)
	}

	// Keys honors prefix and suffix and sorts ascending.
	for _, kv := range []tribbler.KeyValue{
		tribbler.KV("user::tribs", "x"),
		tribbler.KV("user::log", "x"),
		tribbler.KV("other::tribs", "x"),
	} {
		if _, err := s.Set(ctx, kv); err != nil {
			t.Fatalf("set %q: %v", kv.Key, err)
		}
	}
	keys, err := s.Keys(ctx, tribbler.Pattern{Prefix: "user::"})
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	want := []string{"user::log", "user::tribs"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	keys, err = s.Keys(ctx, tribbler.Pattern{Suffix: "tribs"})
	if err != nil {
		t.Fatalf("keys by suffix: %v", err)
	}
	want = []string{"other::tribs", "user::tribs"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys by suffix = %v, want %v", keys, want)
	}

	// Lists keep append order; ListRemove removes every occurrence and
	// reports the count; removing an absent value is a no-op.
	if lst, err := s.ListGet(ctx, "lst"); err != nil || len(lst) != 0 {
		t.Fatalf("list get missing key: lst=%v err=%v", lst, err)
	}
	for _, v := range []string{"p", "q", "p", "r"} {
		if _, err := s.ListAppend(ctx, tribbler.KV("lst", v)); err != nil {
			t.Fatalf("list append: %v", err)
		}
	}
	lst, err := s.ListGet(ctx, "lst")
	if err != nil || !reflect.DeepEqual(lst, []string{"p", "q", "p", "r"}) {
		t.Fatalf("list get = %v err=%v", lst, err)
	}
	n, err := s.ListRemove(ctx, tribbler.KV("lst", "p"))
	if err != nil || n != 2 {
		t.Fatalf("list remove = %d err=%v, want 2", n, err)
	}
	n, err = s.ListRemove(ctx, tribbler.KV("lst", "absent"))
	if err != nil || n != 0 {
		t.Fatalf("list remove absent = %d err=%v, want 0", n, err)
	}
	lst, err = s.ListGet(ctx, "lst")
	if err != nil || !reflect.DeepEqual(lst, []string{"q", "r"}) {
		t.Fatalf("list get after remove = %v err=%v", lst, err)
	}

	// ListKeys only sees list keys, not string keys.
	lkeys, err := s.ListKeys(ctx, tribbler.Pattern{})
	if err != nil || !reflect.DeepEqual(lkeys, []string{"lst"}) {
		t.Fatalf("list keys = %v err=%v", lkeys, err)
	}

	// Clock is monotonic and honors the lower bound.
	c1, err := s.Clock(ctx, 0)
	if err != nil {
		t.Fatalf("clock: %v", err)
	}
	c2, err := s.Clock(ctx, 0)
	if err != nil {
		t.Fatalf("clock: %v", err)
	}
	if c2 <= c1 {
		t.Fatalf("clock not monotonic: %d then %d", c1, c2)
	}
	c3, err := s.Clock(ctx, 1000)
	if err != nil {
		t.Fatalf("clock: %v", err)
	}
	if c3 < 1000 {
		t.Fatalf("clock ignored lower bound: got %d, want >= 1000", c3)
	}
	c4, err := s.Clock(ctx, 0)
	if err != nil {
		t.Fatalf("clock: %v", err)
	}
	if c4 <= c3 {
		t.Fatalf("clock regressed after bound: %d then %d", c3, c4)
	}
}

// TestStorage_ContextCanceled verifies engines fail fast on a canceled
// context instead of touching state.
func TestStorage_ContextCanceled(t *testing.T) {
	s := NewMemStorage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Set(ctx, tribbler.KV("a", "1")); err == nil {
		t.Fatalf("expected error from canceled context")
	}
	if _, _, err := s.Get(ctx, "a"); err == nil {
		t.Fatalf("expected error from canceled context")
	}
	if _, err := s.Clock(ctx, 0); err == nil {
		t.Fatalf("expected error from canceled context")
	}
}
