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

package bins

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"tribbler"
	"tribbler/internal/store"
)

// memDialer routes each logical address onto its own in-process MemStorage,
// so bin tests run without the HTTP transport.
type memDialer struct {
	stores map[string]*store.MemStorage
}

func newMemDialer() *memDialer {
	return &memDialer{stores: make(map[string]*store.MemStorage)}
}

func (d *memDialer) dial(addr string) tribbler.Storage {
	if s, ok := d.stores[addr]; ok {
		return s
	}
	s := store.NewMemStorage()
	d.stores[addr] = s
	return s
}

func newTestClient(nBacks int) (*Client, *memDialer) {
	backs := make([]string, nBacks)
	for i := range backs {
		backs[i] = fmt.Sprintf("localhost:%d", 30000+i)
	}
	d := newMemDialer()
	return NewClientWithDialer(backs, d.dial), d
}

// TestClient_RouterDeterminism checks that the same name maps to the same
// back end across independently constructed clients with the same list.
func TestClient_RouterDeterminism(t *testing.T) {
	backs := []string{"b0:1", "b1:1", "b2:1"}
	c1 := NewClientWithDialer(backs, newMemDialer().dial)
	c2 := NewClientWithDialer(backs, newMemDialer().dial)

	for _, name := range []string{"", "alice", "bob", "h8liu", "fenglu", "a", "z9z9z9z9z9z9z9z"} {
		if got, want := c1.index(name), c2.index(name); got != want {
			t.Fatalf("index(%q) differs across clients: %d vs %d", name, got, want)
		}
		if idx := c1.index(name); idx < 0 || idx >= len(backs) {
			t.Fatalf("index(%q) = %d out of range", name, idx)
		}
	}
}

// TestClient_SingleBackendPerUser verifies all keys of one bin land on the
// same back end.
func TestClient_SingleBackendPerUser(t *testing.T) {
	c, d := newTestClient(3)
	ctx := context.Background()

	bin := c.Bin("alice")
	if _, err := bin.Set(ctx, tribbler.KV("k1", "v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := bin.ListAppend(ctx, tribbler.KV("tribs", "t1")); err != nil {
		t.Fatalf("append: %v", err)
	}

	holders := 0
	for _, s := range d.stores {
		keys, err := s.Keys(ctx, tribbler.Pattern{})
		if err != nil {
			t.Fatalf("keys: %v", err)
		}
		lkeys, err := s.ListKeys(ctx, tribbler.Pattern{})
		if err != nil {
			t.Fatalf("list keys: %v", err)
		}
		if len(keys)+len(lkeys) > 0 {
			holders++
		}
	}
	if holders != 1 {
		t.Fatalf("alice's keys spread over %d back ends, want 1", holders)
	}
}

// TestView_KeyNamespacing verifies physical layout and that two bins (and
// the general bin) never observe each other's keys.
func TestView_KeyNamespacing(t *testing.T) {
	back := store.NewMemStorage()
	ctx := context.Background()

	alice := newView(tribbler.Escape("alice"), back)
	bob := newView(tribbler.Escape("bob"), back)
	general := newView(tribbler.Escape(""), back)

	for _, tc := range []struct {
		bin tribbler.Storage
		key string
	}{
		{alice, "k"},
		{bob, "k"},
		{general, "signup_alice"},
	} {
		if _, err := tc.bin.Set(ctx, tribbler.KV(tc.key, "v")); err != nil {
			t.Fatalf("set: %v", err)
		}
	}

	// Physical keys carry the escaped bin header.
	phys, err := back.Keys(ctx, tribbler.Pattern{})
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	want := []string{"::signup_alice", "alice::k", "bob::k"}
	if !reflect.DeepEqual(phys, want) {
		t.Fatalf("physical keys = %v, want %v", phys, want)
	}

	// Each bin sees only its own logical keys, header stripped.
	got, err := alice.Keys(ctx, tribbler.Pattern{})
	if err != nil || !reflect.DeepEqual(got, []string{"k"}) {
		t.Fatalf("alice keys = %v err=%v", got, err)
	}
	got, err = general.Keys(ctx, tribbler.Pattern{Prefix: "signup_"})
	if err != nil || !reflect.DeepEqual(got, []string{"signup_alice"}) {
		t.Fatalf("general keys = %v err=%v", got, err)
	}

	// Values stay per-bin as well.
	if v, ok, err := bob.Get(ctx, "k"); err != nil || !ok || v != "v" {
		t.Fatalf("bob get = %q ok=%v err=%v", v, ok, err)
	}
	if _, ok, err := alice.Get(ctx, "signup_alice"); err != nil || ok {
		t.Fatalf("alice must not see general bin keys (ok=%v err=%v)", ok, err)
	}
}

// TestView_ColonEscaping verifies keys containing colons are rewritten
// consistently: a bin reads back exactly what it wrote under such a key,
// and the general bin prefix "::" never collides with a real user bin.
func TestView_ColonEscaping(t *testing.T) {
	back := store.NewMemStorage()
	ctx := context.Background()

	alice := newView(tribbler.Escape("alice"), back)
	general := newView(tribbler.Escape(""), back)

	if _, err := alice.Set(ctx, tribbler.KV("a:b", "1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, _ := alice.Get(ctx, "a:b"); !ok || v != "1" {
		t.Fatalf("colon key round-trip = %q ok=%v", v, ok)
	}

	// A user bin always starts with a letter, the general bin with "::";
	// the namespaces are disjoint.
	if _, err := general.Set(ctx, tribbler.KV("alice", "2")); err != nil {
		t.Fatalf("set: %v", err)
	}
	phys, err := back.Keys(ctx, tribbler.Pattern{})
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	want := []string{"::alice", "alice::a::b"}
	if !reflect.DeepEqual(phys, want) {
		t.Fatalf("physical keys = %v, want %v", phys, want)
	}
}

// TestView_ListOpsAndClock covers the list surface and clock forwarding
// through a bin.
func TestView_ListOpsAndClock(t *testing.T) {
	c, _ := newTestClient(3)
	ctx := context.Background()
	bin := c.Bin("bob")

	for _, v := range []string{"one", "two", "one"} {
		if _, err := bin.ListAppend(ctx, tribbler.KV("log", v)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	lst, err := bin.ListGet(ctx, "log")
	if err != nil || !reflect.DeepEqual(lst, []string{"one", "two", "one"}) {
		t.Fatalf("list get = %v err=%v", lst, err)
	}
	if n, err := bin.ListRemove(ctx, tribbler.KV("log", "one")); err != nil || n != 2 {
		t.Fatalf("list remove = %d err=%v", n, err)
	}
	lkeys, err := bin.ListKeys(ctx, tribbler.Pattern{})
	if err != nil || !reflect.DeepEqual(lkeys, []string{"log"}) {
		t.Fatalf("list keys = %v err=%v", lkeys, err)
	}

	c1, err := bin.Clock(ctx, 7)
	if err != nil || c1 < 7 {
		t.Fatalf("clock = %d err=%v", c1, err)
	}
	c2, err := bin.Clock(ctx, 0)
	if err != nil || c2 <= c1 {
		t.Fatalf("clock not monotonic through bin: %d then %d err=%v", c1, c2, err)
	}
}
