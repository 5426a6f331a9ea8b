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

	"tribbler"
)

// view is the per-user bin: a tribbler.Storage that rewrites every logical
// key k to the physical key escape(user) + "::" + escape(k) on the
// underlying back end. On logical keys free of colons the rewrite is a
// bijection, so pattern operations return exactly the keys of this user's
// namespace. The empty user name yields the general bin with physical
// prefix "::".
type view struct {
	// prefix is escape(user) + "::".
	prefix string
	back   tribbler.Storage
}

func newView(escapedName string, back tribbler.Storage) *view {
	return &view{prefix: escapedName + "::", back: back}
}

func (v *view) physical(key string) string {
	return v.prefix + tribbler.Escape(key)
}

// rewrite maps a logical pattern onto the physical key space. Escape
// distributes over concatenation, so an escaped prefix/suffix matches the
// physical key exactly when the logical one matches the logical key.
func (v *view) rewrite(p tribbler.Pattern) tribbler.Pattern {
	return tribbler.Pattern{
		Prefix: v.prefix + tribbler.Escape(p.Prefix),
		Suffix: tribbler.Escape(p.Suffix),
	}
}

func (v *view) Get(ctx context.Context, key string) (string, bool, error) {
	return v.back.Get(ctx, v.physical(key))
}

func (v *view) Set(ctx context.Context, kv tribbler.KeyValue) (bool, error) {
	return v.back.Set(ctx, tribbler.KV(v.physical(kv.Key), kv.Value))
}

func (v *view) Keys(ctx context.Context, p tribbler.Pattern) ([]string, error) {
	keys, err := v.back.Keys(ctx, v.rewrite(p))
	if err != nil {
		return nil, err
	}
	return v.strip(keys), nil
}

func (v *view) ListGet(ctx context.Context, key string) ([]string, error) {
	return v.back.ListGet(ctx, v.physical(key))
}

func (v *view) ListAppend(ctx context.Context, kv tribbler.KeyValue) (bool, error) {
	return v.back.ListAppend(ctx, tribbler.KV(v.physical(kv.Key), kv.Value))
}

func (v *view) ListRemove(ctx context.Context, kv tribbler.KeyValue) (int, error) {
	return v.back.ListRemove(ctx, tribbler.KV(v.physical(kv.Key), kv.Value))
}

func (v *view) ListKeys(ctx context.Context, p tribbler.Pattern) ([]string, error) {
	keys, err := v.back.ListKeys(ctx, v.rewrite(p))
	if err != nil {
		return nil, err
	}
	return v.strip(keys), nil
}

// Clock is a per-back-end counter, not a per-bin one; it forwards
// unchanged.
func (v *view) Clock(ctx context.Context, atLeast uint64) (uint64, error) {
	return v.back.Clock(ctx, atLeast)
}

// strip removes the bin header from physical keys and undoes the escaping,
// so callers get back the logical keys they wrote.
func (v *view) strip(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, tribbler.Unescape(k[len(v.prefix):]))
	}
	return out
}

var _ tribbler.Storage = (*view)(nil)
