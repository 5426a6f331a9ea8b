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

// Package bins routes per-user key namespaces ("bins") onto a fleet of KV
// back ends. A user name is hashed onto one back end, so every key of one
// user lives on a single back end and per-user operations never span
// machines.
package bins

import (
	"hash/fnv"
	"strings"
	"sync"

	"tribbler"
	"tribbler/internal/kvrpc"
)

// Dialer builds a Storage client for one back-end address. Injected so
// tests can route bins onto in-process storages.
type Dialer func(addr string) tribbler.Storage

// Client implements tribbler.BinStorage over a fixed list of back ends.
// Construction performs no I/O; per-back-end clients are built on first use
// and cached. Client is safe for concurrent use.
type Client struct {
	backs []string
	dial  Dialer

	mu      sync.Mutex
	clients []tribbler.Storage // indexed like backs, nil until first use
}

// NewClient returns a bin storage client for the given host:port back-end
// addresses, reached over the kvrpc HTTP transport.
func NewClient(backs []string) *Client {
	return NewClientWithDialer(backs, func(addr string) tribbler.Storage {
		return kvrpc.NewClient(addr)
	})
}

// NewClientWithDialer is NewClient with a custom transport.
func NewClientWithDialer(backs []string, dial Dialer) *Client {
	withScheme := make([]string, len(backs))
	for i, b := range backs {
		if strings.Contains(b, "://") {
			withScheme[i] = b
		} else {
			withScheme[i] = "http://" + b
		}
	}
	return &Client{
		backs:   withScheme,
		dial:    dial,
		clients: make([]tribbler.Storage, len(backs)),
	}
}

// Bin returns the bin for name on its home back end.
func (c *Client) Bin(name string) tribbler.Storage {
	return newView(tribbler.Escape(name), c.storageFor(c.index(name)))
}

// index deterministically maps a user name to a back-end slot. FNV-1a is
// fixed by the storage layout: every process sharing a back-end list must
// agree on the mapping.
func (c *Client) index(name string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int(h.Sum64() % uint64(len(c.backs)))
}

func (c *Client) storageFor(i int) tribbler.Storage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clients[i] == nil {
		c.clients[i] = c.dial(c.backs[i])
	}
	return c.clients[i]
}

var _ tribbler.BinStorage = (*Client)(nil)
