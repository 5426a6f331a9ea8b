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

package kvrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tribbler"
)

// Client implements tribbler.Storage against one remote back end. It is
// cheap to construct, performs no I/O until the first call, and is safe for
// concurrent use.
type Client struct {
	base string
	hc   *http.Client
}

// NewClient returns a client for the back end at addr. addr may carry an
// http:// scheme already; a bare host:port is prefixed with one.
func NewClient(addr string) *Client {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &Client{
		base: strings.TrimSuffix(addr, "/"),
		hc:   http.DefaultClient,
	}
}

// call posts req as JSON to route and decodes the response body into resp.
// Non-200 statuses are surfaced as errors carrying the server's message.
func (c *Client) call(ctx context.Context, route string, req, resp interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("kvrpc %s: encode: %w", route, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+route, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("kvrpc %s: %w", route, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("kvrpc %s: %w", route, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		return fmt.Errorf("kvrpc %s: back end %s: %s", route, httpResp.Status, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		return fmt.Errorf("kvrpc %s: decode: %w", route, err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	var out valueReply
	if err := c.call(ctx, "/kv/get", keyRequest{Key: key}, &out); err != nil {
		return "", false, err
	}
	return out.Value, out.OK, nil
}

func (c *Client) Set(ctx context.Context, kv tribbler.KeyValue) (bool, error) {
	var out boolReply
	if err := c.call(ctx, "/kv/set", kv, &out); err != nil {
		return false, err
	}
	return out.OK, nil
}

func (c *Client) Keys(ctx context.Context, p tribbler.Pattern) ([]string, error) {
	var out keysReply
	if err := c.call(ctx, "/kv/keys", p, &out); err != nil {
		return nil, err
	}
	return out.Keys, nil
}

func (c *Client) ListGet(ctx context.Context, key string) ([]string, error) {
	var out valuesReply
	if err := c.call(ctx, "/kv/list-get", keyRequest{Key: key}, &out); err != nil {
		return nil, err
	}
	return out.Values, nil
}

func (c *Client) ListAppend(ctx context.Context, kv tribbler.KeyValue) (bool, error) {
	var out boolReply
	if err := c.call(ctx, "/kv/list-append", kv, &out); err != nil {
		return false, err
	}
	return out.OK, nil
}

func (c *Client) ListRemove(ctx context.Context, kv tribbler.KeyValue) (int, error) {
	var out countReply
	if err := c.call(ctx, "/kv/list-remove", kv, &out); err != nil {
		return 0, err
	}
	return out.N, nil
}

func (c *Client) ListKeys(ctx context.Context, p tribbler.Pattern) ([]string, error) {
	var out keysReply
	if err := c.call(ctx, "/kv/list-keys", p, &out); err != nil {
		return nil, err
	}
	return out.Keys, nil
}

func (c *Client) Clock(ctx context.Context, atLeast uint64) (uint64, error) {
	var out clockReply
	if err := c.call(ctx, "/kv/clock", clockRequest{AtLeast: atLeast}, &out); err != nil {
		return 0, err
	}
	return out.Clock, nil
}

var _ tribbler.Storage = (*Client)(nil)
