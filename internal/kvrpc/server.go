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

// Package kvrpc carries the key-value surface of one back end over
// HTTP/JSON: one POST route per Storage operation, a storage error becomes
// a 500 with the error text as the body. The Server side binds any
// tribbler.Storage; the Client side implements tribbler.Storage against a
// remote back end.
package kvrpc

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"tribbler"
)

// Wire shapes shared by server and client.
type (
	keyRequest struct {
		Key string `json:"key"`
	}
	valueReply struct {
		Value string `json:"value"`
		OK    bool   `json:"ok"`
	}
	boolReply struct {
		OK bool `json:"ok"`
	}
	keysReply struct {
		Keys []string `json:"keys"`
	}
	valuesReply struct {
		Values []string `json:"values"`
	}
	countReply struct {
		N int `json:"n"`
	}
	clockRequest struct {
		AtLeast uint64 `json:"at_least"`
	}
	clockReply struct {
		Clock uint64 `json:"clock"`
	}
)

// BackConfig configures one back-end server process.
type BackConfig struct {
	// Addr is the host:port to listen on.
	Addr string
	// Store is the storage engine served by this back end.
	Store tribbler.Storage
	// Ready, when non-nil, receives true once the listener is up (or
	// false if binding failed).
	Ready chan<- bool
	// Shutdown, when non-nil, stops the server when it fires.
	Shutdown <-chan struct{}
}

// Serve runs a back end until Shutdown fires or the listener fails. It
// returns nil on graceful shutdown.
func Serve(cfg BackConfig) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		if cfg.Ready != nil {
			cfg.Ready <- false
		}
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}

	srv := &http.Server{
		Handler:      NewHandler(cfg.Store),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errc <- err
			return
		}
		errc <- nil
	}()

	if cfg.Ready != nil {
		cfg.Ready <- true
	}

	if cfg.Shutdown == nil {
		return <-errc
	}
	select {
	case err := <-errc:
		return err
	case <-cfg.Shutdown:
		_ = srv.Close()
		<-errc
		return nil
	}
}

// NewHandler returns the HTTP handler exposing store. Split out from Serve
// so tests can mount it on an httptest.Server.
func NewHandler(store tribbler.Storage) http.Handler {
	mux := http.NewServeMux()
	h := &handler{store: store}
	mux.HandleFunc("/kv/get", h.get)
	mux.HandleFunc("/kv/set", h.set)
	mux.HandleFunc("/kv/keys", h.keys)
	mux.HandleFunc("/kv/list-get", h.listGet)
	mux.HandleFunc("/kv/list-append", h.listAppend)
	mux.HandleFunc("/kv/list-remove", h.listRemove)
	mux.HandleFunc("/kv/list-keys", h.listKeys)
	mux.HandleFunc("/kv/clock", h.clock)
	return mux
}

type handler struct {
	store tribbler.Storage
}

// decode parses the JSON request body into v; on failure it writes a 400
// and reports false.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("bad request: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

// reply writes v as the JSON response, or a 500 carrying opErr's text.
func reply(w http.ResponseWriter, v interface{}, opErr error) {
	if opErr != nil {
		http.Error(w, opErr.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if !decode(w, r, &req) {
		return
	}
	v, ok, err := h.store.Get(r.Context(), req.Key)
	reply(w, valueReply{Value: v, OK: ok}, err)
}

func (h *handler) set(w http.ResponseWriter, r *http.Request) {
	var kv tribbler.KeyValue
	if !decode(w, r, &kv) {
		return
	}
	ok, err := h.store.Set(r.Context(), kv)
	reply(w, boolReply{OK: ok}, err)
}

func (h *handler) keys(w http.ResponseWriter, r *http.Request) {
	var p tribbler.Pattern
	if !decode(w, r, &p) {
		return
	}
	keys, err := h.store.Keys(r.Context(), p)
	reply(w, keysReply{Keys: keys}, err)
}

func (h *handler) listGet(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if !decode(w, r, &req) {
		return
	}
	vals, err := h.store.ListGet(r.Context(), req.Key)
	reply(w, valuesReply{Values: vals}, err)
}

func (h *handler) listAppend(w http.ResponseWriter, r *http.Request) {
	var kv tribbler.KeyValue
	if !decode(w, r, &kv) {
		return
	}
	ok, err := h.store.ListAppend(r.Context(), kv)
	reply(w, boolReply{OK: ok}, err)
}

func (h *handler) listRemove(w http.ResponseWriter, r *http.Request) {
	var kv tribbler.KeyValue
	if !decode(w, r, &kv) {
		return
	}
	n, err := h.store.ListRemove(r.Context(), kv)
	reply(w, countReply{N: n}, err)
}

func (h *handler) listKeys(w http.ResponseWriter, r *http.Request) {
	var p tribbler.Pattern
	if !decode(w, r, &p) {
		return
	}
	keys, err := h.store.ListKeys(r.Context(), p)
	reply(w, keysReply{Keys: keys}, err)
}

func (h *handler) clock(w http.ResponseWriter, r *http.Request) {
	var req clockRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.store.Clock(r.Context(), req.AtLeast)
	reply(w, clockReply{Clock: c}, err)
}
