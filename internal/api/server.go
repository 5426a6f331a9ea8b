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

// Package api exposes a tribbler.Server over HTTP. User-level failures
// (bad names, duplicate sign-ups, follow conflicts) travel in the "err"
// field of a 200 response so clients can render them; only transport and
// storage faults surface as HTTP errors.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tribbler"
)

// Server handles the HTTP requests of the Tribbler front end.
type Server struct {
	srv tribbler.Server
}

// NewServer creates an API server around any tribbler.Server.
func NewServer(srv tribbler.Server) *Server {
	return &Server{srv: srv}
}

// RegisterRoutes sets up the HTTP routes for the server on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/add-user", s.handleAddUser)
	mux.HandleFunc("/api/list-users", s.handleListUsers)
	mux.HandleFunc("/api/post", s.handlePost)
	mux.HandleFunc("/api/list-tribs", s.handleListTribs)
	mux.HandleFunc("/api/list-home", s.handleListHome)
	mux.HandleFunc("/api/follow", s.handleFollow)
	mux.HandleFunc("/api/unfollow", s.handleUnfollow)
	mux.HandleFunc("/api/is-following", s.handleIsFollowing)
	mux.HandleFunc("/api/following", s.handleFollowing)
}

// Request bodies.

type userRequest struct {
	User string `json:"user"`
}

type whoWhomRequest struct {
	Who  string `json:"who"`
	Whom string `json:"whom"`
}

type postRequest struct {
	Who     string `json:"who"`
	Message string `json:"message"`
	Clock   uint64 `json:"clock"`
}

// Reply envelopes. Err is empty on success.

type okReply struct {
	Err string `json:"err"`
}

type userListReply struct {
	Err   string   `json:"err"`
	Users []string `json:"users"`
}

type tribListReply struct {
	Err   string           `json:"err"`
	Tribs []*tribbler.Trib `json:"tribs"`
}

type boolReply struct {
	Err string `json:"err"`
	V   bool   `json:"v"`
}

// isUserError reports whether err belongs to the service's error taxonomy,
// as opposed to a storage or transport fault.
func isUserError(err error) bool {
	var (
		invalid *tribbler.InvalidUsernameError
		taken   *tribbler.UsernameTakenError
		missing *tribbler.UserDoesNotExistError
		already *tribbler.AlreadyFollowingError
		not     *tribbler.NotFollowingError
		pair    *tribbler.WhoWhomError
	)
	return errors.Is(err, tribbler.ErrTribTooLong) ||
		errors.Is(err, tribbler.ErrFollowingTooMany) ||
		errors.As(err, &invalid) ||
		errors.As(err, &taken) ||
		errors.As(err, &missing) ||
		errors.As(err, &already) ||
		errors.As(err, &not) ||
		errors.As(err, &pair)
}

// errString converts a service result into the envelope's Err field.
func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("bad request: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

// reply writes the envelope, or a 500 if err is not a user-level error.
func reply(w http.ResponseWriter, err error, v any) {
	if err != nil && !isUserError(err) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if encodeErr := json.NewEncoder(w).Encode(v); encodeErr != nil {
		fmt.Printf("api: encode response: %v\n", encodeErr)
	}
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decode(w, r, &req) {
		return
	}
	err := s.srv.SignUp(r.Context(), req.User)
	reply(w, err, okReply{Err: errString(err)})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.srv.ListUsers(r.Context())
	if users == nil {
		users = []string{}
	}
	reply(w, err, userListReply{Err: errString(err), Users: users})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if !decode(w, r, &req) {
		return
	}
	err := s.srv.Post(r.Context(), req.Who, req.Message, req.Clock)
	reply(w, err, okReply{Err: errString(err)})
}

func (s *Server) handleListTribs(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decode(w, r, &req) {
		return
	}
	tribs, err := s.srv.Tribs(r.Context(), req.User)
	if tribs == nil {
		tribs = []*tribbler.Trib{}
	}
	reply(w, err, tribListReply{Err: errString(err), Tribs: tribs})
}

func (s *Server) handleListHome(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decode(w, r, &req) {
		return
	}
	tribs, err := s.srv.Home(r.Context(), req.User)
	if tribs == nil {
		tribs = []*tribbler.Trib{}
	}
	reply(w, err, tribListReply{Err: errString(err), Tribs: tribs})
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	var req whoWhomRequest
	if !decode(w, r, &req) {
		return
	}
	err := s.srv.Follow(r.Context(), req.Who, req.Whom)
	reply(w, err, okReply{Err: errString(err)})
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	var req whoWhomRequest
	if !decode(w, r, &req) {
		return
	}
	err := s.srv.Unfollow(r.Context(), req.Who, req.Whom)
	reply(w, err, okReply{Err: errString(err)})
}

func (s *Server) handleIsFollowing(w http.ResponseWriter, r *http.Request) {
	var req whoWhomRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := s.srv.IsFollowing(r.Context(), req.Who, req.Whom)
	reply(w, err, boolReply{Err: errString(err), V: v})
}

func (s *Server) handleFollowing(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decode(w, r, &req) {
		return
	}
	users, err := s.srv.Following(r.Context(), req.User)
	if users == nil {
		users = []string{}
	}
	reply(w, err, userListReply{Err: errString(err), Users: users})
}

// ListenAndServe starts the HTTP server on the specified address.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	fmt.Printf("Tribbler API server listening on %s\n", addr)
	return httpServer.ListenAndServe()
}
