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

// Package ref is a single-process, in-memory implementation of
// tribbler.Server. It exists for local development runs of the HTTP front
// end and as a semantics oracle in tests; it shares no code with the
// distributed implementation in internal/front but honors the same
// contract and error taxonomy.
package ref

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"tribbler"
)

// userRecord holds everything known about one user.
type userRecord struct {
	tribs     []*tribbler.Trib
	following map[string]bool
}

// Server implements tribbler.Server in memory. Safe for concurrent use.
type Server struct {
	mu    sync.RWMutex
	users map[string]*userRecord
	seq   atomic.Uint64
}

// NewServer returns an empty reference server.
func NewServer() *Server {
	return &Server{users: make(map[string]*userRecord)}
}

// nextClock issues a fresh logical timestamp no smaller than atLeast.
func (s *Server) nextClock(atLeast uint64) uint64 {
	for {
		cur := s.seq.Load()
		ret := cur
		if atLeast > ret {
			ret = atLeast
		}
		if s.seq.CompareAndSwap(cur, ret+1) {
			return ret
		}
	}
}

func (s *Server) SignUp(ctx context.Context, user string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !tribbler.IsValidUsername(user) {
		return &tribbler.InvalidUsernameError{Name: user}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user]; ok {
		return &tribbler.UsernameTakenError{Name: user}
	}
	s.users[user] = &userRecord{following: make(map[string]bool)}
	return nil
}

func (s *Server) ListUsers(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]string, 0, len(s.users))
	for u := range s.users {
		users = append(users, u)
	}
	sort.Strings(users)
	if len(users) > tribbler.MinListUser {
		users = users[:tribbler.MinListUser]
	}
	return users, nil
}

func (s *Server) Post(ctx context.Context, who, post string, clock uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !tribbler.IsValidUsername(who) {
		return &tribbler.InvalidUsernameError{Name: who}
	}
	if len(post) > tribbler.MaxTribLen {
		return tribbler.ErrTribTooLong
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[who]
	if !ok {
		return &tribbler.UserDoesNotExistError{Name: who}
	}
	rec.tribs = append(rec.tribs, &tribbler.Trib{
		User:    who,
		Message: post,
		Time:    uint64(time.Now().Unix()),
		Clock:   s.nextClock(clock),
	})
	return nil
}

func (s *Server) Tribs(ctx context.Context, user string) ([]*tribbler.Trib, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !tribbler.IsValidUsername(user) {
		return nil, &tribbler.InvalidUsernameError{Name: user}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[user]
	if !ok {
		return nil, &tribbler.UserDoesNotExistError{Name: user}
	}
	tribbler.SortTribs(rec.tribs)
	if len(rec.tribs) > tribbler.MaxTribFetch {
		rec.tribs = rec.tribs[len(rec.tribs)-tribbler.MaxTribFetch:]
	}
	out := make([]*tribbler.Trib, len(rec.tribs))
	copy(out, rec.tribs)
	return out, nil
}

// checkPair validates the follow-family argument pair and returns the two
// records under the caller's lock.
func (s *Server) checkPair(who, whom string) (*userRecord, error) {
	if who == whom {
		return nil, &tribbler.WhoWhomError{Name: who}
	}
	if !tribbler.IsValidUsername(who) {
		return nil, &tribbler.InvalidUsernameError{Name: who}
	}
	if !tribbler.IsValidUsername(whom) {
		return nil, &tribbler.InvalidUsernameError{Name: whom}
	}
	rec, ok := s.users[who]
	if !ok {
		return nil, &tribbler.UserDoesNotExistError{Name: who}
	}
	if _, ok := s.users[whom]; !ok {
		return nil, &tribbler.UserDoesNotExistError{Name: whom}
	}
	return rec, nil
}

func (s *Server) Follow(ctx context.Context, who, whom string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.checkPair(who, whom)
	if err != nil {
		return err
	}
	if rec.following[whom] {
		return &tribbler.AlreadyFollowingError{Who: who, Whom: whom}
	}
	if len(rec.following) >= tribbler.MaxFollowing {
		return tribbler.ErrFollowingTooMany
	}
	rec.following[whom] = true
	return nil
}

func (s *Server) Unfollow(ctx context.Context, who, whom string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.checkPair(who, whom)
	if err != nil {
		return err
	}
	if !rec.following[whom] {
		return &tribbler.NotFollowingError{Who: who, Whom: whom}
	}
	delete(rec.following, whom)
	return nil
}

func (s *Server) IsFollowing(ctx context.Context, who, whom string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, err := s.checkPair(who, whom)
	if err != nil {
		return false, err
	}
	return rec.following[whom], nil
}

func (s *Server) Following(ctx context.Context, who string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !tribbler.IsValidUsername(who) {
		return nil, &tribbler.InvalidUsernameError{Name: who}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[who]
	if !ok {
		return nil, &tribbler.UserDoesNotExistError{Name: who}
	}
	users := make([]string, 0, len(rec.following))
	for u := range rec.following {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

func (s *Server) Home(ctx context.Context, user string) ([]*tribbler.Trib, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tribs, err := s.Tribs(ctx, user)
	if err != nil {
		return nil, err
	}
	followees, err := s.Following(ctx, user)
	if err != nil {
		return nil, err
	}
	for _, f := range followees {
		ft, err := s.Tribs(ctx, f)
		if err != nil {
			return nil, err
		}
		tribs = append(tribs, ft...)
	}
	tribbler.SortTribs(tribs)
	if len(tribs) > tribbler.MaxTribFetch {
		tribs = tribs[len(tribs)-tribbler.MaxTribFetch:]
	}
	return tribs, nil
}

var _ tribbler.Server = (*Server)(nil)
