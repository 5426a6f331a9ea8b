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

// Package front implements the distributed Tribbler server on top of bin
// storage. It keeps no state of its own: every fact lives in the back
// ends, namespaced per user, so any number of front ends can serve the
// same cluster concurrently.
//
// Storage layout:
//
//	general bin:  signup_<user> = "T"      user exists (never deleted)
//	              list "cache"             first MinListUser names, sorted
//	user bin:     list "tribs"             JSON-serialized tribs
//	              list "log"               "<clock>::follow::<whom>" entries
package front

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"tribbler"
)

const (
	signupPrefix = "signup_"
	signupMark   = "T"
	cacheKey     = "cache"
	tribsKey     = "tribs"
	logKey       = "log"
	logSep       = "::"
)

// Server implements tribbler.Server over a BinStorage. It is stateless and
// safe for concurrent use.
type Server struct {
	bins tribbler.BinStorage
}

// NewServer returns a front end over the given bin storage.
func NewServer(bins tribbler.BinStorage) *Server {
	return &Server{bins: bins}
}

// checkSignedUp returns UserDoesNotExistError unless user has a signup
// marker in the general bin.
func (s *Server) checkSignedUp(ctx context.Context, user string) error {
	_, ok, err := s.bins.Bin("").Get(ctx, signupPrefix+user)
	if err != nil {
		return fmt.Errorf("check signup for %q: %w", user, err)
	}
	if !ok {
		return &tribbler.UserDoesNotExistError{Name: user}
	}
	return nil
}

func (s *Server) SignUp(ctx context.Context, user string) (err error) {
	defer instrument("sign_up", time.Now())(&err)
	if !tribbler.IsValidUsername(user) {
		return &tribbler.InvalidUsernameError{Name: user}
	}

	general := s.bins.Bin("")
	_, ok, err := general.Get(ctx, signupPrefix+user)
	if err != nil {
		return fmt.Errorf("sign up %q: %w", user, err)
	}
	if ok {
		return &tribbler.UsernameTakenError{Name: user}
	}
	// Two racing sign-ups may both observe absence and both set the
	// marker; both succeed, and the outcome is identical.
	if _, err := general.Set(ctx, tribbler.KV(signupPrefix+user, signupMark)); err != nil {
		return fmt.Errorf("sign up %q: %w", user, err)
	}
	return nil
}

func (s *Server) ListUsers(ctx context.Context) (users []string, err error) {
	defer instrument("list_users", time.Now())(&err)
	general := s.bins.Bin("")

	cached, err := general.ListGet(ctx, cacheKey)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if len(cached) >= tribbler.MinListUser {
		return cached, nil
	}

	// Cache miss: rebuild from the signup markers. The cache is refilled
	// only while it is short; once MinListUser names exist the list is
	// frozen and later sign-ups stay invisible here.
	keys, err := general.Keys(ctx, tribbler.Pattern{Prefix: signupPrefix})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	seen := make(map[string]bool, len(keys))
	users = make([]string, 0, len(keys))
	for _, k := range keys {
		name := strings.TrimPrefix(k, signupPrefix)
		if !seen[name] {
			seen[name] = true
			users = append(users, name)
		}
	}
	sort.Strings(users)
	if len(users) > tribbler.MinListUser {
		users = users[:tribbler.MinListUser]
	}

	for _, stale := range cached {
		if _, err := general.ListRemove(ctx, tribbler.KV(cacheKey, stale)); err != nil {
			return nil, fmt.Errorf("list users: clear cache: %w", err)
		}
	}
	for _, u := range users {
		if _, err := general.ListAppend(ctx, tribbler.KV(cacheKey, u)); err != nil {
			return nil, fmt.Errorf("list users: fill cache: %w", err)
		}
	}
	return users, nil
}

func (s *Server) Post(ctx context.Context, who, post string, clock uint64) (err error) {
	defer instrument("post", time.Now())(&err)
	if !tribbler.IsValidUsername(who) {
		return &tribbler.InvalidUsernameError{Name: who}
	}
	if len(post) > tribbler.MaxTribLen {
		return tribbler.ErrTribTooLong
	}
	if err := s.checkSignedUp(ctx, who); err != nil {
		return err
	}

	bin := s.bins.Bin(who)
	c, err := bin.Clock(ctx, clock)
	if err != nil {
		return fmt.Errorf("post: clock: %w", err)
	}
	trib := &tribbler.Trib{
		User:    who,
		Message: post,
		Time:    uint64(time.Now().Unix()),
		Clock:   c,
	}
	raw, err := json.Marshal(trib)
	if err != nil {
		return fmt.Errorf("post: encode trib: %w", err)
	}
	if _, err := bin.ListAppend(ctx, tribbler.KV(tribsKey, string(raw))); err != nil {
		return fmt.Errorf("post: %w", err)
	}
	return nil
}

// storedTrib pairs a parsed trib with the exact string stored in the back
// end, so garbage collection removes precisely what was read.
type storedTrib struct {
	raw  string
	trib *tribbler.Trib
}

func (s *Server) Tribs(ctx context.Context, user string) (tribs []*tribbler.Trib, err error) {
	defer instrument("tribs", time.Now())(&err)
	if !tribbler.IsValidUsername(user) {
		return nil, &tribbler.InvalidUsernameError{Name: user}
	}
	if err := s.checkSignedUp(ctx, user); err != nil {
		return nil, err
	}

	bin := s.bins.Bin(user)
	raws, err := bin.ListGet(ctx, tribsKey)
	if err != nil {
		return nil, fmt.Errorf("tribs %q: %w", user, err)
	}
	stored := make([]storedTrib, 0, len(raws))
	for _, raw := range raws {
		var t tribbler.Trib
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("tribs %q: decode %q: %w", user, raw, err)
		}
		stored = append(stored, storedTrib{raw: raw, trib: &t})
	}
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].trib.Less(stored[j].trib)
	})

	// Garbage collect everything older than the newest MaxTribFetch.
	// Removing a value that a concurrent collector already removed is a
	// no-op, so this is idempotent.
	if len(stored) > tribbler.MaxTribFetch {
		old := len(stored) - tribbler.MaxTribFetch
		for _, st := range stored[:old] {
			if _, err := bin.ListRemove(ctx, tribbler.KV(tribsKey, st.raw)); err != nil {
				return nil, fmt.Errorf("tribs %q: collect: %w", user, err)
			}
		}
		stored = stored[old:]
	}

	tribs = make([]*tribbler.Trib, 0, len(stored))
	for _, st := range stored {
		tribs = append(tribs, st.trib)
	}
	return tribs, nil
}

// logEntry is one parsed follow/unfollow record.
type logEntry struct {
	clock uint64
	op    string // "follow" or "unfollow"
	whom  string
}

func formatLogEntry(clock uint64, op, whom string) string {
	return strconv.FormatUint(clock, 10) + logSep + op + logSep + whom
}

func parseLogEntry(raw string) (logEntry, bool) {
	parts := strings.Split(raw, logSep)
	if len(parts) != 3 || (parts[1] != "follow" && parts[1] != "unfollow") {
		return logEntry{}, false
	}
	c, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return logEntry{}, false
	}
	return logEntry{clock: c, op: parts[1], whom: parts[2]}, true
}

// checkPair runs the shared validation for the follow family: self
// reference, name validity, and signup state of both users.
func (s *Server) checkPair(ctx context.Context, who, whom string) error {
	if who == whom {
		return &tribbler.WhoWhomError{Name: who}
	}
	if !tribbler.IsValidUsername(who) {
		return &tribbler.InvalidUsernameError{Name: who}
	}
	if !tribbler.IsValidUsername(whom) {
		return &tribbler.InvalidUsernameError{Name: whom}
	}
	if err := s.checkSignedUp(ctx, who); err != nil {
		return err
	}
	return s.checkSignedUp(ctx, whom)
}

// appendAndReplay runs the lock-free arbitration protocol shared by Follow
// and Unfollow: fetch a timestamp, append our entry, read the whole log
// back, and replay it in list order. Concurrent writers append to the same
// list, so every reader replays the same deterministic history; whoever's
// entry lands earlier wins. decide is called at our own entry with the
// followee set as replayed so far and settles the outcome.
func (s *Server) appendAndReplay(ctx context.Context, who, op, whom string, decide func(followees map[string]bool) error) error {
	bin := s.bins.Bin(who)
	c, err := bin.Clock(ctx, 0)
	if err != nil {
		return fmt.Errorf("%s: clock: %w", op, err)
	}
	if _, err := bin.ListAppend(ctx, tribbler.KV(logKey, formatLogEntry(c, op, whom))); err != nil {
		return fmt.Errorf("%s: append log: %w", op, err)
	}

	log, err := bin.ListGet(ctx, logKey)
	if err != nil {
		return fmt.Errorf("%s: read log: %w", op, err)
	}
	followees := make(map[string]bool)
	for _, raw := range log {
		e, ok := parseLogEntry(raw)
		if !ok {
			continue
		}
		if e.clock == c && e.op == op && e.whom == whom {
			// Our entry (or a same-clock twin of it; the earlier
			// append decides for both readers).
			return decide(followees)
		}
		replay(followees, e)
	}
	return nil
}

// replay applies one log entry to the followee set, enforcing the
// MaxFollowing cap exactly as the decision step does.
func replay(followees map[string]bool, e logEntry) {
	switch e.op {
	case "follow":
		if !followees[e.whom] && len(followees) < tribbler.MaxFollowing {
			followees[e.whom] = true
		}
	case "unfollow":
		delete(followees, e.whom)
	}
}

func (s *Server) Follow(ctx context.Context, who, whom string) (err error) {
	defer instrument("follow", time.Now())(&err)
	if err := s.checkPair(ctx, who, whom); err != nil {
		return err
	}
	return s.appendAndReplay(ctx, who, "follow", whom, func(followees map[string]bool) error {
		if followees[whom] {
			return &tribbler.AlreadyFollowingError{Who: who, Whom: whom}
		}
		if len(followees) >= tribbler.MaxFollowing {
			return tribbler.ErrFollowingTooMany
		}
		return nil
	})
}

func (s *Server) Unfollow(ctx context.Context, who, whom string) (err error) {
	defer instrument("unfollow", time.Now())(&err)
	if err := s.checkPair(ctx, who, whom); err != nil {
		return err
	}
	return s.appendAndReplay(ctx, who, "unfollow", whom, func(followees map[string]bool) error {
		if !followees[whom] {
			return &tribbler.NotFollowingError{Who: who, Whom: whom}
		}
		return nil
	})
}

func (s *Server) IsFollowing(ctx context.Context, who, whom string) (following bool, err error) {
	defer instrument("is_following", time.Now())(&err)
	if err := s.checkPair(ctx, who, whom); err != nil {
		return false, err
	}
	fs, err := s.followees(ctx, who)
	if err != nil {
		return false, err
	}
	return fs[whom], nil
}

func (s *Server) Following(ctx context.Context, who string) (users []string, err error) {
	defer instrument("following", time.Now())(&err)
	if !tribbler.IsValidUsername(who) {
		return nil, &tribbler.InvalidUsernameError{Name: who}
	}
	if err := s.checkSignedUp(ctx, who); err != nil {
		return nil, err
	}
	fs, err := s.followees(ctx, who)
	if err != nil {
		return nil, err
	}
	users = make([]string, 0, len(fs))
	for u := range fs {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

// followees replays who's full log with no decision step.
func (s *Server) followees(ctx context.Context, who string) (map[string]bool, error) {
	log, err := s.bins.Bin(who).ListGet(ctx, logKey)
	if err != nil {
		return nil, fmt.Errorf("read log of %q: %w", who, err)
	}
	followees := make(map[string]bool)
	for _, raw := range log {
		if e, ok := parseLogEntry(raw); ok {
			replay(followees, e)
		}
	}
	return followees, nil
}

func (s *Server) Home(ctx context.Context, user string) (tribs []*tribbler.Trib, err error) {
	defer instrument("home", time.Now())(&err)
	if !tribbler.IsValidUsername(user) {
		return nil, &tribbler.InvalidUsernameError{Name: user}
	}
	if err := s.checkSignedUp(ctx, user); err != nil {
		return nil, err
	}

	tribs, err = s.Tribs(ctx, user)
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
