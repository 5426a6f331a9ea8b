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

// Package tribbler defines the shared contracts of the Tribbler
// microblogging service: the Trib record and its canonical ordering, the
// service-wide constants, username validation, and the Server interface
// implemented by both the distributed front end (internal/front) and the
// single-process reference server (internal/ref).
package tribbler

import (
	"context"
	"sort"
)

const (
	// MaxTribLen is the maximum length, in bytes, of a single trib message.
	MaxTribLen = 140

	// MaxTribFetch is the maximum number of tribs returned by Tribs and
	// Home. It is also the per-user retention bound: after a successful
	// Tribs call the stored list holds at most this many entries.
	MaxTribFetch = 100

	// MaxFollowing is the maximum number of users one user may follow.
	MaxFollowing = 2000

	// MinListUser is the number of users ListUsers is required to return
	// when at least that many exist. Beyond this the result is allowed to
	// go stale (see the user-list cache in internal/front).
	MinListUser = 20
)

// MaxUsernameLen bounds valid user names.
const MaxUsernameLen = 15

// Trib is a single post. A Trib is immutable once created and is uniquely
// identified by the (Clock, Time, User, Message) tuple, which is also its
// total ordering key.
type Trib struct {
	User    string `json:"user"`
	Message string `json:"message"`
	Time    uint64 `json:"time"`  // wall-clock seconds since the Unix epoch
	Clock   uint64 `json:"clock"` // logical clock issued by the user's back end
}

// Less reports whether t orders before other under the canonical trib
// order: lexicographic over (clock, time, user, message).
func (t *Trib) Less(other *Trib) bool {
	if t.Clock != other.Clock {
		return t.Clock < other.Clock
	}
	if t.Time != other.Time {
		return t.Time < other.Time
	}
	if t.User != other.User {
		return t.User < other.User
	}
	return t.Message < other.Message
}

// SortTribs sorts tribs ascending by the canonical order, oldest first.
func SortTribs(tribs []*Trib) {
	sort.Slice(tribs, func(i, j int) bool {
		return tribs[i].Less(tribs[j])
	})
}

// IsValidUsername reports whether name is a legal Tribbler user name: a
// non-empty string of at most MaxUsernameLen bytes that starts with a
// lowercase letter and contains only lowercase letters and digits.
func IsValidUsername(name string) bool {
	if len(name) == 0 || len(name) > MaxUsernameLen {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Server is the public Tribbler service contract consumed by the HTTP
// adapter (internal/api). Every method validates user names and signup
// state before doing any other work, and returns either nil or one of the
// typed errors defined in errors.go. Implementations are safe for
// concurrent use.
type Server interface {
	// SignUp creates a user. Users are never deleted.
	SignUp(ctx context.Context, user string) error

	// ListUsers returns up to MinListUser user names in ascending order.
	// The result may omit users signed up after the first MinListUser.
	ListUsers(ctx context.Context) ([]string, error)

	// Post publishes a message for who. clock is a lower bound hint for
	// the logical timestamp assigned to the post.
	Post(ctx context.Context, who, post string, clock uint64) error

	// Tribs returns the at most MaxTribFetch most recent tribs posted by
	// user, ascending in canonical order. Older entries are garbage
	// collected from storage as a side effect.
	Tribs(ctx context.Context, user string) ([]*Trib, error)

	// Follow makes who follow whom.
	Follow(ctx context.Context, who, whom string) error

	// Unfollow makes who stop following whom.
	Unfollow(ctx context.Context, who, whom string) error

	// IsFollowing reports whether who currently follows whom.
	IsFollowing(ctx context.Context, who, whom string) (bool, error)

	// Following returns the users who follows, ascending. The result
	// never exceeds MaxFollowing entries.
	Following(ctx context.Context, who string) ([]string, error)

	// Home returns the at most MaxTribFetch most recent tribs among
	// user's own posts and those of everyone user follows, ascending in
	// canonical order.
	Home(ctx context.Context, user string) ([]*Trib, error)
}
