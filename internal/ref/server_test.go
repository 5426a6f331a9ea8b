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

package ref

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"tribbler"
)

func TestSignUpAndListUsers(t *testing.T) {
	s := NewServer()
	ctx := context.Background()

	var invalid *tribbler.InvalidUsernameError
	if err := s.SignUp(ctx, "Bob"); !errors.As(err, &invalid) {
		t.Fatalf("sign_up(Bob) = %v, want InvalidUsernameError", err)
	}
	if err := s.SignUp(ctx, "bob"); err != nil {
		t.Fatalf("sign_up: %v", err)
	}
	var taken *tribbler.UsernameTakenError
	if err := s.SignUp(ctx, "bob"); !errors.As(err, &taken) {
		t.Fatalf("duplicate sign_up = %v, want UsernameTakenError", err)
	}

	for c := 'a'; c <= 'z'; c++ {
		if c == 'b' {
			continue
		}
		if err := s.SignUp(ctx, string(c)+"x"); err != nil {
			t.Fatalf("sign_up: %v", err)
		}
	}
	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list_users: %v", err)
	}
	if len(users) != tribbler.MinListUser {
		t.Fatalf("list_users returned %d names, want %d", len(users), tribbler.MinListUser)
	}
	if !sortedStrings(users) {
		t.Fatalf("list_users not sorted: %v", users)
	}
}

func TestPostAndTribs(t *testing.T) {
	s := NewServer()
	ctx := context.Background()

	if err := s.Post(ctx, "bob", "hi", 0); err == nil {
		t.Fatalf("post before sign_up succeeded")
	}
	if err := s.SignUp(ctx, "bob"); err != nil {
		t.Fatalf("sign_up: %v", err)
	}
	if err := s.Post(ctx, "bob", strings.Repeat("x", tribbler.MaxTribLen+1), 0); !errors.Is(err, tribbler.ErrTribTooLong) {
		t.Fatalf("oversized post = %v, want ErrTribTooLong", err)
	}

	for i := 0; i < tribbler.MaxTribFetch+20; i++ {
		if err := s.Post(ctx, "bob", fmt.Sprintf("msg %03d", i), 0); err != nil {
			t.Fatalf("post: %v", err)
		}
	}
	tribs, err := s.Tribs(ctx, "bob")
	if err != nil {
		t.Fatalf("tribs: %v", err)
	}
	if len(tribs) != tribbler.MaxTribFetch {
		t.Fatalf("tribs returned %d, want %d", len(tribs), tribbler.MaxTribFetch)
	}
	for i := 1; i < len(tribs); i++ {
		if !tribs[i-1].Less(tribs[i]) {
			t.Fatalf("tribs out of order at %d", i)
		}
	}
	if tribs[0].Message != "msg 020" {
		t.Fatalf("oldest surviving trib = %q, want %q", tribs[0].Message, "msg 020")
	}
}

func TestFollowLifecycle(t *testing.T) {
	s := NewServer()
	ctx := context.Background()

	for _, u := range []string{"bob", "alice"} {
		if err := s.SignUp(ctx, u); err != nil {
			t.Fatalf("sign_up: %v", err)
		}
	}

	var self *tribbler.WhoWhomError
	if err := s.Follow(ctx, "bob", "bob"); !errors.As(err, &self) {
		t.Fatalf("self follow = %v, want WhoWhomError", err)
	}
	var not *tribbler.NotFollowingError
	if err := s.Unfollow(ctx, "bob", "alice"); !errors.As(err, &not) {
		t.Fatalf("unfollow without follow = %v, want NotFollowingError", err)
	}

	if err := s.Follow(ctx, "bob", "alice"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	var already *tribbler.AlreadyFollowingError
	if err := s.Follow(ctx, "bob", "alice"); !errors.As(err, &already) {
		t.Fatalf("duplicate follow = %v, want AlreadyFollowingError", err)
	}
	ok, err := s.IsFollowing(ctx, "bob", "alice")
	if err != nil || !ok {
		t.Fatalf("is_following = %v err=%v, want true", ok, err)
	}
	fs, err := s.Following(ctx, "bob")
	if err != nil || !reflect.DeepEqual(fs, []string{"alice"}) {
		t.Fatalf("following = %v err=%v, want [alice]", fs, err)
	}
	if err := s.Unfollow(ctx, "bob", "alice"); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	ok, err = s.IsFollowing(ctx, "bob", "alice")
	if err != nil || ok {
		t.Fatalf("is_following after unfollow = %v err=%v, want false", ok, err)
	}
}

func TestHomeMergesFeeds(t *testing.T) {
	s := NewServer()
	ctx := context.Background()

	for _, u := range []string{"bob", "alice", "carol"} {
		if err := s.SignUp(ctx, u); err != nil {
			t.Fatalf("sign_up: %v", err)
		}
	}
	if err := s.Follow(ctx, "bob", "alice"); err != nil {
		t.Fatalf("follow: %v", err)
	}

	for _, u := range []string{"bob", "alice", "carol"} {
		for i := 0; i < 3; i++ {
			if err := s.Post(ctx, u, "post", 0); err != nil {
				t.Fatalf("post: %v", err)
			}
		}
	}

	// carol is not followed, so her posts stay out.
	home, err := s.Home(ctx, "bob")
	if err != nil {
		t.Fatalf("home: %v", err)
	}
	if len(home) != 6 {
		t.Fatalf("home returned %d tribs, want 6", len(home))
	}
	for _, tr := range home {
		if tr.User == "carol" {
			t.Fatalf("home contains trib from unfollowed user")
		}
	}
	for i := 1; i < len(home); i++ {
		if home[i].Less(home[i-1]) {
			t.Fatalf("home out of order at %d", i)
		}
	}
}

func sortedStrings(ss []string) bool {
	for i := 1; i < len(ss); i++ {
		if ss[i] < ss[i-1] {
			return false
		}
	}
	return true
}
