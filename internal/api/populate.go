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

package api

import (
	"context"
	"fmt"

	"tribbler"
)

// Populate seeds srv with a small demo social graph so a fresh deployment
// has something to show. Errors from individual steps are returned
// immediately; calling it twice fails on the duplicate sign-ups.
func Populate(ctx context.Context, srv tribbler.Server) error {
	users := []string{"fenwick", "rivest", "tarjan"}
	for _, u := range users {
		if err := srv.SignUp(ctx, u); err != nil {
			return fmt.Errorf("populate: sign up %q: %w", u, err)
		}
	}

	follows := [][2]string{
		{"fenwick", "rivest"},
		{"fenwick", "tarjan"},
		{"rivest", "tarjan"},
	}
	for _, f := range follows {
		if err := srv.Follow(ctx, f[0], f[1]); err != nil {
			return fmt.Errorf("populate: %s follows %s: %w", f[0], f[1], err)
		}
	}

	posts := []struct{ who, msg string }{
		{"tarjan", "just found a strongly connected component in my social graph"},
		{"rivest", "r, s, and a walk into a bar"},
		{"fenwick", "counting my followers with a binary indexed tree"},
	}
	for _, p := range posts {
		if err := srv.Post(ctx, p.who, p.msg, 0); err != nil {
			return fmt.Errorf("populate: post for %q: %w", p.who, err)
		}
	}
	return nil
}
