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

package tribbler

import "testing"

func TestIsValidUsername(t *testing.T) {
	valid := []string{"a", "bob", "h8liu", "fenwick", "a12345678901234"}
	for _, name := range valid {
		if !IsValidUsername(name) {
			t.Errorf("IsValidUsername(%q) = false, want true", name)
		}
	}

	// Empty, leading digit, uppercase, punctuation, whitespace, non-ASCII,
	// and one byte over the length bound.
	invalid := []string{"", "3bob", "Bob", "bob-1", "bo b", "bé", "a123456789012345"}
	for _, name := range invalid {
		if IsValidUsername(name) {
			t.Errorf("IsValidUsername(%q) = true, want false", name)
		}
	}
}

// TestTribLess walks the (clock, time, user, message) ordering one field at
// a time.
func TestTribLess(t *testing.T) {
	base := &Trib{User: "bob", Message: "m", Time: 10, Clock: 5}
	cases := []struct {
		name  string
		other *Trib
		less  bool
	}{
		{"lower clock wins", &Trib{User: "a", Message: "a", Time: 1, Clock: 6}, true},
		{"higher clock loses", &Trib{User: "z", Message: "z", Time: 99, Clock: 4}, false},
		{"clock tie, lower time", &Trib{User: "a", Message: "a", Time: 11, Clock: 5}, true},
		{"clock+time tie, user order", &Trib{User: "carol", Message: "a", Time: 10, Clock: 5}, true},
		{"all tie but message", &Trib{User: "bob", Message: "n", Time: 10, Clock: 5}, true},
		{"identical", &Trib{User: "bob", Message: "m", Time: 10, Clock: 5}, false},
	}
	for _, c := range cases {
		if got := base.Less(c.other); got != c.less {
			t.Errorf("%s: Less = %v, want %v", c.name, got, c.less)
		}
	}
}

func TestSortTribs(t *testing.T) {
	tribs := []*Trib{
		{User: "bob", Message: "third", Time: 3, Clock: 2},
		{User: "alice", Message: "first", Time: 1, Clock: 1},
		{User: "alice", Message: "second", Time: 2, Clock: 1},
	}
	SortTribs(tribs)
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if tribs[i].Message != w {
			t.Fatalf("position %d = %q, want %q", i, tribs[i].Message, w)
		}
	}
}
