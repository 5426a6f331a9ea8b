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

import (
	"errors"
	"fmt"
)

// The error taxonomy of the service. Validation errors short-circuit before
// any storage I/O; storage and serialization failures propagate to callers
// wrapped with fmt.Errorf("...: %w", err) so errors.Is/As keep working.

// Errors with no parameters are plain sentinels.
var (
	// ErrTribTooLong is returned by Post when the message exceeds
	// MaxTribLen bytes.
	ErrTribTooLong = errors.New("trib message too long")

	// ErrFollowingTooMany is returned by Follow when the follower already
	// follows MaxFollowing users.
	ErrFollowingTooMany = errors.New("following too many users")
)

// InvalidUsernameError reports a user name that fails IsValidUsername.
type InvalidUsernameError struct{ Name string }

func (e *InvalidUsernameError) Error() string {
	return fmt.Sprintf("invalid username %q", e.Name)
}

// UsernameTakenError reports a SignUp collision.
type UsernameTakenError struct{ Name string }

func (e *UsernameTakenError) Error() string {
	return fmt.Sprintf("username %q already taken", e.Name)
}

// UserDoesNotExistError reports an operation on a user that never signed up.
type UserDoesNotExistError struct{ Name string }

func (e *UserDoesNotExistError) Error() string {
	return fmt.Sprintf("user %q does not exist", e.Name)
}

// AlreadyFollowingError reports a redundant Follow.
type AlreadyFollowingError struct{ Who, Whom string }

func (e *AlreadyFollowingError) Error() string {
	return fmt.Sprintf("%q is already following %q", e.Who, e.Whom)
}

// NotFollowingError reports an Unfollow without a prior Follow.
type NotFollowingError struct{ Who, Whom string }

func (e *NotFollowingError) Error() string {
	return fmt.Sprintf("%q is not following %q", e.Who, e.Whom)
}

// WhoWhomError reports a self-referencing follow operation.
type WhoWhomError struct{ Name string }

func (e *WhoWhomError) Error() string {
	return fmt.Sprintf("%q cannot follow or unfollow themselves", e.Name)
}
