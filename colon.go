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

import "strings"

// Escape doubles every colon in s. Physical back-end keys use "::" as the
// bin separator, so escaping keeps arbitrary logical names from colliding
// with the separator. Valid user names never contain a colon, which makes
// the transform a bijection on the keys the service actually writes.
func Escape(s string) string {
	return strings.ReplaceAll(s, ":", "::")
}

// Unescape reverses Escape, collapsing every "::" back to ":".
func Unescape(s string) string {
	return strings.ReplaceAll(s, "::", ":")
}
