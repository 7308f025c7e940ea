// Copyright 2025 The Reroute Authors
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

// Package pattern compiles route patterns into a matchable and reversible form.
//
// A route pattern is a regular expression matched against the request path
// with its leading slash removed. Capture groups extract path parameters:
// named groups ((?P<id>\d+)) bind by name, unnamed groups bind by position.
//
//	p := pattern.MustCompile(`^posts/(?P<post_id>\d+)/$`)
//	caps, ok := p.Match("posts/1234/")
//	// ok == true, caps.Named["post_id"] == "1234"
//
// Compile also derives a reverse template from the regex source so that a
// concrete path can be built from parameter values, the inverse of matching:
//
//	s, err := p.Build(42) // "posts/42/"
//
// Substituted values are validated against the capture group's own
// subexpression, so Build(p, "abc") on a \d+ group fails rather than
// producing a path that could never match.
//
// Patterns whose top-level structure is anything other than literal text and
// capture groups (alternation at the top level, unescaped metacharacters
// outside a group) still match normally but are not reversible; Build
// returns ErrNotReversible for them.
package pattern
