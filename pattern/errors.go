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

package pattern

import "errors"

var (
	// ErrNotReversible indicates that the pattern's top-level structure cannot
	// be turned back into a concrete path (e.g. top-level alternation).
	ErrNotReversible = errors.New("pattern is not reversible")

	// ErrArgumentCount indicates that Build received a different number of
	// values than the pattern has capture groups.
	ErrArgumentCount = errors.New("argument count does not match capture groups")

	// ErrArgumentValue indicates that a substituted value does not satisfy the
	// capture group's subexpression.
	ErrArgumentValue = errors.New("argument does not match capture group")

	// ErrMissingParam indicates that BuildParams is missing a value for a
	// named capture group.
	ErrMissingParam = errors.New("missing value for named capture group")

	// ErrUnnamedGroup indicates that BuildParams was called on a pattern with
	// unnamed capture groups, which can only be filled positionally.
	ErrUnnamedGroup = errors.New("pattern has unnamed capture groups")
)
