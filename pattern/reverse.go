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

import (
	"fmt"
	"regexp"
	"strings"
)

// segment is one piece of the reverse template: either literal path text or
// a placeholder for a top-level capture group.
type segment struct {
	literal string
	group   int // index into Pattern.groups; -1 for literal segments
}

// scanTemplate derives the reverse template from the regex source.
// A pattern is reversible when, after stripping the ^ and $ anchors, its
// top level consists only of literal text (possibly with escaped
// metacharacters) and capture groups. Anything else — alternation,
// quantifiers, class shorthands like \d outside a group — makes the path
// ambiguous and the pattern non-reversible.
func scanTemplate(raw string) ([]segment, []Group, error) {
	src := raw
	if strings.HasPrefix(src, "^") {
		src = src[1:]
	}
	if strings.HasSuffix(src, "$") && !escaped(src, len(src)-1) {
		src = src[:len(src)-1]
	}

	var (
		segs   []segment
		groups []Group
		lit    []byte
	)
	flush := func() {
		if len(lit) > 0 {
			segs = append(segs, segment{literal: string(lit), group: -1})
			lit = lit[:0]
		}
	}

	for i := 0; i < len(src); {
		switch c := src[i]; c {
		case '\\':
			if i+1 >= len(src) {
				return nil, nil, notReversible(raw, "trailing backslash")
			}
			next := src[i+1]
			if isWordByte(next) {
				// \d, \w, \b and friends match a class of characters, so the
				// literal text cannot be recovered.
				return nil, nil, notReversible(raw, fmt.Sprintf(`escape \%c outside a capture group`, next))
			}
			lit = append(lit, next)
			i += 2
		case '(':
			g, end, capturing, err := parseGroup(src, i)
			if err != nil {
				return nil, nil, notReversible(raw, err.Error())
			}
			if !capturing {
				return nil, nil, notReversible(raw, "non-capturing group at top level")
			}
			validator, verr := regexp.Compile("^(?:" + g.Expr + ")$")
			if verr != nil {
				return nil, nil, notReversible(raw, fmt.Sprintf("cannot isolate group %q", g.Expr))
			}
			g.validator = validator
			flush()
			groups = append(groups, g)
			segs = append(segs, segment{group: len(groups) - 1})
			i = end
		case '.', '*', '+', '?', '|', '[', ']', '{', '}', '^', '$', ')':
			return nil, nil, notReversible(raw, fmt.Sprintf("metacharacter %q outside a capture group", string(c)))
		default:
			lit = append(lit, c)
			i++
		}
	}
	flush()

	return segs, groups, nil
}

// parseGroup parses the group starting at src[start] (which must be '(').
// Returns the group, the index just past the closing paren, and whether the
// group captures. Non-capturing constructs ((?:...), lookarounds, inline
// flags) are reported with capturing == false.
func parseGroup(src string, start int) (Group, int, bool, error) {
	var g Group
	j := start + 1

	switch {
	case strings.HasPrefix(src[j:], "?P<"):
		gt := strings.IndexByte(src[j+3:], '>')
		if gt < 0 {
			return g, 0, false, fmt.Errorf("unterminated group name at offset %d", start)
		}
		g.Name = src[j+3 : j+3+gt]
		j += 3 + gt + 1
	case j < len(src) && src[j] == '?':
		return g, 0, false, nil
	}

	depth := 1
	inClass := false
	for i := j; i < len(src); i++ {
		c := src[i]
		if c == '\\' {
			i++
			continue
		}
		if inClass {
			if c == ']' {
				inClass = false
			}
			continue
		}
		switch c {
		case '[':
			inClass = true
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				g.Expr = src[j:i]
				return g, i + 1, true, nil
			}
		}
	}

	return g, 0, false, fmt.Errorf("unbalanced parenthesis at offset %d", start)
}

// escaped reports whether the byte at index i is preceded by an odd number
// of backslashes.
func escaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}

	return n%2 == 1
}

// isWordByte reports whether b is an ASCII letter or digit.
func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// notReversible builds the sentinel-wrapped error recorded on the pattern.
func notReversible(raw, reason string) error {
	return fmt.Errorf("%w: %q: %s", ErrNotReversible, raw, reason)
}
