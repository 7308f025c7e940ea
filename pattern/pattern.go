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
)

// Pattern is a compiled route pattern. It is immutable after Compile and
// safe for concurrent use.
type Pattern struct {
	raw      string
	re       *regexp.Regexp
	groups   []Group   // top-level capture groups, in source order
	segments []segment // reverse template; nil when not reversible
	revErr   error     // why the pattern is not reversible, nil otherwise
}

// Group describes a top-level capture group within a pattern.
type Group struct {
	Name string // empty for unnamed (positional) groups
	Expr string // the group's subexpression source

	validator *regexp.Regexp // anchored Expr, used to check substituted values
}

// Captures holds the parameters extracted from a matched path.
// Named groups bind by name, unnamed groups bind by position; a pattern may
// mix both and the two are reported separately.
type Captures struct {
	Named      map[string]string
	Positional []string
}

// Compile parses a route pattern into its matchable and reversible form.
// The pattern is an ordinary regular expression; an error is returned only
// when the regex itself is invalid. Patterns that match fine but cannot be
// reversed compile successfully and report the problem from Build.
func Compile(raw string) (*Pattern, error) {
	re, err := regexp.Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid route pattern %q: %w", raw, err)
	}

	p := &Pattern{raw: raw, re: re}
	p.segments, p.groups, p.revErr = scanTemplate(raw)

	return p, nil
}

// MustCompile is like Compile but panics on an invalid pattern.
// Intended for package-level route tables built from constant patterns.
func MustCompile(raw string) *Pattern {
	p, err := Compile(raw)
	if err != nil {
		panic(fmt.Sprintf("pattern.MustCompile: %v", err))
	}

	return p
}

// Raw returns the original pattern source.
func (p *Pattern) Raw() string {
	return p.raw
}

// Groups returns the pattern's top-level capture groups in source order.
// Returns nil for patterns that are not reversible.
func (p *Pattern) Groups() []Group {
	return p.groups
}

// Reversible reports whether Build can produce a concrete path from this
// pattern.
func (p *Pattern) Reversible() bool {
	return p.revErr == nil
}

// Match tests path against the pattern and extracts captured parameters.
// The path must already have its leading slash stripped; matching a pattern
// like ^$ against the root path therefore tests the empty string.
func (p *Pattern) Match(path string) (Captures, bool) {
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return Captures{}, false
	}

	var caps Captures
	names := p.re.SubexpNames()
	for i := 1; i < len(m); i++ {
		if names[i] != "" {
			if caps.Named == nil {
				caps.Named = make(map[string]string, len(m)-1)
			}
			caps.Named[names[i]] = m[i]
		} else {
			caps.Positional = append(caps.Positional, m[i])
		}
	}

	return caps, true
}

// MatchString reports whether path matches the pattern without extracting
// captures. Cheaper than Match when the parameters are not needed.
func (p *Pattern) MatchString(path string) bool {
	return p.re.MatchString(path)
}

// Build substitutes values into the pattern's capture groups in order and
// returns the concrete path (without a leading slash). Values are formatted
// with fmt.Sprint and validated against each group's subexpression, so a
// value that could never match the pattern is rejected instead of silently
// producing a dead path.
func (p *Pattern) Build(args ...any) (string, error) {
	if p.revErr != nil {
		return "", p.revErr
	}
	if len(args) != len(p.groups) {
		return "", fmt.Errorf("%w: pattern %q has %d, got %d",
			ErrArgumentCount, p.raw, len(p.groups), len(args))
	}

	vals := make([]string, len(args))
	for i, arg := range args {
		vals[i] = fmt.Sprint(arg)
		if !p.groups[i].validator.MatchString(vals[i]) {
			return "", fmt.Errorf("%w: value %q for group %d of %q (expects %s)",
				ErrArgumentValue, vals[i], i, p.raw, p.groups[i].Expr)
		}
	}

	return p.assemble(func(gi int) string { return vals[gi] }), nil
}

// BuildParams substitutes values into the pattern's capture groups by name.
// All groups must be named; each must have a value in params that satisfies
// its subexpression.
func (p *Pattern) BuildParams(params map[string]string) (string, error) {
	if p.revErr != nil {
		return "", p.revErr
	}

	vals := make([]string, len(p.groups))
	for i, g := range p.groups {
		if g.Name == "" {
			return "", fmt.Errorf("%w: group %d of %q", ErrUnnamedGroup, i, p.raw)
		}
		v, ok := params[g.Name]
		if !ok {
			return "", fmt.Errorf("%w: %q in %q", ErrMissingParam, g.Name, p.raw)
		}
		if !g.validator.MatchString(v) {
			return "", fmt.Errorf("%w: value %q for %q in %q (expects %s)",
				ErrArgumentValue, v, g.Name, p.raw, g.Expr)
		}
		vals[i] = v
	}

	return p.assemble(func(gi int) string { return vals[gi] }), nil
}

// assemble concatenates the reverse template, pulling group values from fill.
func (p *Pattern) assemble(fill func(int) string) string {
	var n int
	for _, seg := range p.segments {
		n += len(seg.literal)
	}

	buf := make([]byte, 0, n+16)
	for _, seg := range p.segments {
		if seg.group >= 0 {
			buf = append(buf, fill(seg.group)...)
		} else {
			buf = append(buf, seg.literal...)
		}
	}

	return string(buf)
}
