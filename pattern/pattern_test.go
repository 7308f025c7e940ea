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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_InvalidRegex(t *testing.T) {
	t.Parallel()

	_, err := Compile(`^posts/(unclosed$`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid route pattern")
}

func TestMustCompile_PanicsOnInvalid(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		MustCompile(`^[$`)
	})
}

func TestMatch_EmptyPattern(t *testing.T) {
	t.Parallel()

	p := MustCompile(`^$`)

	_, ok := p.Match("")
	assert.True(t, ok, "root path (leading slash stripped) should match ^$")

	_, ok = p.Match("posts/")
	assert.False(t, ok)
}

func TestMatch_NamedGroup(t *testing.T) {
	t.Parallel()

	p := MustCompile(`^posts/(?P<post_id>\d+)/$`)

	caps, ok := p.Match("posts/1234/")
	require.True(t, ok)
	assert.Equal(t, "1234", caps.Named["post_id"])
	assert.Empty(t, caps.Positional)

	_, ok = p.Match("posts/abc/")
	assert.False(t, ok, "non-numeric id must not match \\d+")
}

func TestMatch_PositionalGroup(t *testing.T) {
	t.Parallel()

	p := MustCompile(`^archive/(\d{4})/(\d{2})/$`)

	caps, ok := p.Match("archive/2024/07/")
	require.True(t, ok)
	assert.Empty(t, caps.Named)
	require.Len(t, caps.Positional, 2)
	assert.Equal(t, "2024", caps.Positional[0])
	assert.Equal(t, "07", caps.Positional[1])
}

func TestMatch_MixedGroups(t *testing.T) {
	t.Parallel()

	p := MustCompile(`^users/(?P<id>\d+)/(\w+)/$`)

	caps, ok := p.Match("users/7/settings/")
	require.True(t, ok)
	assert.Equal(t, "7", caps.Named["id"])
	require.Len(t, caps.Positional, 1)
	assert.Equal(t, "settings", caps.Positional[0])
}

func TestMatch_UnanchoredEnd(t *testing.T) {
	t.Parallel()

	// Static file patterns leave the end open.
	p := MustCompile(`^assets/`)

	_, ok := p.Match("assets/css/site.css")
	assert.True(t, ok)

	_, ok = p.Match("images/logo.png")
	assert.False(t, ok)
}

func TestMatchString(t *testing.T) {
	t.Parallel()

	p := MustCompile(`^posts/(?P<post_id>\d+)/$`)

	assert.True(t, p.MatchString("posts/42/"))
	assert.False(t, p.MatchString("posts/42"))
}

func TestGroups(t *testing.T) {
	t.Parallel()

	p := MustCompile(`^archive/(?P<year>\d{4})/(\d{2})/$`)

	groups := p.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "year", groups[0].Name)
	assert.Equal(t, `\d{4}`, groups[0].Expr)
	assert.Empty(t, groups[1].Name)
	assert.Equal(t, `\d{2}`, groups[1].Expr)
}

func TestRaw(t *testing.T) {
	t.Parallel()

	const src = `^posts/(?P<post_id>\d+)/$`
	assert.Equal(t, src, MustCompile(src).Raw())
}
