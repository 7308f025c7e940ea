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

package reroute

import (
	"fmt"
	"strings"
)

// Mount copies a subrouter's route table into this router under a pattern
// prefix, letting a feature package build its routes independently and the
// application compose them:
//
//	blog := reroute.MustNew()
//	blog.Handle(`^(?P<post_id>\d+)/$`, showPost).Name("blog_detail")
//
//	app := reroute.MustNew()
//	app.Mount(`posts/`, blog) // /posts/1234/ → showPost
//
// The prefix is a regex fragment without anchors. The subrouter's global
// middleware is folded into each copied route's handler chain; route names
// and method restrictions carry over. Name collisions with routes already
// registered here wrap ErrConfiguration.
//
// Copying is by value: routes added to sub after Mount are not reflected.
func (r *Router) Mount(prefix string, sub *Router) error {
	prefix = trimAnchors(prefix)

	sub.middlewareMu.RLock()
	mw := append([]HandlerFunc(nil), sub.middleware...)
	sub.middlewareMu.RUnlock()

	sub.mu.RLock()
	routes := append([]*Route(nil), sub.routes...)
	sub.mu.RUnlock()

	for _, rt := range routes {
		pat := "^" + prefix + strings.TrimPrefix(rt.raw, "^")

		chain := make([]HandlerFunc, 0, len(mw)+len(rt.handlers))
		chain = append(chain, mw...)
		chain = append(chain, rt.handlers...)

		mounted, err := r.Register(pat, rt.name, chain...)
		if err != nil {
			return fmt.Errorf("mount %q: %w", prefix, err)
		}
		if len(rt.methods) > 0 {
			mounted.Methods(rt.methods...)
		}
	}

	return nil
}
