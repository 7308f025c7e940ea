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

import "sync"

// Global context pool shared by all routers.
var globalContextPool = sync.Pool{
	New: func() any {
		return &Context{index: -1}
	},
}

// getContextFromGlobalPool retrieves a Context from the global pool.
// The type assertion is checked so pool corruption surfaces as a clear
// panic instead of an opaque one.
func getContextFromGlobalPool() *Context {
	ctx, ok := globalContextPool.Get().(*Context)
	if !ok {
		panic("reroute: pool corruption - globalContextPool returned non-Context type")
	}

	return ctx
}

// releaseGlobalContext cleans up a context and returns it to the pool.
// Single point of truth for the cleanup logic:
//
//	c := getContextFromGlobalPool()
//	defer releaseGlobalContext(c)
func releaseGlobalContext(c *Context) {
	c.reset()
	globalContextPool.Put(c)
}
