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
	"net/http"
	"regexp"
	"strings"
)

// Static serves files from the filesystem directory root under the given
// URL prefix.
//
// SECURITY: http.FileServer cleans paths and prevents traversal to parent
// directories, but the root directory should only contain files intended to
// be publicly accessible.
//
// Example:
//
//	r.Static("/assets", "./public") // ./public/* served at /assets/*
func (r *Router) Static(urlPrefix, root string) {
	r.StaticFS(urlPrefix, http.Dir(root))
}

// StaticFS serves files from the given http.FileSystem under the URL
// prefix. The prefix is a literal URL path, not a pattern; it is quoted
// before entering the route table. GET and HEAD are both allowed per
// RFC 7231.
//
// Example:
//
//	r.StaticFS("/assets", http.Dir("./public"))
func (r *Router) StaticFS(urlPrefix string, fs http.FileSystem) {
	trimmed := strings.Trim(urlPrefix, "/")
	if trimmed == "" {
		panic("reroute: static prefix cannot be empty")
	}

	fileServer := http.StripPrefix("/"+trimmed, http.FileServer(fs))
	handler := func(c *Context) {
		fileServer.ServeHTTP(c.Response, c.Request)
	}

	// Unanchored at the end so every path under the prefix matches.
	pat := "^" + regexp.QuoteMeta(trimmed) + "/"
	r.Handle(pat, handler).Methods(http.MethodGet, http.MethodHead)
}

// StaticFile serves a single file at the given URL path. Useful for
// favicon.ico, robots.txt and similar fixed assets.
//
// Example:
//
//	r.StaticFile("/favicon.ico", "./assets/favicon.ico")
func (r *Router) StaticFile(urlPath, filepath string) {
	trimmed := strings.TrimPrefix(urlPath, "/")
	if trimmed == "" || filepath == "" {
		panic("reroute: static file path and filepath cannot be empty")
	}

	pat := "^" + regexp.QuoteMeta(trimmed) + "$"
	r.Handle(pat, func(c *Context) {
		c.ServeFile(filepath)
	}).Methods(http.MethodGet, http.MethodHead)
}
