// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package urlbuilder parses and builds URLs component by component.
//
// Unlike net/url, package urlbuilder accepts URL fragments, such as a
// bare host with a port or a path with a query string, and classifies
// each piece by the delimiters around it. This lets a caller pass a
// fully qualified override to any single setter of a Builder:
//
//	b := urlbuilder.Parse("http://localhost:8080/v1")
//	b.SetHost("https://api.example.com")   // scheme and host replaced
//	b.SetPath("widgets/{id}")
//	b.SetQueryParameter("expand", urlbuilder.QueryEscape("a b"))
//
// For every Builder reachable through its setters, re-parsing the
// output of String yields a Builder with the same String.
package urlbuilder
