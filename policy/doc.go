// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package policy provides ready-made pipeline policies which rewrite
// outgoing requests or observe calls.
//
// The URL policies Host, Port and Protocol rewrite one component of
// the request URL. Each takes an overwrite flag: when it is false, the
// policy only fills in the component if the URL lacks it.
//
// The header policies AddDate, AddHeaders and RequestID set request
// headers. RateLimit delays calls to respect a client-side rate limit,
// APIVersion stamps a validated API version on each request, and
// Logging writes a structured log entry for every call.
//
// All policies in this package are safe for concurrent use by multiple
// goroutines.
package policy
