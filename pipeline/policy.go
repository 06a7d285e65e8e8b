// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"

	"github.com/gogama/restx/request"
)

// A Policy is a unit of middleware installed in a Pipeline.
//
// A policy receives the call and a Next value representing the rest of
// the chain. It may rewrite call.Request before invoking next, inspect
// or replace the response afterwards, short-circuit by returning
// without invoking next, or invoke next more than once (as a retry
// policy does).
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines, since one pipeline serves many calls at once.
type Policy interface {
	Process(ctx context.Context, call *request.Call, next Next) (*request.Response, error)
}

// The PolicyFunc type is an adapter to allow the use of ordinary
// functions as pipeline policies. If f is a function with appropriate
// signature, then PolicyFunc(f) is a Policy that calls f.
type PolicyFunc func(ctx context.Context, call *request.Call, next Next) (*request.Response, error)

// Process calls f(ctx, call, next).
func (f PolicyFunc) Process(ctx context.Context, call *request.Call, next Next) (*request.Response, error) {
	return f(ctx, call, next)
}
