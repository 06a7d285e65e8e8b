// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import "context"

// A Call represents the state of a single request travelling through
// a pipeline.
//
// Policies may replace Request, or rewrite its method, URL and headers,
// before continuing the chain. Policies may also set values on a Call
// using its SetValue method and read them back using the Value method,
// to pass cross-cutting data to policies further down the chain. The
// pipeline itself never looks at these values.
type Call struct {
	// Request is the request to be sent by the current attempt. It is
	// never nil while the call is in the pipeline.
	Request *Request

	data context.Context
}

// NewCall returns a Call for the given request.
func NewCall(r *Request) *Call {
	return &Call{Request: r}
}

// SetValue stores arbitrary data in the call.
//
// The key must follow the same rules as the key parameter in
// context.WithValue, namely it:
//
// • it may not be nil;
//
// • it must be comparable;
//
// • it should not be of type string or any other built-in type to avoid
// collisions between different policies putting data into the same
// call.
func (c *Call) SetValue(key, value interface{}) {
	ctx := c.data
	if ctx == nil {
		ctx = context.Background()
	}

	c.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this call for key, or
// nil if there is no value associated with key.
func (c *Call) Value(key interface{}) interface{} {
	ctx := c.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
