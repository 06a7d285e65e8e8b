// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package policy

import (
	"context"

	"github.com/gogama/restx/pipeline"
	"github.com/gogama/restx/request"
	"github.com/google/uuid"
)

// DefaultRequestIDHeader is the header used by RequestID when none is
// configured.
const DefaultRequestIDHeader = "X-Request-Id"

// RequestIDKey is the call value key under which RequestID stores the
// request ID of the call.
type RequestIDKey struct{}

// RequestID is a policy which tags every call with a random UUID. The
// ID is set as a request header and stored in the call under
// RequestIDKey, so that policies further down the chain can log it.
//
// Install RequestID before the retry policy to keep the same ID on
// every attempt of a call, or after it to get a fresh ID per attempt.
// If the request already carries the header, its value is kept.
type RequestID struct {
	header string
}

// NewRequestID returns a RequestID policy which sets the given header.
// An empty header means DefaultRequestIDHeader.
func NewRequestID(header string) *RequestID {
	if header == "" {
		header = DefaultRequestIDHeader
	}
	return &RequestID{header: header}
}

// Header returns the name of the header set by the policy.
func (p *RequestID) Header() string {
	return p.header
}

// Process implements pipeline.Policy.
func (p *RequestID) Process(ctx context.Context, call *request.Call, next pipeline.Next) (*request.Response, error) {
	id := header(call.Request).Get(p.header)
	if id == "" {
		id = uuid.NewString()
		call.Request.Header.Set(p.header, id)
	}
	call.SetValue(RequestIDKey{}, id)
	return next.Process(ctx, call)
}

// RequestIDOf returns the request ID stored in call by a RequestID
// policy, or "" if there is none.
func RequestIDOf(call *request.Call) string {
	id, _ := call.Value(RequestIDKey{}).(string)
	return id
}
