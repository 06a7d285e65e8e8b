// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package policy

import (
	"context"
	"net/http"
	"time"

	"github.com/gogama/restx/pipeline"
	"github.com/gogama/restx/request"
	"golang.org/x/net/http/httpguts"
)

// DateFormat is the format of the Date header set by AddDate.
const DateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// AddDate is a policy which sets the Date header of every request to
// the current time, in UTC.
type AddDate struct {
	// Now returns the current time. If nil, time.Now is used.
	Now func() time.Time
}

// Process implements pipeline.Policy.
func (p *AddDate) Process(ctx context.Context, call *request.Call, next pipeline.Next) (*request.Response, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	header(call.Request).Set("Date", now().UTC().Format(DateFormat))
	return next.Process(ctx, call)
}

// AddHeaders is a policy which sets a fixed group of headers on every
// request, replacing any values the request already has for them.
type AddHeaders struct {
	header http.Header
}

// NewAddHeaders returns an AddHeaders policy for the headers in h,
// which is copied. NewAddHeaders panics if h contains an invalid
// header name or value.
func NewAddHeaders(h http.Header) *AddHeaders {
	c := make(http.Header, len(h))
	for name, values := range h {
		if !httpguts.ValidHeaderFieldName(name) {
			panic("restx/policy: invalid header name " + name)
		}
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				panic("restx/policy: invalid value for header " + name)
			}
			c.Add(name, v)
		}
	}
	return &AddHeaders{header: c}
}

// Process implements pipeline.Policy.
func (p *AddHeaders) Process(ctx context.Context, call *request.Call, next pipeline.Next) (*request.Response, error) {
	h := header(call.Request)
	for name, values := range p.header {
		h[name] = append([]string(nil), values...)
	}
	return next.Process(ctx, call)
}

// header returns the request's header map, allocating it if the
// request was built without one.
func header(r *request.Request) http.Header {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	return r.Header
}
