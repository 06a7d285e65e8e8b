// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package policy

import (
	"context"

	"github.com/gogama/restx/pipeline"
	"github.com/gogama/restx/request"
	"golang.org/x/time/rate"
)

// RateLimit is a policy which waits for a token from a rate limiter
// before continuing the chain. Installed after the retry policy, it
// limits every attempt, retries included.
//
// If the call's context is canceled, or its deadline would pass before
// a token is available, Process fails without continuing.
type RateLimit struct {
	limiter *rate.Limiter
}

// NewRateLimit returns a RateLimit policy allowing limit events per
// second with the given burst.
func NewRateLimit(limit float64, burst int) *RateLimit {
	return NewRateLimiter(rate.NewLimiter(rate.Limit(limit), burst))
}

// NewRateLimiter returns a RateLimit policy backed by limiter, which
// may be shared with other parts of the program.
func NewRateLimiter(limiter *rate.Limiter) *RateLimit {
	if limiter == nil {
		panic("restx/policy: nil limiter")
	}
	return &RateLimit{limiter: limiter}
}

// Limiter returns the underlying rate limiter.
func (p *RateLimit) Limiter() *rate.Limiter {
	return p.limiter
}

// Process implements pipeline.Policy.
func (p *RateLimit) Process(ctx context.Context, call *request.Call, next pipeline.Next) (*request.Response, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, request.WrapError(call.Request, err)
	}
	return next.Process(ctx, call)
}
