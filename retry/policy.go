// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gogama/restx/pipeline"
	"github.com/gogama/restx/request"
	"go.uber.org/zap"
)

// A Policy is a pipeline policy which retries failed attempts.
//
// For every attempt, Policy sends a fresh copy of the original request
// through the rest of the chain, so that policies after it in the
// pipeline see the same starting request on every attempt and may
// safely rewrite it.
//
// The zero value of Policy is a valid policy which uses DefaultStrategy
// and RetryableStatus, ignores retry-after headers, and does not log.
//
// A Policy must not be modified once in use. It is safe for concurrent
// use by multiple goroutines.
type Policy struct {
	// Strategy decides how many retries are allowed and how long to
	// wait between attempts. If nil, DefaultStrategy is used.
	Strategy Strategy

	// Retryable decides which response status codes are retried. If
	// nil, RetryableStatus is used.
	Retryable StatusDecider

	// RetryAfterHeader is the name of a response header which, on a
	// 429 or 503 response, carries an integer number of RetryAfterUnit
	// to wait before retrying. An empty name disables the feature.
	RetryAfterHeader string

	// RetryAfterUnit is the unit of the retry-after header value.
	RetryAfterUnit time.Duration

	// Logger receives an Info entry for every retry. If nil, nothing
	// is logged.
	Logger *zap.Logger
}

// Never is a policy that never retries.
var Never = &Policy{Strategy: FixedDelay(0, 0)}

// NewPolicy constructs a retry Policy using the given strategy. If
// retryAfterHeader is not empty, unit must be positive.
func NewPolicy(strategy Strategy, retryAfterHeader string, unit time.Duration) *Policy {
	if strategy == nil {
		panic("restx/retry: nil strategy")
	}
	if retryAfterHeader != "" && unit <= 0 {
		panic("restx/retry: retry-after unit must be positive")
	}
	return &Policy{
		Strategy:         strategy,
		RetryAfterHeader: retryAfterHeader,
		RetryAfterUnit:   unit,
	}
}

// Process implements pipeline.Policy.
func (p *Policy) Process(ctx context.Context, call *request.Call, next pipeline.Next) (*request.Response, error) {
	strategy := p.strategy()
	retryable := p.retryable()
	logger := p.logger()
	max := strategy.MaxRetries()
	original := call.Request

	for n := 0; ; n++ {
		call.Request = original.Copy()
		resp, err := next.Process(ctx, call)
		var d time.Duration
		if err != nil {
			if canceled(ctx, err) {
				return nil, err
			}
			if n >= max {
				return nil, &ExhaustedError{Retries: n, Err: err}
			}
			d = strategy.Delay(n)
			logger.Info("retrying after transport error",
				zap.Int("attempt", n),
				zap.Duration("delay", d),
				zap.Error(err))
		} else {
			if !retryable(resp.StatusCode) {
				return resp, nil
			}
			if n >= max {
				return resp, &ExhaustedError{
					Retries:    n,
					StatusCode: resp.StatusCode,
					Response:   resp,
				}
			}
			_ = resp.Close()
			d = p.determineDelay(strategy, resp, n)
			logger.Info("retrying after retryable status",
				zap.Int("attempt", n),
				zap.Duration("delay", d),
				zap.Int("status", resp.StatusCode))
		}
		if err = wait(ctx, d); err != nil {
			return nil, request.WrapError(original, err)
		}
	}
}

func (p *Policy) determineDelay(strategy Strategy, resp *request.Response, n int) time.Duration {
	if p.RetryAfterHeader != "" && p.RetryAfterUnit > 0 &&
		(resp.StatusCode == 429 || resp.StatusCode == 503) {
		v := strings.TrimSpace(resp.Header.Get(p.RetryAfterHeader))
		if i, err := strconv.ParseInt(v, 10, 64); err == nil && i >= 0 {
			return time.Duration(i) * p.RetryAfterUnit
		}
	}
	return strategy.Delay(n)
}

func (p *Policy) strategy() Strategy {
	if p.Strategy == nil {
		return DefaultStrategy
	}
	return p.Strategy
}

func (p *Policy) retryable() StatusDecider {
	if p.Retryable == nil {
		return RetryableStatus
	}
	return p.Retryable
}

func (p *Policy) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
