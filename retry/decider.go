// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"context"
	"errors"

	"github.com/gogama/restx/transient"
)

// A StatusDecider decides whether a response with the given HTTP
// status code should be retried.
//
// Every StatusDecider must be safe for concurrent use by multiple
// goroutines.
//
// Simple deciders can be composed into complex decision trees using
// the logical composition functions StatusDecider.And and
// StatusDecider.Or.
type StatusDecider func(statusCode int) bool

// RetryableStatus is the default status decider. It retries 408
// (Request Timeout), 429 (Too Many Requests), and every 5XX status
// except 501 (Not Implemented) and 505 (HTTP Version Not Supported).
var RetryableStatus StatusDecider = retryableStatus

// Decide returns true if a response with the given status code should
// be retried.
func (f StatusDecider) Decide(statusCode int) bool {
	return f(statusCode)
}

// And composes two status deciders into a new decider which returns
// true if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f StatusDecider) And(g StatusDecider) StatusDecider {
	return func(statusCode int) bool {
		return f(statusCode) && g(statusCode)
	}
}

// Or composes two status deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f StatusDecider) Or(g StatusDecider) StatusDecider {
	return func(statusCode int) bool {
		return f(statusCode) || g(statusCode)
	}
}

// StatusCode constructs a status decider which returns true if the
// status code is contained in the list ss.
func StatusCode(ss ...int) StatusDecider {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(statusCode int) bool {
		for _, s := range ss2 {
			if statusCode == s {
				return true
			}
		}
		return false
	}
}

func retryableStatus(statusCode int) bool {
	switch {
	case statusCode == 408, statusCode == 429:
		return true
	case statusCode == 501, statusCode == 505:
		return false
	default:
		return statusCode >= 500 && statusCode < 600
	}
}

// canceled reports whether a transport error was caused by the caller
// giving up on the call, in which case it must never be retried.
func canceled(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) || transient.Categorize(err) == transient.Canceled
}
