// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math/rand"
	"sync"
	"time"
)

// A Strategy computes how many times a failed request may be retried,
// and how long to wait before each retry.
//
// Implementations of Strategy must be safe for concurrent use by
// multiple goroutines.
type Strategy interface {
	// MaxRetries returns the maximum number of retries. A request is
	// attempted at most MaxRetries()+1 times.
	MaxRetries() int
	// Delay returns how long to wait after the zero-based attempt
	// number attempt fails, before making the next attempt.
	Delay(attempt int) time.Duration
}

// DefaultMaxRetries is the number of times DefaultStrategy will retry.
const DefaultMaxRetries = 3

// DefaultStrategy is the default retry strategy. It allows up to
// DefaultMaxRetries retries and uses a jittered exponential backoff
// formula with a base delay of 800 milliseconds and a maximum delay of
// 8 seconds.
var DefaultStrategy = ExponentialBackoff(DefaultMaxRetries, 800*time.Millisecond, 8*time.Second, time.Now())

// FixedDelay constructs a Strategy allowing up to maxRetries retries
// and always waiting delay before retrying.
//
// FixedDelay panics if maxRetries or delay is negative.
func FixedDelay(maxRetries int, delay time.Duration) Strategy {
	if maxRetries < 0 {
		panic("restx/retry: maxRetries may not be negative")
	}
	if delay < 0 {
		panic("restx/retry: delay may not be negative")
	}
	return fixedDelay{maxRetries: maxRetries, delay: delay}
}

type fixedDelay struct {
	maxRetries int
	delay      time.Duration
}

func (s fixedDelay) MaxRetries() int {
	return s.maxRetries
}

func (s fixedDelay) Delay(_ int) time.Duration {
	return s.delay
}

// ExponentialBackoff constructs a Strategy allowing up to maxRetries
// retries and implementing an exponential backoff formula with
// optional jitter.
//
// The formula implemented is the "Full Jitter" approach described in:
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter.
//
// Parameters base and max control the exponential calculation of the
// ceiling:
//
//	ceil := min(base * 2**attempt, max)
//
// Base and max must be positive values, and max must be at least equal
// to base.
//
// Parameter jitter is used to generate a random number between 0 and
// ceil. To make a strategy that does not jitter and simply returns
// ceil on each attempt, pass nil for jitter. Otherwise you may specify
// either a random number generator seed value (as a time.Time, int, or
// int64) or a random number generator (as a *rand.Rand or
// rand.Source). For a fixed seed the sequence of delays is
// deterministic.
func ExponentialBackoff(maxRetries int, base, max time.Duration, jitter interface{}) Strategy {
	if maxRetries < 0 {
		panic("restx/retry: maxRetries may not be negative")
	}
	if base < 1 {
		panic("restx/retry: base must be positive")
	}
	if max < base {
		panic("restx/retry: max must be at least base")
	}
	r := jitterToRand(jitter)
	return &expBackoff{
		maxRetries: maxRetries,
		base:       base,
		max:        max,
		rand:       r,
	}
}

type expBackoff struct {
	maxRetries int
	base       time.Duration
	max        time.Duration
	rand       *rand.Rand
	lock       sync.Mutex
}

func (s *expBackoff) MaxRetries() int {
	return s.maxRetries
}

func (s *expBackoff) Delay(attempt int) time.Duration {
	ceil := s.ceil(attempt)
	duration := ceil
	if ceil > 0 && s.rand != nil {
		s.lock.Lock()
		defer s.lock.Unlock()
		duration = s.rand.Int63n(ceil)
	}

	return time.Duration(duration)
}

func (s *expBackoff) ceil(attempt int) int64 {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 62 {
		return int64(s.max)
	}
	exp := int64(1) << attempt

	ceil := int64(s.base) * exp
	if ceil/exp != int64(s.base) || int64(s.max) < ceil {
		ceil = int64(s.max)
	}

	return ceil
}

func jitterToRand(jitter interface{}) *rand.Rand {
	var s rand.Source
	switch j := jitter.(type) {
	case nil:
		return nil
	case time.Time:
		s = rand.NewSource(j.UnixNano())
	case int:
		s = rand.NewSource(int64(j))
	case int64:
		s = rand.NewSource(j)
	case *rand.Rand:
		if j == nil {
			panic("restx/retry: jitter may not be a typed nil")
		}
		return j
	case rand.Source:
		s = j
	default:
		panic("restx/retry: invalid jitter type")
	}
	return rand.New(s)
}
