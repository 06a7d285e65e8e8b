// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"context"
	"errors"
	"io"
	"math"
	"time"

	"github.com/gogama/restx/pipeline"
	"github.com/gogama/restx/request"
)

// A Policy is a pipeline policy which bounds how long the rest of the
// chain may take to produce a response, and how long the caller may
// take to read the response body.
//
// Install a Policy after the retry policy to set a timeout on each
// attempt, or before it to set one overall deadline for the call.
//
// A Policy is safe for concurrent use by multiple goroutines.
type Policy struct {
	timeouts []time.Duration
}

// DefaultPolicy is the default timeout policy. It sets a fixed timeout
// of 5 seconds on each attempt.
var DefaultPolicy = Fixed(5 * time.Second)

// Infinite is a built-in timeout policy which never times out.
var Infinite = Fixed(math.MaxInt64)

// Fixed constructs a timeout policy that uses the same value to set
// every attempt timeout.
//
// Use Fixed to create the typical timeout behavior supported by most
// retrying HTTP client software.
func Fixed(d time.Duration) *Policy {
	return &Policy{timeouts: []time.Duration{d}}
}

// Adaptive constructs a timeout policy that varies the next timeout
// value if the previous attempt timed out.
//
// Use Adaptive if you find the remote service often exhibits one-off slow
// response times that can be cured by quickly timing out and retrying,
// but you also need to protect your application (and the remote service)
// from retry storms and failure if the remote service goes through a
// burst of slowness where most response times during the burst are
// slower than your usual quick timeout.
//
// Parameter usual represents the timeout value the policy will use
// for an initial attempt and for any retry where the immediately
// preceding attempt did not time out.
//
// Parameter after contains timeout values the policy will use if the
// previous attempt timed out. If this was the first timeout of the
// call, after[0] is used; if the second, after[1], and so on. If more
// attempts have timed out within the call than after has elements,
// then the last element of after is used.
//
// Consider the following timeout policy:
//
//	p := Adaptive(200*time.Millisecond, time.Second, 10*time.Second)
//
// The policy p will use 200 milliseconds as the usual timeout but if
// the preceding attempt timed out and was the first timeout of the
// call, it will use 1 second; and if the previous attempt timed out
// and was not the first attempt, it will use 10 seconds.
func Adaptive(usual time.Duration, after ...time.Duration) *Policy {
	p := make([]time.Duration, 1, 1+len(after))
	p[0] = usual
	return &Policy{timeouts: append(p, after...)}
}

// Timeout returns the timeout to set on the next attempt, given the
// number of attempts of the current call that have timed out so far
// and whether the immediately preceding attempt was one of them.
func (p *Policy) Timeout(timeouts int, lastTimedOut bool) time.Duration {
	if !lastTimedOut || timeouts < 1 {
		return p.timeouts[0]
	}

	i := timeouts
	if i > len(p.timeouts)-1 {
		i = len(p.timeouts) - 1
	}

	return p.timeouts[i]
}

type stateKey struct{}

type state struct {
	timeouts     int
	lastTimedOut bool
}

// Process implements pipeline.Policy.
//
// If the rest of the chain does not respond within the timeout, the
// returned error is an *Error. On success, the timeout remains in force
// until the response body is closed.
func (p *Policy) Process(ctx context.Context, call *request.Call, next pipeline.Next) (*request.Response, error) {
	s, _ := call.Value(stateKey{}).(state)
	d := p.Timeout(s.timeouts, s.lastTimedOut)
	if d <= 0 || d == math.MaxInt64 {
		return next.Process(ctx, call)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, d)
	resp, err := next.Process(attemptCtx, call)
	if err != nil {
		cancel()
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			call.SetValue(stateKey{}, state{timeouts: s.timeouts + 1, lastTimedOut: true})
			return nil, &Error{Duration: d, Err: err}
		}
		call.SetValue(stateKey{}, state{timeouts: s.timeouts})
		return nil, err
	}

	call.SetValue(stateKey{}, state{timeouts: s.timeouts})
	if resp.Buffered() {
		cancel()
	} else {
		resp.WrapBody(func(body io.ReadCloser) io.ReadCloser {
			return &cancelOnClose{ReadCloser: body, cancel: cancel}
		})
	}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
