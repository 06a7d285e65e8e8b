// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"errors"
	"net/http"

	"github.com/gogama/restx/request"
)

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package. It is the
// transport at the end of every pipeline.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

// ErrNoMorePolicies is returned when a Next is processed from a
// position past the end of its pipeline, which can only happen if a
// Next value is fabricated rather than received from the pipeline.
var ErrNoMorePolicies = errors.New("restx/pipeline: there are no more policies to execute")

// A Pipeline is an ordered chain of policies terminated by a call to
// an HTTPDoer.
//
// A Pipeline is immutable once built, and safe for concurrent use by
// multiple goroutines.
type Pipeline struct {
	policies []Policy
	doer     HTTPDoer
}

// New builds a pipeline which runs the given policies, in order,
// before sending each request with doer.
//
// If doer is nil, http.DefaultClient from the standard net/http
// package is used.
func New(doer HTTPDoer, policies ...Policy) *Pipeline {
	if doer == nil {
		doer = http.DefaultClient
	}
	ps := make([]Policy, len(policies))
	for i, p := range policies {
		if p == nil {
			panic("restx/pipeline: nil policy")
		}
		ps[i] = p
	}
	return &Pipeline{
		policies: ps,
		doer:     doer,
	}
}

// Len returns the number of policies in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.policies)
}

// Policy returns the policy at index i.
func (p *Pipeline) Policy(i int) Policy {
	return p.policies[i]
}

// Doer returns the HTTPDoer at the end of the pipeline.
func (p *Pipeline) Doer() HTTPDoer {
	return p.doer
}

// Send sends a request through the pipeline and returns the response.
//
// The context controls the entire call, including every policy, the
// transport send, and any wait between retries. Cancelling it aborts
// the call.
func (p *Pipeline) Send(ctx context.Context, r *request.Request) (*request.Response, error) {
	return p.SendCall(ctx, request.NewCall(r))
}

// SendCall is like Send but takes a call whose side channel the caller
// may already have populated.
func (p *Pipeline) SendCall(ctx context.Context, call *request.Call) (*request.Response, error) {
	if ctx == nil {
		panic("restx/pipeline: nil context")
	}
	if call == nil || call.Request == nil {
		panic("restx/pipeline: nil request")
	}
	if call.Request.Header == nil {
		call.Request.Header = make(http.Header)
	}
	return Next{pipeline: p}.Process(ctx, call)
}

// A Next is a position in a pipeline: the rest of the chain, from the
// policy at the position onward, followed by the transport.
//
// Next is an immutable value. Processing it never changes it, so a
// policy may process the Next it was given any number of times, and
// each time the rest of the chain is walked again from the same
// position.
type Next struct {
	pipeline *Pipeline
	index    int
}

// Index returns the zero-based index of the policy which Process will
// run next. An index equal to the number of policies in the pipeline
// means Process will call the transport.
func (n Next) Index() int {
	return n.index
}

// Process runs the rest of the chain for call.
func (n Next) Process(ctx context.Context, call *request.Call) (*request.Response, error) {
	if n.pipeline == nil || n.index > len(n.pipeline.policies) {
		return nil, ErrNoMorePolicies
	}
	if n.index == len(n.pipeline.policies) {
		return n.pipeline.send(ctx, call.Request)
	}
	return n.pipeline.policies[n.index].Process(ctx, call, Next{pipeline: n.pipeline, index: n.index + 1})
}

func (p *Pipeline) send(ctx context.Context, r *request.Request) (*request.Response, error) {
	hr, err := r.ToHTTP(ctx)
	if err != nil {
		return nil, request.WrapError(r, err)
	}
	resp, err := p.doer.Do(hr)
	if err != nil {
		return nil, request.WrapError(r, err)
	}
	return request.NewResponse(r, resp.StatusCode, resp.Header, resp.Body), nil
}
