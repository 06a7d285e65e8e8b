// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package restx

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gogama/restx/pipeline"
	"github.com/gogama/restx/policy"
	"github.com/gogama/restx/request"
	"github.com/gogama/restx/rest"
	"github.com/gogama/restx/retry"
	"github.com/gogama/restx/serialize"
	"github.com/gogama/restx/timeout"
	"go.uber.org/zap"
)

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer = pipeline.HTTPDoer

// Default backoff curve used when only Client.MaxRetries is set.
const (
	defaultBackoffBase = 800 * time.Millisecond
	defaultBackoffMax  = 8 * time.Second
)

// A Client is a robust HTTP client with retry support. Its zero value
// is a valid configuration.
//
// The zero value client uses http.DefaultClient (from net/http) as the
// HTTPDoer, retry.DefaultStrategy as the retry strategy,
// timeout.DefaultPolicy as the per-attempt timeout, and installs no
// other policies.
//
// Every request sent by a Client passes through a pipeline of policies
// assembled from the Client's fields, in this order:
//
// • a policy.Host policy resolving relative URLs against Endpoint, if
// Endpoint is set;
//
// • the BeforeRetry policies, which run once per call;
//
// • the retry policy;
//
// • the AfterRetry policies, which run once per attempt;
//
// • a policy.Logging policy, if Logger is set; and
//
// • the timeout policy, which bounds each attempt.
//
// The pipeline is assembled on first use, so a Client must not be
// modified once it has sent a request. Client's HTTPDoer typically has
// an internal state (cached TCP connections) so Client instances should
// be reused instead of created as needed. Client is safe for concurrent
// use by multiple goroutines.
//
// A Client is higher-level than an HTTPDoer. The HTTPDoer is responsible
// for all details of sending the HTTP request and receiving the response,
// while Client builds on top of the HTTPDoer's feature set. For example,
// the HTTPDoer is responsible for redirects, so consult the HTTPDoer's
// documentation to understand how redirects are handled.
type Client struct {
	// HTTPDoer specifies the mechanics of sending HTTP requests and
	// receiving responses.
	//
	// If HTTPDoer is nil, http.DefaultClient from the standard net/http
	// package is used.
	HTTPDoer HTTPDoer

	// MaxRetries is the maximum number of retries after the first
	// attempt. Zero means retry.DefaultMaxRetries and a negative value
	// disables retries. A positive value uses the same jittered
	// exponential backoff as retry.DefaultStrategy.
	//
	// MaxRetries is ignored if RetryStrategy is set.
	MaxRetries int
	// RetryStrategy decides how many retries are allowed and how long
	// to wait between attempts.
	RetryStrategy retry.Strategy
	// Retryable decides which response status codes are retried. If
	// nil, retry.RetryableStatus is used.
	Retryable retry.StatusDecider
	// RetryAfterHeader names a response header carrying the number of
	// RetryAfterUnit to wait before retrying a 429 or 503 response.
	// See retry.Policy.
	RetryAfterHeader string
	// RetryAfterUnit is the unit of the retry-after header value. If
	// RetryAfterHeader is set and RetryAfterUnit is not positive, one
	// second is used.
	RetryAfterUnit time.Duration

	// Timeout is a fixed timeout on each attempt. It is ignored if
	// TimeoutPolicy is set. If both are zero, timeout.DefaultPolicy is
	// used.
	Timeout time.Duration
	// TimeoutPolicy specifies how to set timeouts on individual request
	// attempts.
	TimeoutPolicy *timeout.Policy

	// Endpoint is a base URL of the form scheme://host[:port] used to
	// resolve requests whose URL has no host. It is also the host of
	// services created with NewService from descriptors with no Host.
	Endpoint string

	// BeforeRetry holds policies run once per call, ahead of the retry
	// policy.
	BeforeRetry []pipeline.Policy
	// AfterRetry holds policies run on every attempt, after the retry
	// policy.
	AfterRetry []pipeline.Policy

	// Logger receives retry and per-attempt log entries, and decode
	// failures from services created with NewService. If nil, nothing
	// is logged.
	Logger *zap.Logger
	// Serializer is used by services created with NewService. If nil,
	// serialize.DefaultAdapter is used.
	Serializer serialize.Serializer
	// Strict makes services created with NewService reject nil
	// placeholder arguments instead of substituting an empty string.
	Strict bool

	once     sync.Once
	pipeline *pipeline.Pipeline
}

// Send sends a request through the client's pipeline and returns the
// response, following the retry and timeout policy set on Client and
// low-level policy set on the underlying HTTPDoer.
//
// The response body is not buffered. The caller must close or fully
// read the response, or use the Get, Head, Post and PostForm methods,
// which buffer it.
//
// A non-2XX status code does not result in an error unless the status
// is retryable and retries are exhausted, in which case a non-nil
// response is returned with a *retry.ExhaustedError. Transport errors
// are of type *url.Error, possibly wrapped in a *retry.ExhaustedError
// or a *timeout.Error.
func (c *Client) Send(ctx context.Context, r *request.Request) (*request.Response, error) {
	return c.Pipeline().Send(ctx, r)
}

// SendCall is like Send but takes a call whose side channel the caller
// may already have populated.
//
// Client implements rest.Sender through SendCall.
func (c *Client) SendCall(ctx context.Context, call *request.Call) (*request.Response, error) {
	return c.Pipeline().SendCall(ctx, call)
}

// Get issues a GET to the specified URL, using the same policies
// followed by Send. The response body is buffered.
//
// To make a request with custom headers, use request.NewRequest and
// Client.Send.
func (c *Client) Get(ctx context.Context, url string) (*request.Response, error) {
	return Get(ctx, c, url)
}

// Head issues a HEAD to the specified URL, using the same policies
// followed by Send.
func (c *Client) Head(ctx context.Context, url string) (*request.Response, error) {
	return Head(ctx, c, url)
}

// Post issues a POST to the specified URL, using the same policies
// followed by Send. The response body is buffered.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.NewRequest and request.BodyBytes, namely:
// string; []byte; io.Reader; and io.ReadCloser.
func (c *Client) Post(ctx context.Context, url, contentType string, body interface{}) (*request.Response, error) {
	return Post(ctx, c, url, contentType, body)
}

// PostForm issues a POST to the specified URL, with data's keys and
// values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
// To set other headers, use request.NewRequest and Client.Send.
func (c *Client) PostForm(ctx context.Context, url string, data url.Values) (*request.Response, error) {
	return PostForm(ctx, c, url, data)
}

// CloseIdleConnections invokes the same method on the client's
// underlying HTTPDoer.
//
// If the HTTPDoer has no CloseIdleConnections method, this method does
// nothing.
func (c *Client) CloseIdleConnections() {
	if ic, ok := c.Pipeline().Doer().(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

// NewService binds the described interface to the client. The
// descriptor is parsed once and cached in rest.DefaultRegistry under
// its name.
//
// If the descriptor has no Host, the client's Endpoint is used.
func (c *Client) NewService(d rest.InterfaceDescriptor) (*rest.Service, error) {
	if d.Host == "" {
		d.Host = c.Endpoint
	}
	iface, err := rest.DefaultRegistry.Load(d)
	if err != nil {
		return nil, err
	}
	return &rest.Service{
		Options: rest.Options{
			Serializer: c.Serializer,
			Strict:     c.Strict,
			Logger:     c.Logger,
		},
		Interface: iface,
		Sender:    c,
	}, nil
}

// Pipeline returns the pipeline the client sends requests through,
// assembling it on first use.
func (c *Client) Pipeline() *pipeline.Pipeline {
	c.once.Do(func() {
		c.pipeline = pipeline.New(c.doer(), c.policies()...)
	})
	return c.pipeline
}

func (c *Client) policies() []pipeline.Policy {
	ps := make([]pipeline.Policy, 0, len(c.BeforeRetry)+len(c.AfterRetry)+4)
	if c.Endpoint != "" {
		ps = append(ps, policy.NewHost(c.Endpoint, false))
	}
	ps = append(ps, c.BeforeRetry...)
	ps = append(ps, c.retryPolicy())
	ps = append(ps, c.AfterRetry...)
	if c.Logger != nil {
		ps = append(ps, &policy.Logging{Logger: c.Logger})
	}
	return append(ps, c.timeoutPolicy())
}

func (c *Client) retryPolicy() *retry.Policy {
	p := &retry.Policy{
		Strategy:         c.RetryStrategy,
		Retryable:        c.Retryable,
		RetryAfterHeader: c.RetryAfterHeader,
		RetryAfterUnit:   c.RetryAfterUnit,
		Logger:           c.Logger,
	}
	if p.Strategy == nil {
		switch {
		case c.MaxRetries < 0:
			p.Strategy = retry.FixedDelay(0, 0)
		case c.MaxRetries > 0:
			p.Strategy = retry.ExponentialBackoff(c.MaxRetries, defaultBackoffBase, defaultBackoffMax, time.Now())
		}
	}
	if p.RetryAfterHeader != "" && p.RetryAfterUnit <= 0 {
		p.RetryAfterUnit = time.Second
	}
	return p
}

func (c *Client) timeoutPolicy() *timeout.Policy {
	switch {
	case c.TimeoutPolicy != nil:
		return c.TimeoutPolicy
	case c.Timeout > 0:
		return timeout.Fixed(c.Timeout)
	default:
		return timeout.DefaultPolicy
	}
}

func (c *Client) doer() HTTPDoer {
	if c.HTTPDoer == nil {
		return http.DefaultClient
	}

	return c.HTTPDoer
}
