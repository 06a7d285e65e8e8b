// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package restx

import (
	"context"
	"net/url"

	"github.com/gogama/restx/request"
)

// Sender is the interface that wraps the basic Send method.
//
// Send sends a request and returns the final response (and error, if
// any). Client implements the Sender interface, and so does
// pipeline.Pipeline. Any other Sender implementation must behave
// substantially the same as Client.Send.
//
// Any Sender can be converted into an Executor via the Inflate function.
type Sender interface {
	Send(ctx context.Context, r *request.Request) (*request.Response, error)
}

// Getter is the interface that wraps the basic Get method.
//
// Get issues a GET to the specified URL and returns the buffered
// response (and error, if any). Client implements the Getter interface.
//
// Any Sender can be used to emulate a Getter via the Get function.
type Getter interface {
	Get(ctx context.Context, url string) (*request.Response, error)
}

// Header is the interface that wraps the basic Head method.
//
// Any Sender can be used to emulate a Header via the Head function.
type Header interface {
	Head(ctx context.Context, url string) (*request.Response, error)
}

// Poster is the interface that wraps the basic Post method.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.NewRequest and request.BodyBytes, namely:
// string; []byte; io.Reader; and io.ReadCloser.
//
// Any Sender can be used to emulate a Poster via the Post function.
type Poster interface {
	Post(ctx context.Context, url, contentType string, body interface{}) (*request.Response, error)
}

// FormPoster is the interface that wraps the basic PostForm method.
//
// The request body is set to the URL-encoded keys and values from
// data, and the content type is set to application/x-www-form-urlencoded.
//
// Any Sender can be used to emulate a FormPoster via the PostForm
// function.
type FormPoster interface {
	PostForm(ctx context.Context, url string, data url.Values) (*request.Response, error)
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes any connections which were previously connected from previous
// requests but are now sitting idle in a "keep-alive" state. It does
// not interrupt any connections currently in use.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor is the interface that groups the basic Send, Get, Head,
// Post, PostForm, and CloseIdleConnections methods.
//
// Any Sender can be converted into an Executor via the Inflate function.
type Executor interface {
	Sender
	Getter
	Header
	Poster
	FormPoster
	IdleCloser
}

// Get uses the specified Sender to issue a GET to the specified URL.
// The response body is buffered before Get returns.
func Get(ctx context.Context, s Sender, url string) (*request.Response, error) {
	r, err := request.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	return buffer(s.Send(ctx, r))
}

// Head uses the specified Sender to issue a HEAD to the specified URL.
func Head(ctx context.Context, s Sender, url string) (*request.Response, error) {
	r, err := request.NewRequest("HEAD", url, nil)
	if err != nil {
		return nil, err
	}
	return buffer(s.Send(ctx, r))
}

// Post uses the specified Sender to issue a POST to the specified URL.
// The response body is buffered before Post returns.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.NewRequest and request.BodyBytes, namely:
// string; []byte; io.Reader; and io.ReadCloser.
func Post(ctx context.Context, s Sender, url, contentType string, body interface{}) (*request.Response, error) {
	b, err := request.BodyBytes(body)
	if err != nil {
		return nil, err
	}
	r, err := request.NewRequest("POST", url, b)
	if err != nil {
		return nil, err
	}
	r.Header.Set("Content-Type", contentType)
	return buffer(s.Send(ctx, r))
}

// PostForm uses the specified Sender to issue a POST to the specified
// URL, with data's keys and values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
func PostForm(ctx context.Context, s Sender, url string, data url.Values) (*request.Response, error) {
	return Post(ctx, s, url, "application/x-www-form-urlencoded", data.Encode())
}

// buffer reads the whole body of a non-nil response. A response
// returned alongside an error, as with *retry.ExhaustedError, is
// buffered too.
func buffer(resp *request.Response, err error) (*request.Response, error) {
	if resp == nil {
		return nil, err
	}
	if _, bufErr := resp.Buffer(); bufErr != nil && err == nil {
		err = request.WrapError(resp.Request, bufErr)
	}
	return resp, err
}

// Inflate converts any non-nil Sender into an Executor. This may be
// helpful for interop across library boundaries, i.e. if code that only
// has access to a Sender needs to call a function that requires an
// Executor.
func Inflate(s Sender) Executor {
	if s == nil {
		panic("restx: nil sender")
	}

	if e, ok := s.(Executor); ok {
		return e
	}

	return inflated{s}
}

type inflated struct {
	sender Sender
}

func (i inflated) Send(ctx context.Context, r *request.Request) (*request.Response, error) {
	return i.sender.Send(ctx, r)
}

func (i inflated) Get(ctx context.Context, url string) (*request.Response, error) {
	return Get(ctx, i.sender, url)
}

func (i inflated) Head(ctx context.Context, url string) (*request.Response, error) {
	return Head(ctx, i.sender, url)
}

func (i inflated) Post(ctx context.Context, url, contentType string, body interface{}) (*request.Response, error) {
	return Post(ctx, i.sender, url, contentType, body)
}

func (i inflated) PostForm(ctx context.Context, url string, data url.Values) (*request.Response, error) {
	return PostForm(ctx, i.sender, url, data)
}

func (i inflated) CloseIdleConnections() {
	if ic, ok := i.sender.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
