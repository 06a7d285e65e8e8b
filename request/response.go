// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// A Response is the HTTP response to a Request.
//
// The response body starts out as the stream received from the
// transport. The first full read through Bytes, String or Buffer
// caches the body, after which every accessor sees identical bytes and
// Body may be called any number of times.
//
// A Response is safe for concurrent use by multiple goroutines.
type Response struct {
	// Request is the request which produced the response.
	Request *Request

	// StatusCode is the HTTP response status code, e.g. 200.
	StatusCode int

	// Header contains the response header fields.
	Header http.Header

	lock     sync.Mutex
	stream   io.ReadCloser
	buf      []byte
	buffered bool
	err      error
}

// NewResponse creates a response over a body stream. A nil body is
// treated as an empty body.
func NewResponse(r *Request, statusCode int, header http.Header, body io.ReadCloser) *Response {
	if header == nil {
		header = make(http.Header)
	}
	if body == nil {
		body = http.NoBody
	}
	return &Response{
		Request:    r,
		StatusCode: statusCode,
		Header:     header,
		stream:     body,
	}
}

// NewBufferedResponse creates a response whose body is already fully
// buffered.
func NewBufferedResponse(r *Request, statusCode int, header http.Header, body []byte) *Response {
	resp := NewResponse(r, statusCode, header, nil)
	resp.buf = body
	resp.buffered = true
	return resp
}

// Bytes reads the whole body, caches it, closes the underlying stream
// and returns the cached bytes. Later calls return the cached result.
func (r *Response) Bytes() ([]byte, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.bufferLocked()
}

// String returns the body decoded as UTF-8 text.
func (r *Response) String() (string, error) {
	b, err := r.Bytes()
	return string(b), err
}

// Buffer reads and caches the body, and returns r itself so that calls
// may be chained.
func (r *Response) Buffer() (*Response, error) {
	_, err := r.Bytes()
	return r, err
}

// Buffered reports whether the body has been cached.
func (r *Response) Buffered() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.buffered
}

// Body returns a reader over the response body. If the body has been
// buffered, each call returns a new reader over the cached bytes.
// Otherwise the underlying stream is returned, which can only be read
// once.
func (r *Response) Body() io.ReadCloser {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.buffered {
		return io.NopCloser(bytes.NewReader(r.buf))
	}
	return r.stream
}

// WrapBody replaces the underlying body stream with the result of
// calling wrap on it. It has no effect once the body is buffered.
func (r *Response) WrapBody(wrap func(io.ReadCloser) io.ReadCloser) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if !r.buffered {
		r.stream = wrap(r.stream)
	}
}

// Close drains and closes the body stream, releasing the underlying
// connection. It is a no-op on a buffered response.
func (r *Response) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.buffered {
		return nil
	}
	_, _ = io.Copy(io.Discard, r.stream)
	return r.stream.Close()
}

func (r *Response) bufferLocked() ([]byte, error) {
	if r.buffered {
		return r.buf, r.err
	}
	b, err := io.ReadAll(r.stream)
	closeErr := r.stream.Close()
	if err == nil {
		err = closeErr
	}
	r.buf, r.err = b, err
	r.buffered = true
	return r.buf, r.err
}
