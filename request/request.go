// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// A BodySupplier produces a fresh reader over a request body each time
// it is called. Every reader it returns must yield the same bytes, so
// that the body can be sent again when a request attempt is retried.
type BodySupplier func() (io.ReadCloser, error)

// A Request is a logical HTTP request flowing through a pipeline.
//
// Unlike http.Request, a Request never owns a consumed stream. Its body
// is held as a BodySupplier so that each attempt, and each copy made
// with Copy, reads the body from the beginning.
//
// Policies may rewrite the method, URL and headers of the request in
// the current call before continuing the chain. A Request which has
// already been sent must not be mutated; use Copy instead.
type Request struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	// An empty string means GET.
	Method string

	// URL specifies the URL to access.
	URL *urlpkg.URL

	// Header contains the request header fields. Keys are
	// case-insensitive in the manner of http.Header. Multiple values
	// for the same name may be joined with commas using AddValue.
	Header http.Header

	body BodySupplier
}

// NewRequest returns a new Request given a method, URL, and optional
// body.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, io.ReadCloser or BodySupplier. Strings, byte
// slices and readers are buffered and the Content-Length header is set
// to the buffered length. A BodySupplier is kept as is, so the caller
// is responsible for the Content-Length header.
func NewRequest(method, url string, body interface{}) (*Request, error) {
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	return NewRequestURL(method, u, body)
}

// NewRequestURL is like NewRequest but takes an already parsed URL.
func NewRequestURL(method string, u *urlpkg.URL, body interface{}) (*Request, error) {
	if method == "" {
		method = "GET"
	}
	if !ValidMethod(method) {
		return nil, fmt.Errorf("restx/request: invalid method %q", method)
	}
	if u == nil {
		return nil, fmt.Errorf("restx/request: nil URL")
	}
	u.Host = removeEmptyPort(u.Host)
	r := &Request{
		Method: method,
		URL:    u,
		Header: make(http.Header),
	}
	if s, ok := body.(BodySupplier); ok {
		r.SetBodySupplier(s)
		return r, nil
	}
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	if b != nil {
		r.SetBody(b)
	}
	return r, nil
}

// SetBody sets a buffered body on the request and sets the
// Content-Length header to its length. A nil slice removes the body
// and sets Content-Length to zero.
func (r *Request) SetBody(b []byte) *Request {
	if b == nil {
		r.body = nil
	} else {
		r.body = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(b)), nil
		}
	}
	r.header().Set("Content-Length", strconv.Itoa(len(b)))
	return r
}

// SetBodySupplier sets a streaming body on the request. The
// Content-Length header is left unchanged. When it is present, every
// reader produced for the request is checked against it.
func (r *Request) SetBodySupplier(s BodySupplier) *Request {
	r.body = s
	return r
}

// HasBody reports whether the request has a body supplier.
func (r *Request) HasBody() bool {
	return r.body != nil
}

// Body returns a fresh reader over the request body. A request
// without a body yields http.NoBody.
func (r *Request) Body() (io.ReadCloser, error) {
	if r.body == nil {
		return http.NoBody, nil
	}
	return r.body()
}

// Supplier returns the request's body supplier, which may be nil.
func (r *Request) Supplier() BodySupplier {
	return r.body
}

// Copy returns a fresh logical copy of the request. The copy has its
// own URL and header map, and shares the body supplier, never a
// consumed stream.
func (r *Request) Copy() *Request {
	r2 := &Request{
		Method: r.Method,
		Header: r.Header.Clone(),
		body:   r.body,
	}
	if r2.Header == nil {
		r2.Header = make(http.Header)
	}
	if r.URL != nil {
		u := *r.URL
		if r.URL.User != nil {
			user := *r.URL.User
			u.User = &user
		}
		r2.URL = &u
	}
	return r2
}

// SetBasicAuth sets the request's Authorization header to use HTTP
// Basic Authentication with the provided username and password.
func (r *Request) SetBasicAuth(username, password string) {
	r.header().Set("Authorization", "Basic "+basicAuth(username, password))
}

// ToHTTP creates an HTTP request attempt corresponding to the logical
// request. The context of the new request is set to ctx, which may not
// be nil.
//
// The body of the attempt is a fresh reader from the body supplier. If
// the request declares a Content-Length, the reader fails with a
// *LengthError as soon as the body is observed to be longer or shorter
// than declared. A body declared as zero-length is read by ToHTTP
// itself, and ToHTTP returns the *LengthError if it emits any bytes.
func (r *Request) ToHTTP(ctx context.Context) (*http.Request, error) {
	if ctx == nil {
		panic("restx/request: nil context")
	}
	method := r.Method
	if method == "" {
		method = "GET"
	}
	hr, err := http.NewRequestWithContext(ctx, method, r.URL.String(), nil)
	if err != nil {
		return nil, err
	}
	hr.URL = r.URL
	hr.Host = r.URL.Host
	hr.Header = r.Header.Clone()
	if hr.Header == nil {
		hr.Header = make(http.Header)
	}
	if r.body == nil {
		return hr, nil
	}
	body, err := ValidateLength(r)
	if err != nil {
		return nil, err
	}
	hr.Body = body
	hr.GetBody = func() (io.ReadCloser, error) {
		return ValidateLength(r)
	}
	if n, ok := contentLength(r.Header); ok {
		hr.ContentLength = n
		if n == 0 {
			if err = drainEmpty(body); err != nil {
				return nil, err
			}
			hr.Body = http.NoBody
			hr.GetBody = func() (io.ReadCloser, error) {
				return http.NoBody, nil
			}
		}
	} else {
		hr.ContentLength = -1
	}
	hr.Header.Del("Content-Length")
	return hr, nil
}

func (r *Request) header() http.Header {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	return r.Header
}

// ValidMethod reports whether method is a valid HTTP method token as
// defined in RFC 7230 section 3.2.6.
func ValidMethod(method string) bool {
	return len(method) > 0 && strings.IndexFunc(method, isNotToken) == -1
}

func isNotToken(r rune) bool {
	return !httpguts.IsTokenRune(r)
}

// basicAuth is lifted verbatim from net/http/client.go.
//
// See 2 (end of page 4) https://www.ietf.org/rfc/rfc2617.txt
// "To receive authorization, the client sends the userid and password,
// separated by a single colon (":") character, within a base64
// encoded string in the credentials."
// It is not meant to be urlencoded.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

// hasPort is lifted verbatim from net/http/http.go
//
// Given a string of the form "host", "host:port", or "[ipv6::address]:port",
// return true if the string includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort is lifted verbatim from net/http/http.go
//
// removeEmptyPort strips the empty port in ":port" to ""
// as mandated by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
