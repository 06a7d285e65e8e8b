// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"io"
	"net/url"
	"strings"
)

const badBodyTypeMsg = "restx/request: invalid type (for body use nil, " +
	"string, []byte, io.Reader, io.ReadCloser or BodySupplier)"

// BodyBytes converts a generic body parameter to a byte slice for use
// as a buffered request body.
//
// The body parameter may be nil, or it may be a string, []byte,
// io.Reader, or io.ReadCloser. The conversion logic is:
//
// • If body is nil, a nil byte slice and no error is returned.
//
// • If body is a []byte, body itself and no error is returned.
//
// • If body is a string, the built-in conversion from string to byte
// slice, and no error, is returned.
//
// • If body is an io.Reader or io.ReadCloser, the result of reading
// the whole contents of the reader (and closing it if it implements
// Closer) is returned.
//
// • If body is any other type than those listed above, a nil byte slice
// and an error is returned.
func BodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case io.ReadCloser:
		b, err := io.ReadAll(x)
		if err != nil {
			return nil, err
		}
		err = x.Close()
		if err != nil {
			return nil, err
		}
		return b, nil
	case io.Reader:
		return BodyBytes(io.NopCloser(x))
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
}

// WrapError wraps err in a *url.Error describing an operation on r,
// unless err is already a *url.Error.
func WrapError(r *Request, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*url.Error); ok {
		return err
	}

	var u string
	var method string
	if r != nil {
		method = r.Method
		if r.URL != nil {
			u = r.URL.String()
		}
	}

	return &url.Error{
		Op:  ErrorOp(method),
		URL: u,
		Err: err,
	}
}

// ErrorOp is lifted verbatim from net/http/client.go (urlErrorOp).
func ErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
