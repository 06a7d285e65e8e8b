// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"fmt"
	"io"
)

// A LengthError is returned while reading a request body whose length
// does not match its declared Content-Length.
type LengthError struct {
	// Read is the number of bytes the body emitted.
	Read int64
	// Expected is the declared Content-Length.
	Expected int64
	// TooLarge is true if the body emitted more bytes than expected,
	// and false if it ended before the expected length was reached.
	TooLarge bool
}

func (err *LengthError) Error() string {
	if err.TooLarge {
		return fmt.Sprintf("Request body emitted %d bytes, more than the expected %d bytes.", err.Read, err.Expected)
	}
	return fmt.Sprintf("Request body emitted %d bytes, less than the expected %d bytes.", err.Read, err.Expected)
}

// ValidateLength returns a fresh reader over the body of r. If r has a
// Content-Length header, the reader fails with a *LengthError as soon
// as the running total exceeds the declared length, or at end of
// stream if fewer bytes were emitted than declared.
//
// Each call to ValidateLength produces an independent reader, so the
// same request can be validated and sent any number of times.
func ValidateLength(r *Request) (io.ReadCloser, error) {
	body, err := r.Body()
	if err != nil {
		return nil, err
	}
	n, ok := contentLength(r.Header)
	if !ok {
		return body, nil
	}
	return &lengthReader{rc: body, expected: n}, nil
}

// drainEmpty reads a body declared to be empty to its end and closes
// it. Any byte the body emits is a *LengthError.
func drainEmpty(rc io.ReadCloser) error {
	defer func() { _ = rc.Close() }()
	var p [512]byte
	for {
		_, err := rc.Read(p[:])
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

type lengthReader struct {
	rc       io.ReadCloser
	expected int64
	read     int64
	err      error
}

func (lr *lengthReader) Read(p []byte) (int, error) {
	if lr.err != nil {
		return 0, lr.err
	}
	n, err := lr.rc.Read(p)
	lr.read += int64(n)
	if lr.read > lr.expected {
		lr.err = &LengthError{Read: lr.read, Expected: lr.expected, TooLarge: true}
		return n, lr.err
	}
	if err == io.EOF && lr.read < lr.expected {
		lr.err = &LengthError{Read: lr.read, Expected: lr.expected}
		return n, lr.err
	}
	if err != nil {
		lr.err = err
	}
	return n, err
}

func (lr *lengthReader) Close() error {
	return lr.rc.Close()
}
