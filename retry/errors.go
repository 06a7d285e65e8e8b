// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"fmt"

	"github.com/gogama/restx/request"
)

// An ExhaustedError is returned by the retry Policy when the last
// allowed attempt of a call fails.
//
// If the last attempt produced a retryable response, Response and
// StatusCode describe it, and the response is also returned alongside
// the error. If the last attempt failed in the transport, Err holds the
// transport error.
type ExhaustedError struct {
	// Retries is the number of retries made, which is one less than
	// the number of attempts.
	Retries int
	// StatusCode is the status code of the last response, or zero if
	// the last attempt got no response.
	StatusCode int
	// Response is the last response, if any.
	Response *request.Response
	// Err is the last transport error, if any.
	Err error
}

func (err *ExhaustedError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("restx/retry: max retries %d exceeded: %s", err.Retries, err.Err.Error())
	}
	return fmt.Sprintf("restx/retry: max retries %d exceeded: status code %d", err.Retries, err.StatusCode)
}

// Unwrap returns the last transport error, if any.
func (err *ExhaustedError) Unwrap() error {
	return err.Err
}
