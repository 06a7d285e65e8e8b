// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"fmt"
	"time"
)

// An Error reports that an attempt did not complete within the
// timeout set by a timeout Policy.
type Error struct {
	// Duration is the timeout that expired.
	Duration time.Duration
	// Err is the error returned by the rest of the chain.
	Err error
}

func (err *Error) Error() string {
	return fmt.Sprintf("restx/timeout: attempt timed out after %s: %v", err.Duration, err.Err)
}

// Timeout always returns true.
func (err *Error) Timeout() bool {
	return true
}

// Unwrap returns the error returned by the rest of the chain.
func (err *Error) Unwrap() error {
	return err.Err
}
