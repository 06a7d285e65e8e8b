// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"syscall"
)

// A Category is the transience category of an error, as reported by
// Categorize.
//
// Not means a retry is very unlikely to succeed. Canceled means the
// caller gave up on the call, so it must not be retried at all. Every
// other category means a retry has some prospect of success.
type Category int

const (
	// Not indicates any non-transient error.
	Not Category = iota
	// Timeout indicates a client-side timeout. The server may be slow
	// for a while, or a later attempt with a longer timeout may
	// succeed.
	//
	// Categorize returns Timeout if the error or any error it wraps has
	// a Timeout method that reports true. This covers context deadline
	// expiry and *timeout.Error.
	Timeout
	// ConnRefused indicates the remote host refused the connection
	// (ECONNREFUSED). It is transient because a service which is
	// starting or restarting briefly stops listening on its port.
	ConnRefused
	// ConnReset indicates the remote host reset an active connection
	// (ECONNRESET). Services shut down mid-response and load balancers
	// both cause it, and a retry usually succeeds.
	ConnReset
	// Canceled indicates the error is, or wraps, context.Canceled.
	Canceled
)

var categoryNames = [...]string{
	Not:         "not",
	Timeout:     "timeout",
	ConnRefused: "conn_refused",
	ConnReset:   "conn_reset",
	Canceled:    "canceled",
}

// String returns a short snake_case name for the category, suitable as
// a log field value.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// Categorize returns the transience category of err, looking through
// the whole chain of wrapped errors. A nil error is Not.
//
// Cancellation takes precedence over every other category. Categorize
// never consults a Temporary method.
func Categorize(err error) Category {
	switch {
	case err == nil:
		return Not
	case errors.Is(err, context.Canceled):
		return Canceled
	}

	var t timeouter
	if errors.As(err, &t) && t.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET:
			return ConnReset
		case syscall.ECONNREFUSED:
			return ConnRefused
		}
	}

	return Not
}

type timeouter interface {
	Timeout() bool
}
