// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogama/restx/request"
)

// DefaultErrorKind is the kind of StatusError produced for a status
// code which no ErrorMapping of the method covers.
const DefaultErrorKind = "HTTPResponseError"

// ErrMissingMetadata is wrapped by a ConfigError when a descriptor
// leaves out a required item, such as the service host or a method's
// HTTP verb.
var ErrMissingMetadata = errors.New("missing required metadata")

// A ConfigError reports an invalid InterfaceDescriptor or
// MethodDescriptor. It is returned when the descriptor is parsed,
// never when a call is made.
type ConfigError struct {
	// Interface is the name of the interface being parsed.
	Interface string
	// Method is the name of the offending method, or "" if the
	// problem is with the interface itself.
	Method string
	// Err describes the problem.
	Err error
}

func (err *ConfigError) Error() string {
	if err.Method == "" {
		return fmt.Sprintf("restx/rest: interface %q: %v", err.Interface, err.Err)
	}
	return fmt.Sprintf("restx/rest: interface %q method %q: %v", err.Interface, err.Method, err.Err)
}

func (err *ConfigError) Unwrap() error {
	return err.Err
}

func configErrorf(iface, method, format string, a ...interface{}) *ConfigError {
	return &ConfigError{Interface: iface, Method: method, Err: fmt.Errorf(format, a...)}
}

// A MissingArgumentError is returned, when Options.Strict is set, if a
// host or path placeholder is bound to a nil argument.
type MissingArgumentError struct {
	Method string
	Name   string
	Index  int
}

func (err *MissingArgumentError) Error() string {
	return fmt.Sprintf("restx/rest: method %q: nil argument %d for placeholder {%s}", err.Method, err.Index, err.Name)
}

// A StatusError is returned when a response status code is not one the
// method expects.
type StatusError struct {
	// StatusCode is the unexpected status code.
	StatusCode int
	// Kind is the error kind mapped to the status code, or
	// DefaultErrorKind.
	Kind string
	// Body is the raw response body.
	Body []byte
	// BodyRepr is the representation of Body used in the error
	// message.
	BodyRepr string
	// Value is the body decoded into the error body type of the
	// mapping, or nil if there is no type or decoding failed.
	Value interface{}
	// Response is the response, with its body already buffered.
	Response *request.Response
}

func (err *StatusError) Error() string {
	return fmt.Sprintf("Status code %d, %s", err.StatusCode, err.BodyRepr)
}

// bodyRepr renders a response body for an error message. Binary bodies
// are rendered as a byte count.
func bodyRepr(contentType, contentLength string, body []byte) string {
	if strings.EqualFold(strings.TrimSpace(contentType), "application/octet-stream") {
		if contentLength == "" {
			contentLength = fmt.Sprint(len(body))
		}
		return "(" + contentLength + "-byte body)"
	}
	if len(body) == 0 {
		return "(empty body)"
	}
	return `"` + string(body) + `"`
}

// A DecodeError is returned when a response body or its headers cannot
// be decoded into the type a method declares.
type DecodeError struct {
	// Method is the name of the method whose response was decoded.
	Method string
	// StatusCode is the response status code.
	StatusCode int
	// Headers is true if the error occurred while decoding headers.
	Headers bool
	// Err is the underlying error.
	Err error
}

func (err *DecodeError) Error() string {
	what := "body"
	if err.Headers {
		what = "headers"
	}
	return fmt.Sprintf("restx/rest: method %q: failed to decode response %s (status %d): %v",
		err.Method, what, err.StatusCode, err.Err)
}

func (err *DecodeError) Unwrap() error {
	return err.Err
}
