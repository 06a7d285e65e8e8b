// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package rest turns declarative descriptions of REST operations into
// requests, and their responses back into Go values.
//
// An InterfaceDescriptor describes a remote service: its host template
// and a table of MethodDescriptor values, one per operation. Each
// method names its HTTP verb and path template, the role of each call
// argument (host, path, query, header or form substitution, or body),
// the status codes it expects and the Go type it returns.
//
// Descriptors are validated once, by Parse or by a Registry, producing
// an Interface whose Method values drive BuildRequest and Decode. A
// Service binds an Interface to a Sender, such as a pipeline.Pipeline,
// so that a whole operation is a single call:
//
//	svc := &rest.Service{Interface: iface, Sender: p}
//	w, err := rest.Call[Widget](ctx, svc, "GetWidget", "w-1")
//
// Unexpected status codes are reported as *StatusError, malformed
// bodies as *DecodeError and invalid descriptors as *ConfigError.
package rest
