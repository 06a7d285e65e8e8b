// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rest

import (
	"context"
	"fmt"

	"github.com/gogama/restx/request"
)

// ServiceNameKey is the call value key under which a Service stores
// the name of its interface.
type ServiceNameKey struct{}

// MethodNameKey is the call value key under which a Service stores
// the name of the method being called.
type MethodNameKey struct{}

// A Sender sends a call and returns its response. *pipeline.Pipeline
// is a Sender.
type Sender interface {
	SendCall(ctx context.Context, call *request.Call) (*request.Response, error)
}

// A Service calls the methods of an Interface through a Sender.
type Service struct {
	Options

	// Interface describes the remote service.
	Interface *Interface

	// Sender sends the requests built for each call.
	Sender Sender
}

// NewService loads d through DefaultRegistry and returns a Service
// calling it through sender.
func NewService(d InterfaceDescriptor, sender Sender) (*Service, error) {
	i, err := DefaultRegistry.Load(d)
	if err != nil {
		return nil, err
	}
	return &Service{Interface: i, Sender: sender}, nil
}

// Invoke calls the named method with args and returns the decoded
// result. See Options.BuildRequest and Options.Decode.
//
// The name of the interface and of the method are stored in the call
// under ServiceNameKey and MethodNameKey for the benefit of policies.
func (s *Service) Invoke(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	m := s.Interface.Method(method)
	if m == nil {
		return nil, fmt.Errorf("restx/rest: interface %q has no method %q", s.Interface.Name(), method)
	}
	r, err := s.BuildRequest(ctx, m, args)
	if err != nil {
		return nil, err
	}

	call := request.NewCall(r)
	call.SetValue(ServiceNameKey{}, s.Interface.Name())
	call.SetValue(MethodNameKey{}, m.Name())
	resp, err := s.Sender.SendCall(ctx, call)
	if err != nil {
		if resp != nil {
			_ = resp.Close()
		}
		return nil, err
	}
	return s.Decode(resp, m)
}

// Call invokes the named method of s and returns its result as a T. A
// nil result, as from a method which returns nothing, is the zero T.
func Call[T any](ctx context.Context, s *Service, method string, args ...interface{}) (T, error) {
	var zero T
	v, err := s.Invoke(ctx, method, args...)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("restx/rest: method %q returned %T, not %T", method, v, zero)
	}
	return t, nil
}

// ServiceNameOf returns the service name stored in call by a Service,
// or "" if there is none.
func ServiceNameOf(call *request.Call) string {
	name, _ := call.Value(ServiceNameKey{}).(string)
	return name
}
