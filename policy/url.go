// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package policy

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/gogama/restx/pipeline"
	"github.com/gogama/restx/request"
	"github.com/gogama/restx/urlbuilder"
)

// Host is a policy which sets the host of the request URL. If
// Overwrite is false, the host is only set when the URL has none.
type Host struct {
	Host      string
	Overwrite bool
}

// NewHost returns a Host policy.
func NewHost(host string, overwrite bool) *Host {
	return &Host{Host: host, Overwrite: overwrite}
}

// Process implements pipeline.Policy.
func (p *Host) Process(ctx context.Context, call *request.Call, next pipeline.Next) (*request.Response, error) {
	err := rewriteURL(call.Request, func(b *urlbuilder.Builder) bool {
		if !p.Overwrite && b.Host() != "" {
			return false
		}
		b.SetHost(p.Host)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("restx/policy: host URL %q is invalid: %w", p.Host, err)
	}
	return next.Process(ctx, call)
}

// Port is a policy which sets the port of the request URL. If
// Overwrite is false, the port is only set when the URL has none.
type Port struct {
	Port      int
	Overwrite bool
}

// NewPort returns a Port policy.
func NewPort(port int, overwrite bool) *Port {
	return &Port{Port: port, Overwrite: overwrite}
}

// Process implements pipeline.Policy.
func (p *Port) Process(ctx context.Context, call *request.Call, next pipeline.Next) (*request.Response, error) {
	err := rewriteURL(call.Request, func(b *urlbuilder.Builder) bool {
		if !p.Overwrite && b.Port() != "" {
			return false
		}
		b.SetPort(strconv.Itoa(p.Port))
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("restx/policy: failed to set the request port to %d: %w", p.Port, err)
	}
	return next.Process(ctx, call)
}

// Protocol is a policy which sets the scheme of the request URL. If
// Overwrite is false, the scheme is only set when the URL has none.
type Protocol struct {
	Scheme    string
	Overwrite bool
}

// NewProtocol returns a Protocol policy.
func NewProtocol(scheme string, overwrite bool) *Protocol {
	return &Protocol{Scheme: scheme, Overwrite: overwrite}
}

// Process implements pipeline.Policy.
func (p *Protocol) Process(ctx context.Context, call *request.Call, next pipeline.Next) (*request.Response, error) {
	err := rewriteURL(call.Request, func(b *urlbuilder.Builder) bool {
		if !p.Overwrite && b.Scheme() != "" {
			return false
		}
		b.SetScheme(p.Scheme)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("restx/policy: failed to set the request protocol to %s: %w", p.Scheme, err)
	}
	return next.Process(ctx, call)
}

// rewriteURL applies f to a builder over the request URL. The user
// info and fragment are not seen by the builder and are carried over
// unchanged.
func rewriteURL(r *request.Request, f func(b *urlbuilder.Builder) bool) error {
	var b *urlbuilder.Builder
	var orig url.URL
	if r.URL != nil {
		orig = *r.URL
		stripped := orig
		stripped.User = nil
		stripped.Fragment, stripped.RawFragment = "", ""
		b = urlbuilder.ParseURL(&stripped)
	} else {
		b = &urlbuilder.Builder{}
	}
	if !f(b) {
		return nil
	}
	u, err := b.URL()
	if err != nil {
		return err
	}
	u.User = orig.User
	u.Fragment, u.RawFragment = orig.Fragment, orig.RawFragment
	r.URL = u
	return nil
}
