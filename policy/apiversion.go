// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package policy

import (
	"context"
	"fmt"

	"github.com/gogama/restx/pipeline"
	"github.com/gogama/restx/request"
	"github.com/gogama/restx/urlbuilder"
	"github.com/hashicorp/go-version"
)

// DefaultAPIVersionParam is the query parameter used by APIVersion
// when none is configured.
const DefaultAPIVersionParam = "api-version"

// APIVersion is a policy which stamps a service API version on every
// request, as a query parameter. A version already present on the
// request is left alone.
type APIVersion struct {
	param   string
	version *version.Version
}

// NewAPIVersion returns an APIVersion policy which sets the query
// parameter param to v. An empty param means DefaultAPIVersionParam.
// It returns an error if v is not a valid version string.
func NewAPIVersion(param, v string) (*APIVersion, error) {
	ver, err := version.NewVersion(v)
	if err != nil {
		return nil, fmt.Errorf("restx/policy: invalid API version %q: %w", v, err)
	}
	if param == "" {
		param = DefaultAPIVersionParam
	}
	return &APIVersion{param: param, version: ver}, nil
}

// Version returns the API version set by the policy.
func (p *APIVersion) Version() *version.Version {
	return p.version
}

// AtLeast reports whether the policy's API version is at least the
// version min. It returns false if min is not a valid version string.
func (p *APIVersion) AtLeast(min string) bool {
	m, err := version.NewVersion(min)
	if err != nil {
		return false
	}
	return p.version.GreaterThanOrEqual(m)
}

// Process implements pipeline.Policy.
func (p *APIVersion) Process(ctx context.Context, call *request.Call, next pipeline.Next) (*request.Response, error) {
	name := urlbuilder.QueryEscape(p.param)
	err := rewriteURL(call.Request, func(b *urlbuilder.Builder) bool {
		if len(b.QueryValues(name)) > 0 {
			return false
		}
		b.SetQueryParameter(name, urlbuilder.QueryEscape(p.version.Original()))
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("restx/policy: failed to set API version: %w", err)
	}
	return next.Process(ctx, call)
}
