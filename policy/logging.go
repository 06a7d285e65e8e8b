// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package policy

import (
	"context"
	"time"

	"github.com/gogama/restx/pipeline"
	"github.com/gogama/restx/request"
	"github.com/gogama/restx/transient"
	"go.uber.org/zap"
)

// Logging is a policy which writes one log entry per pass through it:
// a Debug entry for every response and a Warn entry for every error.
//
// The zero value logs nothing.
type Logging struct {
	Logger *zap.Logger
}

// Process implements pipeline.Policy.
func (p *Logging) Process(ctx context.Context, call *request.Call, next pipeline.Next) (*request.Response, error) {
	if p.Logger == nil {
		return next.Process(ctx, call)
	}

	method, url := call.Request.Method, ""
	if call.Request.URL != nil {
		url = call.Request.URL.Redacted()
	}
	start := time.Now()
	resp, err := next.Process(ctx, call)
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("url", url),
		zap.Duration("duration", time.Since(start)),
	}
	if id := RequestIDOf(call); id != "" {
		fields = append(fields, zap.String("requestID", id))
	}
	if resp != nil {
		fields = append(fields, zap.Int("status", resp.StatusCode))
	}

	if err != nil {
		fields = append(fields,
			zap.Stringer("transient", transient.Categorize(err)),
			zap.Error(err))
		p.Logger.Warn("call failed", fields...)
	} else {
		p.Logger.Debug("call completed", fields...)
	}
	return resp, err
}
