// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package pipeline runs requests through an ordered chain of policies
ending in a call to an HTTPDoer, such as http.Client.

Build a pipeline once and share it between goroutines:

	p := pipeline.New(http.DefaultClient,
		policy.NewRequestID(""),
		retry.NewPolicy(retry.FixedDelay(3, time.Second), "Retry-After", time.Second),
		timeout.Fixed(10*time.Second))
	resp, err := p.Send(ctx, r)

Each policy is handed a Next, an immutable position in the chain. A
policy continues the call by processing its Next, and may do so more
than once; every time, the remainder of the chain runs again from the
same position, which is how retries re-walk the chain without
disturbing other calls.
*/
package pipeline
