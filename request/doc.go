// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Request (a replayable logical
HTTP request), Response (an HTTP response with a re-playable body) and
Call (the state of one request travelling through a pipeline).

A Request looks like a stripped-down http.Request whose body is held as
a BodySupplier rather than a stream. Every attempt made for the request,
and every copy made with Copy, reads the body from the start:

	r, err := request.NewRequest("PUT", "https://example.com/thing", body)
	...
	resp, err := p.Send(ctx, r)
	...

When a request declares a Content-Length, the body reader produced for
each attempt enforces it and fails with a *LengthError if the body turns
out to be longer or shorter than declared.

A Response keeps the stream received from the transport until it is
first read in full, after which the body is cached. Call Close on a
response whose body will not be read, so that the underlying connection
can be reused.

A Call is handed to every policy in a pipeline. Policies may rewrite the
call's Request and may exchange data with each other through SetValue
and Value.
*/
package request
