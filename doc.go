// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package restx provides a robust HTTP client for calling REST services,
built on a pipeline of pluggable policies, within a simple and familiar
interface.

Create a Client to begin making requests.

	client := &restx.Client{}
	resp, err := client.Get(ctx, "https://www.example.com")
	...
	resp, err := client.Post(ctx, "https://www.example.com/upload",
		"application/json", &buf)
	...
	resp, err := client.PostForm(ctx, "http://example.com/form",
		url.Values{"key": {"Value"}, "id": {"123"}})

For control over how the client sends HTTP requests and receives HTTP
responses, use a custom HTTPDoer. For example, use a GoLang standard
HTTP client:

	doer := &http.Client{
		..., // See package "net/http" for detailed documentation
	}
	client := &restx.Client{
		HTTPDoer: doer,
	}

For control over the client's retry decisions and timing, set a retry
strategy from package retry:

	client := &restx.Client{
		RetryStrategy: retry.ExponentialBackoff(5, 250*time.Millisecond, 5*time.Second, time.Now()),
	}

For control over the client's individual attempt timeouts, set a
timeout policy from package timeout:

	client := &restx.Client{
		TimeoutPolicy: timeout.Adaptive(time.Second, 5*time.Second),
	}

To mix in behavior such as request IDs, rate limiting or extra headers,
install policies, from package policy or your own, ahead of the retry
policy (run once per call) or after it (run on every attempt):

	client := &restx.Client{
		BeforeRetry: []pipeline.Policy{policy.NewRateLimit(10, 1)},
		AfterRetry:  []pipeline.Policy{policy.NewRequestID("X-Request-Id")},
		Logger:      logger,
	}

To call a REST service described with package rest, bind the
description to the client:

	svc, err := client.NewService(widgets)
	...
	w, err := rest.Call[Widget](ctx, svc, "GetWidget", "w-1")

Package restx provides basic interfaces for each method of the robust
client (Sender, Getter, Header, Poster, FormPoster, and IdleCloser); a
combined interface that composes all the basic methods (Executor); and
utility functions for working with a Sender (Inflate, Get, Head, Post,
and PostForm).
*/
package restx
