// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides a pipeline policy which retries failed
// attempts, and the strategies that decide how many times to retry and
// how long to wait between attempts.
//
// A retry Policy is a pipeline.Policy. Install it in a pipeline ahead
// of the policies that should run once per attempt:
//
//	p := pipeline.New(nil,
//		retry.NewPolicy(retry.FixedDelay(3, time.Second), "Retry-After", time.Second),
//		timeout.Fixed(10*time.Second))
//
// A Strategy controls the retry budget and the delay curve. FixedDelay
// waits the same time before every retry, and ExponentialBackoff
// implements jittered exponential backoff. A StatusDecider controls
// which response status codes are retried; deciders compose with And
// and Or:
//
//	decider := retry.RetryableStatus.Or(retry.StatusCode(409))
//
// When a call runs out of retries, the policy returns an
// *ExhaustedError reporting the number of retries and the last status
// code or transport error.
package retry
