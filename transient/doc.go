// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors from sending a request through
// a pipeline as transient or non-transient. The retry policy uses it to
// stop retrying calls the caller has canceled, and it is handy for
// other purposes such as bucketing error log entries.
//
// Package transient depends only on the standard library packages
// "context", "errors" and "syscall", so it doesn't bring any
// significant dependencies when imported as a standalone package.
package transient
