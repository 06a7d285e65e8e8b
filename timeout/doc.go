// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout provides a pipeline policy which bounds how long each
// attempt of a call may take, including reading the response body. The
// timeout may be fixed, or may adapt when the previous attempt timed
// out.
package timeout
