// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package serialize converts between Go values and request or response
// bodies.
//
// The Serializer interface is the boundary between the rest of restx
// and any particular body format. Adapter is the built-in Serializer,
// supporting JSON, XML and MessagePack. The Encoding to use for a body
// is chosen from its Content-Type header by FromHeaders.
//
// The wire types Base64URL, UnixTime and DateTimeRFC1123 describe
// values whose over-the-wire form differs from their logical Go form.
package serialize
