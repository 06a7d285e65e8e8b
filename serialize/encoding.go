// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package serialize

import (
	"net/http"
	"strings"
)

// An Encoding is a body serialization format.
type Encoding int

const (
	// JSON is the JSON encoding. It is the default encoding.
	JSON Encoding = iota
	// XML is the XML encoding.
	XML
	// MsgPack is the MessagePack encoding.
	MsgPack
)

func (e Encoding) String() string {
	switch e {
	case JSON:
		return "json"
	case XML:
		return "xml"
	case MsgPack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// ContentType returns the canonical MIME type of the encoding.
func (e Encoding) ContentType() string {
	switch e {
	case XML:
		return "application/xml"
	case MsgPack:
		return "application/msgpack"
	default:
		return "application/json"
	}
}

var mimeTypes = map[string]Encoding{
	"application/json":      JSON,
	"text/xml":              XML,
	"application/xml":       XML,
	"application/msgpack":   MsgPack,
	"application/x-msgpack": MsgPack,
}

var suffixes = map[string]Encoding{
	"json":    JSON,
	"xml":     XML,
	"msgpack": MsgPack,
}

// FromHeaders returns the encoding selected by the Content-Type header
// in h. See FromContentType.
func FromHeaders(h http.Header) Encoding {
	return FromContentType(h.Get("Content-Type"))
}

// FromContentType returns the encoding for a Content-Type value.
//
// Exact MIME types are matched first, case-insensitively and ignoring
// parameters: "application/json" is JSON, "text/xml" and
// "application/xml" are XML, and "application/msgpack" is MsgPack.
// Otherwise a structured syntax suffix ("+json", "+xml", "+msgpack")
// selects the encoding. Anything else, including an empty value, is
// JSON.
func FromContentType(contentType string) Encoding {
	mimeType := contentType
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" {
		return JSON
	}
	if e, ok := mimeTypes[mimeType]; ok {
		return e
	}

	parts := strings.Split(mimeType, "/")
	if len(parts) != 2 {
		return JSON
	}
	i := strings.LastIndexByte(parts[1], '+')
	if i < 0 {
		return JSON
	}
	if e, ok := suffixes[parts[1][i+1:]]; ok {
		return e
	}
	return JSON
}
