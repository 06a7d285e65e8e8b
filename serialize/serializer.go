// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package serialize

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// A Serializer encodes Go values to bodies and decodes bodies to Go
// values.
//
// Implementations of Serializer must be safe for concurrent use by
// multiple goroutines.
type Serializer interface {
	// Serialize encodes v in the given encoding.
	Serialize(v interface{}, e Encoding) ([]byte, error)
	// Deserialize decodes data, in the given encoding, into the value
	// pointed to by v.
	Deserialize(data []byte, v interface{}, e Encoding) error
}

// Adapter is the built-in Serializer. It uses encoding/json for JSON,
// encoding/xml for XML and github.com/vmihailenco/msgpack/v5 for
// MessagePack.
//
// The zero value is ready to use.
type Adapter struct {
	// DisallowUnknownFields makes JSON decoding fail when the body
	// contains an object key which does not match any field of the
	// destination struct.
	DisallowUnknownFields bool

	// UseNumber makes JSON decoding into an interface{} produce
	// json.Number values instead of float64.
	UseNumber bool
}

// DefaultAdapter is the Adapter used when no Serializer is configured.
var DefaultAdapter = &Adapter{}

// Serialize implements Serializer.
func (a *Adapter) Serialize(v interface{}, e Encoding) ([]byte, error) {
	switch e {
	case JSON:
		return json.Marshal(v)
	case XML:
		return xml.Marshal(v)
	case MsgPack:
		return msgpack.Marshal(v)
	default:
		return nil, fmt.Errorf("restx/serialize: unsupported encoding %d", int(e))
	}
}

// Deserialize implements Serializer.
func (a *Adapter) Deserialize(data []byte, v interface{}, e Encoding) error {
	switch e {
	case JSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if a.DisallowUnknownFields {
			dec.DisallowUnknownFields()
		}
		if a.UseNumber {
			dec.UseNumber()
		}
		if err := dec.Decode(v); err != nil {
			return err
		}
		if _, err := dec.Token(); err != io.EOF {
			return fmt.Errorf("restx/serialize: invalid data after top-level JSON value")
		}
		return nil
	case XML:
		return xml.Unmarshal(data, v)
	case MsgPack:
		return msgpack.Unmarshal(data, v)
	default:
		return fmt.Errorf("restx/serialize: unsupported encoding %d", int(e))
	}
}
