// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package serialize

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Base64URL is a byte string carried on the wire as unpadded base64url
// text.
type Base64URL string

// NewBase64URL encodes b.
func NewBase64URL(b []byte) Base64URL {
	return Base64URL(base64.RawURLEncoding.EncodeToString(b))
}

// Decode returns the bytes encoded in s. Trailing padding is accepted.
func (s Base64URL) Decode() ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(string(s), "="))
}

// UnixTime is a point in time carried on the wire as a number of
// seconds since the Unix epoch.
type UnixTime time.Time

// Time returns t as a time.Time in UTC.
func (t UnixTime) Time() time.Time {
	return time.Time(t).UTC()
}

// MarshalJSON writes t as a JSON number.
func (t UnixTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(time.Time(t).Unix(), 10)), nil
}

// UnmarshalJSON reads t from a JSON number or numeric string.
func (t *UnixTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("restx/serialize: invalid Unix time %s: %w", data, err)
	}
	*t = UnixTime(time.Unix(n, 0).UTC())
	return nil
}

// DateTimeRFC1123 is a point in time carried on the wire as an RFC 1123
// date, for example "Mon, 02 Jan 2006 15:04:05 GMT".
type DateTimeRFC1123 time.Time

// Time returns t as a time.Time in UTC.
func (t DateTimeRFC1123) Time() time.Time {
	return time.Time(t).UTC()
}

func (t DateTimeRFC1123) String() string {
	return time.Time(t).UTC().Format(http.TimeFormat)
}

// MarshalJSON writes t as a JSON string.
func (t DateTimeRFC1123) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON reads t from a JSON string.
func (t *DateTimeRFC1123) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC1123, s)
	if err != nil {
		return fmt.Errorf("restx/serialize: invalid RFC 1123 date %q: %w", s, err)
	}
	*t = DateTimeRFC1123(parsed.UTC())
	return nil
}

// A WireType hints that a body's over-the-wire representation differs
// from the Go type a caller wants. The zero value, WireNone, means the
// two are the same.
type WireType int

const (
	// WireNone means no conversion.
	WireNone WireType = iota
	// WireBase64URL means the body holds Base64URL values which are
	// unwrapped to []byte.
	WireBase64URL
	// WireUnixTime means the body holds UnixTime values which are
	// unwrapped to time.Time.
	WireUnixTime
	// WireRFC1123 means the body holds DateTimeRFC1123 values which
	// are unwrapped to time.Time.
	WireRFC1123
)

var (
	base64URLType = reflect.TypeOf(Base64URL(""))
	unixTimeType  = reflect.TypeOf(UnixTime{})
	rfc1123Type   = reflect.TypeOf(DateTimeRFC1123{})
)

// Type returns the Go type of one wire value, or nil for WireNone.
func (w WireType) Type() reflect.Type {
	switch w {
	case WireBase64URL:
		return base64URLType
	case WireUnixTime:
		return unixTimeType
	case WireRFC1123:
		return rfc1123Type
	default:
		return nil
	}
}

// Unwrap converts one wire value, of the type returned by Type, to its
// logical form.
func (w WireType) Unwrap(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case Base64URL:
		return x.Decode()
	case UnixTime:
		return x.Time(), nil
	case DateTimeRFC1123:
		return x.Time(), nil
	default:
		if w == WireNone {
			return v, nil
		}
		return nil, fmt.Errorf("restx/serialize: cannot unwrap %T as wire type %d", v, int(w))
	}
}
