// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rest

import (
	"bytes"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/gogama/restx/request"
	"github.com/gogama/restx/serialize"
	"go.uber.org/zap"
)

var (
	bytesType = reflect.TypeOf([]byte(nil))
	timeType  = reflect.TypeOf(time.Time{})
)

// wireElem returns the logical type of one unwrapped wire value.
func wireElem(w serialize.WireType) reflect.Type {
	switch w {
	case serialize.WireBase64URL:
		return bytesType
	case serialize.WireUnixTime, serialize.WireRFC1123:
		return timeType
	default:
		return nil
	}
}

// Decode decodes resp as the result of m using default Options.
func Decode(resp *request.Response, m *Method) (interface{}, error) {
	return Options{}.Decode(resp, m)
}

// Decode decodes resp as the result of m.
//
// If the status code is not one m expects, the body is read and Decode
// returns a *StatusError. Otherwise the result depends on the type
// m returns:
//
// • nil: the body is drained and the result is nil;
//
// • io.ReadCloser: the result is the unread body, which the caller must
// close;
//
// • bool, for a HEAD method: the result reports whether the status
// code is 2xx;
//
// • []byte: the raw body, Base64URL-decoded if the method's wire type
// is WireBase64URL;
//
// • a wrapper struct such as Response or HeadersResponse: the struct,
// built with its most specific constructor;
//
// • any other type: the body, decoded with the Serializer in the
// encoding given by the Content-Type header.
//
// An empty body decodes to the zero value of the type.
func (o Options) Decode(resp *request.Response, m *Method) (interface{}, error) {
	if !m.Expected(resp.StatusCode) {
		return nil, o.statusError(resp, m)
	}

	t := m.desc.Returns
	switch {
	case t == nil:
		return nil, resp.Close()
	case t == readCloserType:
		return resp.Body(), nil
	case m.desc.Method == http.MethodHead && t.Kind() == reflect.Bool:
		if err := resp.Close(); err != nil {
			return nil, err
		}
		return resp.StatusCode/100 == 2, nil
	}

	if m.shape == nil {
		v, err := o.decodeBody(resp, m, t)
		if err != nil {
			return nil, err
		}
		return v.Interface(), nil
	}

	s := m.shape
	var headers, body reflect.Value
	if s.arity == arityHeadersBody {
		ptr := reflect.New(m.desc.HeadersType)
		if err := serialize.DeserializeHeaders(o.serializer(), resp.Header, ptr.Interface()); err != nil {
			o.logDecodeFailure(resp, m, err)
			return nil, &DecodeError{Method: m.FullName(), StatusCode: resp.StatusCode, Headers: true, Err: err}
		}
		headers = ptr.Elem()
	}
	if s.arity >= arityBody {
		var err error
		if body, err = o.decodeBody(resp, m, s.bodyType); err != nil {
			return nil, err
		}
	} else if err := resp.Close(); err != nil {
		return nil, err
	}
	return s.construct(t, resp, headers, body).Interface(), nil
}

func (o Options) statusError(resp *request.Response, m *Method) error {
	data, err := resp.Bytes()
	if err != nil {
		return request.WrapError(resp.Request, err)
	}
	mapping := m.ErrorMapping(resp.StatusCode)
	se := &StatusError{
		StatusCode: resp.StatusCode,
		Kind:       mapping.Kind,
		Body:       data,
		BodyRepr:   bodyRepr(resp.Header.Get("Content-Type"), resp.Header.Get("Content-Length"), data),
		Response:   resp,
	}
	if mapping.Body != nil && len(data) > 0 {
		if mapping.Body.Kind() == reflect.String {
			se.Value = reflect.ValueOf(string(data)).Convert(mapping.Body).Interface()
		} else {
			ptr := reflect.New(mapping.Body)
			if err = o.serializer().Deserialize(data, ptr.Interface(), serialize.FromHeaders(resp.Header)); err == nil {
				se.Value = ptr.Elem().Interface()
			} else {
				o.logDecodeFailure(resp, m, err)
			}
		}
	}
	return se
}

// decodeBody decodes the response body as a value of type t.
func (o Options) decodeBody(resp *request.Response, m *Method, t reflect.Type) (reflect.Value, error) {
	if t == readCloserType {
		return reflect.ValueOf(resp.Body()), nil
	}
	data, err := resp.Bytes()
	if err != nil {
		return reflect.Value{}, request.WrapError(resp.Request, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return reflect.Zero(t), nil
	}

	if t == bytesType {
		if m.desc.WireType != serialize.WireBase64URL {
			return reflect.ValueOf(data), nil
		}
		text := string(bytes.TrimSpace(data))
		if u, err := strconv.Unquote(text); err == nil {
			text = u
		}
		b, err := serialize.Base64URL(text).Decode()
		if err != nil {
			return reflect.Value{}, o.decodeError(resp, m, err)
		}
		return reflect.ValueOf(b), nil
	}

	enc := serialize.FromHeaders(resp.Header)
	if t.Kind() == reflect.String && enc == serialize.JSON && data[0] != '"' {
		return reflect.ValueOf(string(data)).Convert(t), nil
	}

	wire := m.desc.WireType.Type()
	if wire == nil {
		ptr := reflect.New(t)
		if err = o.serializer().Deserialize(data, ptr.Interface(), enc); err != nil {
			return reflect.Value{}, o.decodeError(resp, m, err)
		}
		return ptr.Elem(), nil
	}

	if t.Kind() == reflect.Slice {
		ptr := reflect.New(reflect.SliceOf(wire))
		if err = o.serializer().Deserialize(data, ptr.Interface(), enc); err != nil {
			return reflect.Value{}, o.decodeError(resp, m, err)
		}
		wires := ptr.Elem()
		out := reflect.MakeSlice(t, wires.Len(), wires.Len())
		for i := 0; i < wires.Len(); i++ {
			u, err := m.desc.WireType.Unwrap(wires.Index(i).Interface())
			if err != nil {
				return reflect.Value{}, o.decodeError(resp, m, err)
			}
			out.Index(i).Set(reflect.ValueOf(u).Convert(t.Elem()))
		}
		return out, nil
	}

	ptr := reflect.New(wire)
	if err = o.serializer().Deserialize(data, ptr.Interface(), enc); err != nil {
		return reflect.Value{}, o.decodeError(resp, m, err)
	}
	u, err := m.desc.WireType.Unwrap(ptr.Elem().Interface())
	if err != nil {
		return reflect.Value{}, o.decodeError(resp, m, err)
	}
	return reflect.ValueOf(u).Convert(t), nil
}

func (o Options) decodeError(resp *request.Response, m *Method, err error) error {
	o.logDecodeFailure(resp, m, err)
	return &DecodeError{Method: m.FullName(), StatusCode: resp.StatusCode, Err: err}
}

func (o Options) logDecodeFailure(resp *request.Response, m *Method, err error) {
	if o.Logger == nil {
		return
	}
	o.Logger.Debug("decode failed",
		zap.String("method", m.FullName()),
		zap.Int("status", resp.StatusCode),
		zap.String("contentType", resp.Header.Get("Content-Type")),
		zap.Error(err))
}
