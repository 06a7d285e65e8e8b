// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rest

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gogama/restx/request"
)

// Response is a wrapper result carrying the response status and
// headers along with the decoded body.
type Response[B any] struct {
	Request    *request.Request `restx:"request"`
	StatusCode int              `restx:"status"`
	Header     http.Header      `restx:"header"`
	Body       B                `restx:"body"`
}

// HeadersResponse is like Response but also carries the response
// headers decoded into H. See serialize.DeserializeHeaders.
type HeadersResponse[H, B any] struct {
	Request    *request.Request `restx:"request"`
	StatusCode int              `restx:"status"`
	Header     http.Header      `restx:"header"`
	Headers    H                `restx:"headers"`
	Body       B                `restx:"body"`
}

// StatusResponse is a wrapper result for methods whose response body is
// not decoded.
type StatusResponse struct {
	Request    *request.Request `restx:"request"`
	StatusCode int              `restx:"status"`
	Header     http.Header      `restx:"header"`
}

// Arities of the wrapper constructors, most specific first.
const (
	arityHeadersBody = 5
	arityBody        = 4
	arityStatus      = 3
)

const tagName = "restx"

var (
	requestPtrType = reflect.TypeOf((*request.Request)(nil))
	headerType     = reflect.TypeOf(http.Header(nil))
	intType        = reflect.TypeOf(0)
)

// A shape records how to construct a wrapper struct: the indexes of
// its tagged fields (-1 when absent) and the most specific constructor
// arity they allow.
type shape struct {
	arity       int
	request     int
	status      int
	header      int
	headers     int
	body        int
	headersType reflect.Type
	bodyType    reflect.Type
}

type shapeEntry struct {
	s   *shape
	err error
}

var shapes sync.Map // reflect.Type -> *shapeEntry

var roles = map[string]bool{"request": true, "status": true, "header": true, "headers": true, "body": true}

// isWrapper reports whether t, or the type t points to, is a struct with
// at least one field tagged with a wrapper role.
func isWrapper(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		if tag, ok := t.Field(i).Tag.Lookup(tagName); ok && roles[strings.TrimSpace(tag)] {
			return true
		}
	}
	return false
}

// shapeOf returns the cached shape of the wrapper type t, computing it
// on first use. Concurrent first uses may each compute the shape, but
// all of them return the one stored first.
func shapeOf(t reflect.Type) (*shape, error) {
	if v, ok := shapes.Load(t); ok {
		e := v.(*shapeEntry)
		return e.s, e.err
	}
	s, err := computeShape(t)
	v, _ := shapes.LoadOrStore(t, &shapeEntry{s: s, err: err})
	e := v.(*shapeEntry)
	return e.s, e.err
}

func computeShape(t reflect.Type) (*shape, error) {
	st := t
	if st.Kind() == reflect.Ptr {
		st = st.Elem()
	}
	s := &shape{request: -1, status: -1, header: -1, headers: -1, body: -1}
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		tag, ok := f.Tag.Lookup(tagName)
		if !ok {
			continue
		}
		if f.PkgPath != "" {
			return nil, fmt.Errorf("field %s of %s is tagged but unexported", f.Name, t)
		}
		role := strings.TrimSpace(tag)
		var slot *int
		switch role {
		case "request":
			if f.Type != requestPtrType {
				return nil, fmt.Errorf("request field %s of %s must be *request.Request", f.Name, t)
			}
			slot = &s.request
		case "status":
			if f.Type != intType {
				return nil, fmt.Errorf("status field %s of %s must be int", f.Name, t)
			}
			slot = &s.status
		case "header":
			if f.Type != headerType {
				return nil, fmt.Errorf("header field %s of %s must be http.Header", f.Name, t)
			}
			slot = &s.header
		case "headers":
			slot = &s.headers
			s.headersType = f.Type
		case "body":
			slot = &s.body
			s.bodyType = f.Type
		default:
			return nil, fmt.Errorf("field %s of %s has unknown tag %q", f.Name, t, tag)
		}
		if *slot >= 0 {
			return nil, fmt.Errorf("%s has more than one %s field", t, role)
		}
		*slot = i
	}

	switch {
	case s.request < 0 || s.status < 0 || s.header < 0:
		return nil, fmt.Errorf("cannot find suitable constructor for %s", t)
	case s.headers >= 0 && s.body >= 0:
		s.arity = arityHeadersBody
	case s.body >= 0:
		s.arity = arityBody
	default:
		s.arity = arityStatus
	}
	return s, nil
}

// construct builds a wrapper value of type t. The headers and body
// values are only used if the shape's arity takes them.
func (s *shape) construct(t reflect.Type, resp *request.Response, headers, body reflect.Value) reflect.Value {
	st := t
	if st.Kind() == reflect.Ptr {
		st = st.Elem()
	}
	p := reflect.New(st)
	v := p.Elem()
	v.Field(s.request).Set(reflect.ValueOf(resp.Request))
	v.Field(s.status).SetInt(int64(resp.StatusCode))
	v.Field(s.header).Set(reflect.ValueOf(resp.Header))
	if s.arity >= arityBody && body.IsValid() {
		v.Field(s.body).Set(body)
	}
	if s.arity == arityHeadersBody && headers.IsValid() {
		v.Field(s.headers).Set(headers)
	}
	if t.Kind() == reflect.Ptr {
		return p
	}
	return v
}
