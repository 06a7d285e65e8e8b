// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rest

import (
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gogama/restx/request"
	"github.com/gogama/restx/serialize"
	"golang.org/x/net/http/httpguts"
)

// An InterfaceDescriptor describes a remote service.
type InterfaceDescriptor struct {
	// Name identifies the service. It is required, and is the key
	// under which a Registry caches the parsed Interface.
	Name string

	// Host is the host template, for example
	// "https://{account}.example.com". Placeholders in braces are
	// filled from the HostSubs of each method. It is required.
	Host string

	// Methods describes the operations of the service.
	Methods []MethodDescriptor
}

// A MethodDescriptor describes one operation of a service.
type MethodDescriptor struct {
	// Name identifies the method within its interface.
	Name string

	// Method is the HTTP verb, for example "GET". It is required.
	Method string

	// Path is the path template, for example "widgets/{id}", relative
	// to the host. At call time the filled-in path may instead be an
	// absolute URL, in which case the host template is ignored.
	Path string

	HostSubs   []Substitution
	PathSubs   []Substitution
	QuerySubs  []Substitution
	HeaderSubs []Substitution
	FormSubs   []Substitution

	// Headers holds static headers in "Name: value" form. They are set
	// before any header substitution. Entries with an empty value are
	// ignored.
	Headers []string

	// Body selects the argument sent as the request body, or nil.
	Body *BodyParam

	// ExpectedStatus lists the status codes treated as success. When
	// empty, every status code below 400 is a success.
	ExpectedStatus []int

	// Errors maps unexpected status codes to error kinds.
	Errors []ErrorMapping

	// Returns is the Go type of the decoded result. A nil Returns
	// means the method returns nothing.
	Returns reflect.Type

	// HeadersType is the type into which response headers are decoded.
	// When nil, the type of the wrapper field tagged restx:"headers"
	// is used, if Returns has one.
	HeadersType reflect.Type

	// WireType hints that body values must be converted from a wire
	// form to the form given by Returns.
	WireType serialize.WireType
}

// A Substitution binds a call argument to a named placeholder.
type Substitution struct {
	// Name is the placeholder, query parameter, header or form field
	// name. For a header substitution bound to a map, it is the prefix
	// of every generated header name.
	Name string

	// Index is the position of the bound argument.
	Index int

	// Encoded means the argument is already percent-encoded and is
	// used verbatim.
	Encoded bool
}

// BodyParam selects the argument sent as the request body.
type BodyParam struct {
	// Index is the position of the body argument.
	Index int

	// ContentType is the Content-Type of the body. When empty it is
	// inferred: application/octet-stream for strings, byte slices,
	// readers and request.BodySupplier values, and application/json
	// for everything else.
	ContentType string
}

// An ErrorMapping maps a set of status codes to an error kind and a
// type into which the error body is decoded.
type ErrorMapping struct {
	// Kind names the error, for example "ResourceNotFound".
	Kind string

	// Statuses lists the status codes covered. A mapping without
	// statuses is the default mapping of its method; there may be at
	// most one.
	Statuses []int

	// Body is the type of the decoded error body, or nil. A string
	// type receives the raw body text.
	Body reflect.Type
}

// Content types used in request construction.
const (
	contentTypeJSON   = "application/json"
	contentTypeBinary = "application/octet-stream"
	contentTypeForm   = "application/x-www-form-urlencoded"
)

var (
	readCloserType = reflect.TypeOf((*io.ReadCloser)(nil)).Elem()
	stringType     = reflect.TypeOf("")
)

var defaultErrorMapping = ErrorMapping{Kind: DefaultErrorKind, Body: stringType}

// An Interface is a parsed, validated InterfaceDescriptor.
//
// An Interface is immutable and safe for concurrent use by multiple
// goroutines.
type Interface struct {
	name    string
	host    string
	methods map[string]*Method
	order   []string
}

// Name returns the name of the interface.
func (i *Interface) Name() string {
	return i.name
}

// Host returns the host template of the interface.
func (i *Interface) Host() string {
	return i.host
}

// Method returns the named method, or nil if there is none.
func (i *Interface) Method(name string) *Method {
	return i.methods[name]
}

// Methods returns the names of all methods in descriptor order.
func (i *Interface) Methods() []string {
	names := make([]string, len(i.order))
	copy(names, i.order)
	return names
}

// A Method is a parsed, validated MethodDescriptor.
//
// A Method is immutable and safe for concurrent use by multiple
// goroutines.
type Method struct {
	iface    string
	host     string
	desc     MethodDescriptor
	headers  [][2]string
	expected map[int]bool
	errors   map[int]ErrorMapping
	fallback ErrorMapping
	arity    int
	shape    *shape
}

// Name returns the name of the method.
func (m *Method) Name() string {
	return m.desc.Name
}

// FullName returns the name of the method qualified by the name of its
// interface.
func (m *Method) FullName() string {
	return m.iface + "." + m.desc.Name
}

// HTTPMethod returns the HTTP verb of the method.
func (m *Method) HTTPMethod() string {
	return m.desc.Method
}

// Arity returns the number of arguments the method expects.
func (m *Method) Arity() int {
	return m.arity
}

// Expected reports whether statusCode is a success status for the
// method.
func (m *Method) Expected(statusCode int) bool {
	if m.expected == nil {
		return statusCode < 400
	}
	return m.expected[statusCode]
}

// ErrorMapping returns the error mapping for an unexpected status code.
func (m *Method) ErrorMapping(statusCode int) ErrorMapping {
	if e, ok := m.errors[statusCode]; ok {
		return e
	}
	return m.fallback
}

// Parse validates d and returns the parsed Interface. Any problem is
// reported as a *ConfigError.
func Parse(d InterfaceDescriptor) (*Interface, error) {
	if d.Name == "" {
		return nil, &ConfigError{Err: fmt.Errorf("name: %w", ErrMissingMetadata)}
	}
	if d.Host == "" {
		return nil, &ConfigError{Interface: d.Name, Err: fmt.Errorf("host: %w", ErrMissingMetadata)}
	}
	i := &Interface{
		name:    d.Name,
		host:    d.Host,
		methods: make(map[string]*Method, len(d.Methods)),
	}
	for _, md := range d.Methods {
		m, err := parseMethod(d.Name, d.Host, md)
		if err != nil {
			return nil, err
		}
		if _, ok := i.methods[md.Name]; ok {
			return nil, configErrorf(d.Name, md.Name, "duplicate method")
		}
		i.methods[md.Name] = m
		i.order = append(i.order, md.Name)
	}
	return i, nil
}

func parseMethod(iface, host string, d MethodDescriptor) (*Method, error) {
	if d.Name == "" {
		return nil, &ConfigError{Interface: iface, Err: fmt.Errorf("method name: %w", ErrMissingMetadata)}
	}
	if d.Method == "" {
		return nil, &ConfigError{Interface: iface, Method: d.Name, Err: fmt.Errorf("HTTP method: %w", ErrMissingMetadata)}
	}
	if !request.ValidMethod(d.Method) {
		return nil, configErrorf(iface, d.Name, "invalid HTTP method %q", d.Method)
	}
	m := &Method{
		iface:    iface,
		host:     host,
		desc:     d,
		fallback: defaultErrorMapping,
	}
	m.desc.Method = strings.ToUpper(d.Method)

	for _, h := range d.Headers {
		colon := strings.IndexByte(h, ':')
		if colon < 0 {
			return nil, configErrorf(iface, d.Name, "header %q is not in \"Name: value\" form", h)
		}
		name, value := strings.TrimSpace(h[:colon]), strings.TrimSpace(h[colon+1:])
		if !httpguts.ValidHeaderFieldName(name) {
			return nil, configErrorf(iface, d.Name, "invalid header name %q", name)
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, configErrorf(iface, d.Name, "invalid value for header %q", name)
		}
		if value != "" {
			m.headers = append(m.headers, [2]string{http.CanonicalHeaderKey(name), value})
		}
	}

	groups := [][]Substitution{d.HostSubs, d.PathSubs, d.QuerySubs, d.HeaderSubs, d.FormSubs}
	for _, subs := range groups {
		for _, s := range subs {
			if s.Name == "" {
				return nil, configErrorf(iface, d.Name, "substitution for argument %d has no name", s.Index)
			}
			if s.Index < 0 {
				return nil, configErrorf(iface, d.Name, "substitution %q has negative index %d", s.Name, s.Index)
			}
			m.arity = maxInt(m.arity, s.Index+1)
		}
	}
	for _, s := range d.HostSubs {
		if !strings.Contains(host, "{"+s.Name+"}") {
			return nil, configErrorf(iface, d.Name, "host template has no placeholder {%s}", s.Name)
		}
	}
	for _, s := range d.PathSubs {
		if !strings.Contains(d.Path, "{"+s.Name+"}") {
			return nil, configErrorf(iface, d.Name, "path template has no placeholder {%s}", s.Name)
		}
	}
	for _, s := range d.HeaderSubs {
		if !httpguts.ValidHeaderFieldName(s.Name) {
			return nil, configErrorf(iface, d.Name, "invalid header name %q", s.Name)
		}
	}
	if d.Body != nil {
		if d.Body.Index < 0 {
			return nil, configErrorf(iface, d.Name, "body has negative index %d", d.Body.Index)
		}
		if len(d.FormSubs) > 0 {
			return nil, configErrorf(iface, d.Name, "method has both a body and form parameters")
		}
		m.arity = maxInt(m.arity, d.Body.Index+1)
	}

	if len(d.ExpectedStatus) > 0 {
		m.expected = make(map[int]bool, len(d.ExpectedStatus))
		for _, code := range d.ExpectedStatus {
			if code < 100 || code > 999 {
				return nil, configErrorf(iface, d.Name, "invalid expected status code %d", code)
			}
			m.expected[code] = true
		}
	}

	hasDefault := false
	for _, e := range d.Errors {
		if e.Kind == "" {
			return nil, configErrorf(iface, d.Name, "error mapping has no kind")
		}
		if len(e.Statuses) == 0 {
			if hasDefault {
				return nil, configErrorf(iface, d.Name, "more than one default error mapping")
			}
			hasDefault = true
			m.fallback = e
			continue
		}
		if m.errors == nil {
			m.errors = make(map[int]ErrorMapping)
		}
		for _, code := range e.Statuses {
			m.errors[code] = e
		}
	}

	if t := wireElem(d.WireType); t != nil && d.Returns != nil {
		if !assignableWire(d.Returns, t) {
			return nil, configErrorf(iface, d.Name, "wire type does not convert to %s", d.Returns)
		}
	}

	if isWrapper(d.Returns) {
		s, err := shapeOf(d.Returns)
		if err != nil {
			return nil, &ConfigError{Interface: iface, Method: d.Name, Err: err}
		}
		if d.HeadersType != nil && s.headers >= 0 && s.headersType != d.HeadersType {
			return nil, configErrorf(iface, d.Name, "headers type %s does not match wrapper field type %s",
				d.HeadersType, s.headersType)
		}
		m.shape = s
	}
	if m.desc.HeadersType == nil && m.shape != nil && m.shape.headers >= 0 {
		m.desc.HeadersType = m.shape.headersType
	}

	return m, nil
}

// assignableWire reports whether a body of logical type t can be
// produced from wire values unwrapped to elem.
func assignableWire(t, elem reflect.Type) bool {
	if isWrapper(t) {
		s, err := shapeOf(t)
		if err != nil || s.body < 0 {
			return false
		}
		t = s.bodyType
	}
	if t.Kind() == reflect.Slice && t != bytesType {
		t = t.Elem()
	}
	return elem.ConvertibleTo(t)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
