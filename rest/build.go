// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rest

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/gogama/restx/request"
	"github.com/gogama/restx/serialize"
	"github.com/gogama/restx/urlbuilder"
	"go.uber.org/zap"
	"golang.org/x/net/http/httpguts"
)

// Options control how requests are built and responses decoded.
//
// The zero value is ready to use.
type Options struct {
	// Serializer encodes bodies and argument values and decodes
	// response bodies. If nil, serialize.DefaultAdapter is used.
	Serializer serialize.Serializer

	// Strict makes a nil argument bound to a host or path placeholder
	// an error, *MissingArgumentError, instead of being replaced with
	// the empty string.
	Strict bool

	// Logger receives Debug entries for responses which cannot be
	// decoded. If nil, nothing is logged.
	Logger *zap.Logger
}

// BuildRequest builds the request for a call of m with args using
// default Options.
func BuildRequest(ctx context.Context, m *Method, args []interface{}) (*request.Request, error) {
	return Options{}.BuildRequest(ctx, m, args)
}

// BuildRequest builds the request for a call of m with args.
//
// The filled-in path template is used as the whole URL if it is
// absolute. Otherwise the URL is the filled-in host template followed
// by the path. Query parameters are then added in the order of the
// method's query substitutions, and nil query arguments are left out.
//
// Static headers are set before header substitutions, and both are set
// after the body, so they take precedence over the inferred
// Content-Type. A header substitution bound to a map sets one header
// per map entry, named by the substitution name followed by the key.
//
// A buffered body always carries a Content-Length equal to its encoded
// length. A request.BodySupplier body is streamed, and is checked
// against a Content-Length set by a header substitution if there is
// one.
func (o Options) BuildRequest(ctx context.Context, m *Method, args []interface{}) (*request.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(args) < m.arity {
		return nil, fmt.Errorf("restx/rest: method %q expects %d arguments, got %d", m.FullName(), m.arity, len(args))
	}

	path, err := o.substitute(m, m.desc.Path, m.desc.PathSubs, args)
	if err != nil {
		return nil, err
	}
	var b *urlbuilder.Builder
	if pb := urlbuilder.Parse(path); pb.Scheme() != "" {
		b = pb
	} else {
		host, err := o.substitute(m, m.host, m.desc.HostSubs, args)
		if err != nil {
			return nil, err
		}
		b = new(urlbuilder.Builder).SetHost(host)
		if path != "" && path != "/" {
			hostPath := b.Path()
			if hostPath == "" || hostPath == "/" {
				b.SetPath(path)
			} else {
				b.SetPath(strings.TrimSuffix(hostPath, "/") + "/" + strings.TrimPrefix(path, "/"))
			}
		}
	}

	for _, s := range m.desc.QuerySubs {
		values, err := o.rawValues(args[s.Index])
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			if !s.Encoded {
				v = urlbuilder.QueryEscape(v)
			}
			if i == 0 {
				b.SetQueryParameter(s.Name, v)
			} else {
				b.AddQueryParameter(s.Name, v)
			}
		}
	}

	u, err := b.URL()
	if err != nil {
		return nil, fmt.Errorf("restx/rest: method %q: %w", m.FullName(), err)
	}
	r, err := request.NewRequestURL(m.desc.Method, u, nil)
	if err != nil {
		return nil, err
	}

	if err = o.setBody(r, m, args); err != nil {
		return nil, err
	}

	for _, h := range m.headers {
		r.Header.Set(h[0], h[1])
	}
	for _, s := range m.desc.HeaderSubs {
		if err = o.setHeaders(r, s, args[s.Index]); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (o Options) serializer() serialize.Serializer {
	if o.Serializer == nil {
		return serialize.DefaultAdapter
	}
	return o.Serializer
}

// substitute replaces each {name} placeholder of template with the raw
// form of its bound argument, path-escaped unless the substitution is
// marked encoded.
func (o Options) substitute(m *Method, template string, subs []Substitution, args []interface{}) (string, error) {
	result := template
	for _, s := range subs {
		v, ok, err := o.raw(args[s.Index])
		if err != nil {
			return "", err
		}
		if !ok {
			if o.Strict {
				return "", &MissingArgumentError{Method: m.FullName(), Name: s.Name, Index: s.Index}
			}
			v = ""
		}
		if v != "" && !s.Encoded {
			v = urlbuilder.PathEscape(v)
		}
		result = strings.ReplaceAll(result, "{"+s.Name+"}", v)
	}
	return result, nil
}

// raw returns the raw text form of an argument: strings verbatim, and
// anything else serialized as JSON with the quotes of a JSON string
// removed. The boolean result is false for a nil argument.
func (o Options) raw(v interface{}) (string, bool, error) {
	if isNil(v) {
		return "", false, nil
	}
	switch x := v.(type) {
	case string:
		return x, true, nil
	case bool:
		return strconv.FormatBool(x), true, nil
	case int:
		return strconv.Itoa(x), true, nil
	case int64:
		return strconv.FormatInt(x, 10), true, nil
	}
	data, err := o.serializer().Serialize(v, serialize.JSON)
	if err != nil {
		return "", false, fmt.Errorf("restx/rest: failed to serialize %T argument: %w", v, err)
	}
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			s = u
		}
	}
	return s, true, nil
}

// rawValues is like raw, but a slice or array argument, other than a
// byte slice, yields one value per non-nil element.
func (o Options) rawValues(v interface{}) ([]string, error) {
	if isNil(v) {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type() != bytesType {
		values := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			s, ok, err := o.raw(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			if ok {
				values = append(values, s)
			}
		}
		return values, nil
	}
	s, _, err := o.raw(v)
	if err != nil {
		return nil, err
	}
	return []string{s}, nil
}

func (o Options) setHeaders(r *request.Request, s Substitution, v interface{}) error {
	if isNil(v) {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		value, _, err := o.raw(v)
		if err != nil {
			return err
		}
		return setHeader(r, s.Name, value)
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	for _, k := range keys {
		value, ok, err := o.raw(rv.MapIndex(k).Interface())
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err = setHeader(r, s.Name+k.String(), value); err != nil {
			return err
		}
	}
	return nil
}

func setHeader(r *request.Request, name, value string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("restx/rest: invalid header name %q", name)
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return fmt.Errorf("restx/rest: invalid value for header %q", name)
	}
	r.Header.Set(name, value)
	return nil
}

func (o Options) setBody(r *request.Request, m *Method, args []interface{}) error {
	if len(m.desc.FormSubs) > 0 {
		form, err := o.formBody(m.desc.FormSubs, args)
		if err != nil {
			return err
		}
		r.Header.Set("Content-Type", contentTypeForm)
		r.SetBody([]byte(form))
		return nil
	}

	if m.desc.Body == nil || isNil(args[m.desc.Body.Index]) {
		r.Header.Set("Content-Length", "0")
		return nil
	}
	body := args[m.desc.Body.Index]
	contentType := m.desc.Body.ContentType
	if contentType == "" {
		switch body.(type) {
		case []byte, string, io.Reader, request.BodySupplier:
			contentType = contentTypeBinary
		default:
			contentType = contentTypeJSON
		}
	}
	r.Header.Set("Content-Type", contentType)

	if isJSON(contentType) {
		data, err := o.serializer().Serialize(body, serialize.JSON)
		if err != nil {
			return fmt.Errorf("restx/rest: method %q: failed to serialize body: %w", m.FullName(), err)
		}
		r.SetBody(data)
		return nil
	}

	switch x := body.(type) {
	case request.BodySupplier:
		r.SetBodySupplier(x)
	case []byte, string, io.Reader:
		data, err := request.BodyBytes(x)
		if err != nil {
			return err
		}
		if data == nil {
			data = []byte{}
		}
		r.SetBody(data)
	default:
		data, err := o.serializer().Serialize(body, serialize.FromContentType(contentType))
		if err != nil {
			return fmt.Errorf("restx/rest: method %q: failed to serialize body: %w", m.FullName(), err)
		}
		r.SetBody(data)
	}
	return nil
}

// formBody joins the form substitutions into an
// application/x-www-form-urlencoded body. A slice argument repeats its
// key once per non-nil element, and nil arguments are left out.
func (o Options) formBody(subs []Substitution, args []interface{}) (string, error) {
	var pairs []string
	for _, s := range subs {
		values, err := o.rawValues(args[s.Index])
		if err != nil {
			return "", err
		}
		key := urlbuilder.FormEscape(s.Name)
		for _, v := range values {
			if !s.Encoded {
				v = urlbuilder.FormEscape(v)
			}
			pairs = append(pairs, key+"="+v)
		}
	}
	return strings.Join(pairs, "&"), nil
}

func isJSON(contentType string) bool {
	for _, part := range strings.Split(contentType, ";") {
		if strings.EqualFold(strings.TrimSpace(part), contentTypeJSON) {
			return true
		}
	}
	return false
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}
	return false
}
