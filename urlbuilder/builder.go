// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package urlbuilder

import (
	"net/url"
	"strconv"
	"strings"
)

// A Builder builds a URL one component at a time.
//
// Every setter is "smart": if its argument contains more of a URL than
// the component being set, the argument is tokenized and every
// component found in it is set. For example SetHost("https://x.com/y")
// sets the scheme, the host and the path. An empty argument clears the
// component.
//
// Query parameter values are stored in their wire form. Apart from the
// delimiters "&" and "#", and "=" within a name, which the setters
// percent-encode, the builder never escapes or unescapes them; use
// QueryEscape or FormEscape to produce wire values.
//
// A relative path is stored with a leading "/" once the builder has a
// scheme, host or port, so that Parse(b.String()) reproduces b.
//
// The zero value is an empty Builder ready to use. A Builder is not
// safe for concurrent use.
type Builder struct {
	scheme string
	host   string
	port   string
	path   string
	query  []param
}

type param struct {
	name   string
	values []string
}

// Parse returns a new Builder populated from the URL string s.
func Parse(s string) *Builder {
	b := &Builder{}
	b.with(s, StateSchemeOrHost)
	return b
}

// ParseURL returns a new Builder populated from the scheme, host,
// port, path and query of u. User information and fragment are not
// carried over. A nil URL yields an empty Builder.
func ParseURL(u *url.URL) *Builder {
	b := &Builder{}
	if u == nil {
		return b
	}
	b.scheme = u.Scheme
	b.host = u.Host
	if port := u.Port(); port != "" {
		b.host = strings.TrimSuffix(u.Host, ":"+port)
		b.port = port
	} else {
		b.host = strings.TrimSuffix(u.Host, ":")
	}
	b.path = u.EscapedPath()
	if u.RawQuery != "" {
		b.mergeQuery(u.RawQuery)
	}
	b.rootPath()
	return b
}

// Scheme returns the scheme, or "" if there is none.
func (b *Builder) Scheme() string {
	return b.scheme
}

// SetScheme sets the scheme. If scheme contains "://" followed by more
// text, the remaining components are set as well.
func (b *Builder) SetScheme(scheme string) *Builder {
	if scheme == "" {
		b.scheme = ""
		return b
	}
	return b.with(scheme, StateScheme)
}

// Host returns the host, or "" if there is none.
func (b *Builder) Host() string {
	return b.host
}

// SetHost sets the host.
func (b *Builder) SetHost(host string) *Builder {
	if host == "" {
		b.host = ""
		return b
	}
	return b.with(host, StateSchemeOrHost)
}

// Port returns the port, or "" if there is none.
func (b *Builder) Port() string {
	return b.port
}

// SetPort sets the port.
func (b *Builder) SetPort(port string) *Builder {
	if port == "" {
		b.port = ""
		return b
	}
	return b.with(port, StatePort)
}

// SetPortNumber sets the port from an integer.
func (b *Builder) SetPortNumber(port int) *Builder {
	b.port = strconv.Itoa(port)
	b.rootPath()
	return b
}

// Path returns the path, or "" if there is none.
func (b *Builder) Path() string {
	return b.path
}

// SetPath sets the path. If path is an absolute URL, containing "://",
// it replaces every component it contains.
func (b *Builder) SetPath(path string) *Builder {
	if path == "" {
		b.path = ""
		return b
	}
	if strings.Contains(path, "://") {
		return b.with(path, StateSchemeOrHost)
	}
	return b.with(path, StatePath)
}

// SetQuery replaces all query parameters with those in the raw query
// string query. A leading "?" is ignored.
func (b *Builder) SetQuery(query string) *Builder {
	b.query = nil
	query = strings.TrimPrefix(query, "?")
	if query == "" {
		return b
	}
	return b.with(query, StateQuery)
}

// SetQueryParameter sets the query parameter name to the single value
// value, replacing any existing values. A new parameter goes after all
// existing ones.
func (b *Builder) SetQueryParameter(name, value string) *Builder {
	return b.setQueryValues(name, []string{value})
}

// AddQueryParameter appends value to the values of query parameter
// name.
func (b *Builder) AddQueryParameter(name, value string) *Builder {
	name, value = nameEscaper.Replace(name), valueEscaper.Replace(value)
	if i := b.queryIndex(name); i >= 0 {
		b.query[i].values = append(b.query[i].values, value)
	} else {
		b.query = append(b.query, param{name: name, values: []string{value}})
	}
	return b
}

// QueryValues returns the values of query parameter name, in the
// order they were added.
func (b *Builder) QueryValues(name string) []string {
	if i := b.queryIndex(nameEscaper.Replace(name)); i >= 0 {
		return append([]string(nil), b.query[i].values...)
	}
	return nil
}

// QueryNames returns the query parameter names in insertion order.
func (b *Builder) QueryNames() []string {
	names := make([]string, len(b.query))
	for i := range b.query {
		names[i] = b.query[i].name
	}
	return names
}

// RawQuery returns the query string, without a leading "?".
func (b *Builder) RawQuery() string {
	var sb strings.Builder
	b.writeQuery(&sb)
	return sb.String()
}

// Clone returns a deep copy of b.
func (b *Builder) Clone() *Builder {
	b2 := *b
	b2.query = make([]param, len(b.query))
	for i := range b.query {
		b2.query[i] = param{name: b.query[i].name, values: append([]string(nil), b.query[i].values...)}
	}
	return &b2
}

// String reconstructs the URL, omitting every absent component along
// with its delimiter.
func (b *Builder) String() string {
	var sb strings.Builder
	if b.scheme != "" {
		sb.WriteString(b.scheme)
		sb.WriteString("://")
	}
	sb.WriteString(b.host)
	if b.port != "" {
		sb.WriteByte(':')
		sb.WriteString(b.port)
	}
	if b.path != "" {
		if sb.Len() > 0 && b.path[0] != '/' {
			sb.WriteByte('/')
		}
		sb.WriteString(b.path)
	}
	if len(b.query) > 0 {
		sb.WriteByte('?')
		b.writeQuery(&sb)
	}
	return sb.String()
}

// URL parses the result of String into a *url.URL. A host without a
// scheme is treated as a network location, not as the start of a
// path.
func (b *Builder) URL() (*url.URL, error) {
	s := b.String()
	if b.scheme == "" && b.host != "" {
		s = "//" + s
	}
	return url.Parse(s)
}

func (b *Builder) writeQuery(sb *strings.Builder) {
	first := true
	for _, p := range b.query {
		for _, v := range p.values {
			if !first {
				sb.WriteByte('&')
			}
			first = false
			sb.WriteString(p.name)
			sb.WriteByte('=')
			sb.WriteString(v)
		}
	}
}

func (b *Builder) with(text string, state State) *Builder {
	t := NewTokenizer(text, state)
	for t.Next() {
		tok := t.Current()
		switch tok.Type {
		case Scheme:
			b.scheme = tok.Text
		case Host:
			b.host = tok.Text
		case Port:
			b.port = tok.Text
		case Path:
			if b.path == "" || b.path == "/" || tok.Text != "/" {
				b.path = tok.Text
			}
		case Query:
			b.mergeQuery(tok.Text)
		}
	}
	b.rootPath()
	return b
}

// rootPath makes a relative path absolute when an authority precedes
// it, since String joins the two with "/".
func (b *Builder) rootPath() {
	if b.path != "" && b.path[0] != '/' && (b.scheme != "" || b.host != "" || b.port != "") {
		b.path = "/" + b.path
	}
}

// mergeQuery parses a raw query string. Each parameter it names
// replaces the builder's values for that name.
func (b *Builder) mergeQuery(raw string) {
	var parsed []param
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		name, value := pair, ""
		if i := strings.IndexByte(pair, '='); i >= 0 {
			name, value = pair[:i], pair[i+1:]
		}
		found := false
		for i := range parsed {
			if parsed[i].name == name {
				parsed[i].values = append(parsed[i].values, value)
				found = true
				break
			}
		}
		if !found {
			parsed = append(parsed, param{name: name, values: []string{value}})
		}
	}
	for _, p := range parsed {
		b.setQueryValues(p.name, p.values)
	}
}

var (
	nameEscaper  = strings.NewReplacer("&", "%26", "=", "%3D", "#", "%23")
	valueEscaper = strings.NewReplacer("&", "%26", "#", "%23")
)

func (b *Builder) setQueryValues(name string, values []string) *Builder {
	name = nameEscaper.Replace(name)
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = valueEscaper.Replace(v)
	}
	values = escaped
	if i := b.queryIndex(name); i >= 0 {
		b.query[i].values = values
	} else {
		b.query = append(b.query, param{name: name, values: values})
	}
	return b
}

func (b *Builder) queryIndex(name string) int {
	for i := range b.query {
		if b.query[i].name == name {
			return i
		}
	}
	return -1
}
