// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package urlbuilder

import "strings"

// A TokenType identifies which URL component a Token holds.
type TokenType int

const (
	// Scheme is a URL scheme, without the "://" delimiter.
	Scheme TokenType = iota
	// Host is a URL host, without any port.
	Host
	// Port is a URL port, without the ":" delimiter.
	Port
	// Path is a URL path, including any leading "/".
	Path
	// Query is a raw query string, without the "?" delimiter.
	Query
)

func (t TokenType) String() string {
	switch t {
	case Scheme:
		return "scheme"
	case Host:
		return "host"
	case Port:
		return "port"
	case Path:
		return "path"
	case Query:
		return "query"
	default:
		return "unknown"
	}
}

// A Token is one URL component emitted by a Tokenizer.
type Token struct {
	Type TokenType
	Text string
}

// A State is the state of a Tokenizer. The state a tokenizer starts in
// decides how the first undelimited text is classified.
type State int

const (
	// StateScheme reads a scheme, then continues as StateHost.
	StateScheme State = iota
	// StateSchemeOrHost reads text which is a scheme if followed by
	// "://", and a host otherwise.
	StateSchemeOrHost
	// StateHost reads a host, skipping any leading "://".
	StateHost
	// StatePort reads a port.
	StatePort
	// StatePath reads a path.
	StatePath
	// StateQuery reads a query string.
	StateQuery
	// StateDone emits no more tokens.
	StateDone
)

// A Tokenizer splits a URL, or a fragment of one, into components by
// scanning for the delimiters "://", ":", "/" and "?".
//
// A Tokenizer is not safe for concurrent use.
type Tokenizer struct {
	text    string
	i       int
	state   State
	current Token
}

// NewTokenizer returns a tokenizer over text starting in the given
// state. Most callers should start in StateSchemeOrHost.
func NewTokenizer(text string, state State) *Tokenizer {
	return &Tokenizer{text: text, state: state}
}

// Tokenize returns all tokens of text, starting in StateSchemeOrHost.
func Tokenize(text string) []Token {
	var tokens []Token
	t := NewTokenizer(text, StateSchemeOrHost)
	for t.Next() {
		tokens = append(tokens, t.Current())
	}
	return tokens
}

// Current returns the token read by the last call to Next, or the zero
// Token before the first call to Next and after Next returns false.
func (t *Tokenizer) Current() Token {
	return t.current
}

// Next advances to the next token, reporting whether there was one.
func (t *Tokenizer) Next() bool {
	if !t.next() {
		t.current = Token{}
		return false
	}
	return true
}

func (t *Tokenizer) next() bool {
	switch t.state {
	case StateScheme:
		if t.i >= len(t.text) {
			t.state = StateDone
			return false
		}
		s := t.readWhile(isSchemeChar)
		t.emit(Scheme, s)
		if t.i >= len(t.text) {
			t.state = StateDone
		} else {
			t.state = StateHost
		}
		return true

	case StateSchemeOrHost:
		if t.i >= len(t.text) {
			t.state = StateDone
			return false
		}
		s := t.readUntil(":/?")
		switch {
		case t.i >= len(t.text):
			t.emit(Host, s)
			t.state = StateDone
		case t.text[t.i] == ':':
			if strings.HasPrefix(t.text[t.i:], "://") {
				t.emit(Scheme, s)
				t.i += len("://")
				t.state = StateHost
			} else {
				t.emit(Host, s)
				t.i++
				t.state = StatePort
			}
		case t.text[t.i] == '/':
			t.emit(Host, s)
			t.state = StatePath
		default:
			t.emit(Host, s)
			t.i++
			t.state = StateQuery
		}
		return true

	case StateHost:
		if strings.HasPrefix(t.text[t.i:], "://") {
			t.i += len("://")
		}
		s := t.readUntil(":/?")
		t.emit(Host, s)
		t.afterAuthority(true)
		return true

	case StatePort:
		s := t.readUntil("/?")
		t.emit(Port, s)
		t.afterAuthority(false)
		return true

	case StatePath:
		s := t.readUntil("?")
		t.emit(Path, s)
		if t.i < len(t.text) {
			t.i++
			t.state = StateQuery
		} else {
			t.state = StateDone
		}
		return true

	case StateQuery:
		t.emit(Query, t.text[t.i:])
		t.i = len(t.text)
		t.state = StateDone
		return true

	default:
		return false
	}
}

// afterAuthority chooses the state following a host or port, based on
// the delimiter at the current position.
func (t *Tokenizer) afterAuthority(portAllowed bool) {
	if t.i >= len(t.text) {
		t.state = StateDone
		return
	}
	switch t.text[t.i] {
	case ':':
		if portAllowed {
			t.i++
			t.state = StatePort
		}
	case '/':
		t.state = StatePath
	case '?':
		t.i++
		t.state = StateQuery
	}
}

func (t *Tokenizer) emit(tt TokenType, text string) {
	t.current = Token{Type: tt, Text: text}
}

func (t *Tokenizer) readUntil(delims string) string {
	start := t.i
	j := strings.IndexAny(t.text[start:], delims)
	if j < 0 {
		t.i = len(t.text)
	} else {
		t.i = start + j
	}
	return t.text[start:t.i]
}

func (t *Tokenizer) readWhile(f func(byte) bool) string {
	start := t.i
	for t.i < len(t.text) && f(t.text[t.i]) {
		t.i++
	}
	return t.text[start:t.i]
}

func isSchemeChar(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'
}
