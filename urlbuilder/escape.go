// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package urlbuilder

import "strings"

const (
	unreserved = "-._~"
	subDelims  = "!$&'()*+,;="
)

var (
	queryEscaper = newEscaper(unreserved+"/?", false)
	formEscaper  = newEscaper(unreserved, true)
	pathEscaper  = newEscaper(unreserved+subDelims+":@", false)
)

// QueryEscape escapes s for use as a query parameter name or value.
// Letters, digits, "-._~" and "/?" are kept as is.
func QueryEscape(s string) string {
	return queryEscaper.escape(s)
}

// FormEscape escapes s for use in an application/x-www-form-urlencoded
// body. Letters, digits and "-._~" are kept as is, and space becomes
// "+".
func FormEscape(s string) string {
	return formEscaper.escape(s)
}

// PathEscape escapes s for use as a path segment. Letters, digits,
// "-._~", the sub-delimiters "!$&'()*+,;=" and ":@" are kept as is.
func PathEscape(s string) string {
	return pathEscaper.escape(s)
}

type escaper struct {
	safe         [256]bool
	plusForSpace bool
}

func newEscaper(safeChars string, plusForSpace bool) *escaper {
	e := &escaper{plusForSpace: plusForSpace}
	for c := 'a'; c <= 'z'; c++ {
		e.safe[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		e.safe[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		e.safe[c] = true
	}
	for i := 0; i < len(safeChars); i++ {
		e.safe[safeChars[i]] = true
	}
	return e
}

const upperhex = "0123456789ABCDEF"

func (e *escaper) escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !e.safe[s[i]] && !(e.plusForSpace && s[i] == ' ') {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case e.safe[c]:
			sb.WriteByte(c)
		case e.plusForSpace && c == ' ':
			sb.WriteByte('+')
		default:
			sb.WriteByte('%')
			sb.WriteByte(upperhex[c>>4])
			sb.WriteByte(upperhex[c&15])
		}
	}
	return sb.String()
}
