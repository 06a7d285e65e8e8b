// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/http"
	"strconv"
	"strings"
)

// AddValue adds value to the header named name, joining it to any
// existing value with a comma so that the header keeps a single
// comma-separated entry.
func AddValue(h http.Header, name, value string) {
	if existing := h.Get(name); existing != "" {
		h.Set(name, existing+","+value)
		return
	}
	h.Set(name, value)
}

// Values returns the individual values of the header named name. Each
// stored value is split on commas, and surrounding white space is
// trimmed from each component.
func Values(h http.Header, name string) []string {
	var values []string
	for _, v := range h.Values(name) {
		for _, part := range strings.Split(v, ",") {
			values = append(values, strings.TrimSpace(part))
		}
	}
	return values
}

// Joined returns all values of the header named name joined with
// commas. It returns the empty string if the header is absent.
func Joined(h http.Header, name string) string {
	return strings.Join(h.Values(name), ",")
}

func contentLength(h http.Header) (int64, bool) {
	v := h.Get("Content-Length")
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
