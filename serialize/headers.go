// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package serialize

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
)

// DeserializeHeaders decodes the response headers h into the struct
// pointed to by v.
//
// The headers are first turned into a JSON object holding the first
// value of each header, keyed by its canonical name, and that object is
// decoded into v with s. Struct fields therefore select headers with
// their json tag, for example:
//
//	type Headers struct {
//		ETag     string            `json:"ETag"`
//		Length   int64             `json:"Content-Length,string"`
//		Metadata map[string]string `json:"meta" restx:"prefix=x-meta-"`
//	}
//
// A map[string]string field tagged restx:"prefix=..." collects every
// header whose name starts with the prefix, case-insensitively, keyed
// by the rest of the lower-cased name.
func DeserializeHeaders(s Serializer, h http.Header, v interface{}) error {
	obj := make(map[string]interface{}, len(h))
	for name, values := range h {
		if len(values) > 0 {
			obj[http.CanonicalHeaderKey(name)] = values[0]
		}
	}

	if t := structType(v); t != nil {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			prefix, ok := headerPrefix(f)
			if !ok {
				continue
			}
			m := make(map[string]string)
			for name, values := range h {
				lower := strings.ToLower(name)
				if strings.HasPrefix(lower, prefix) && len(values) > 0 {
					m[lower[len(prefix):]] = values[0]
				}
			}
			obj[jsonName(f)] = m
		}
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return s.Deserialize(data, v, JSON)
}

func structType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)
	if t == nil || t.Kind() != reflect.Ptr {
		return nil
	}
	t = t.Elem()
	if t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

func headerPrefix(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("restx")
	if !strings.HasPrefix(tag, "prefix=") {
		return "", false
	}
	if f.Type.Kind() != reflect.Map || f.Type.Key().Kind() != reflect.String || f.Type.Elem().Kind() != reflect.String {
		return "", false
	}
	return strings.ToLower(strings.TrimPrefix(tag, "prefix=")), true
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if i := strings.IndexByte(tag, ','); i >= 0 {
		tag = tag[:i]
	}
	if tag == "" || tag == "-" {
		return f.Name
	}
	return tag
}
