// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rest

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gogama/restx/request"
	"github.com/gogama/restx/serialize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"
)

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func newResponse(t *testing.T, method string, status int, header http.Header, body string) (*request.Response, *trackingBody) {
	r, err := request.NewRequest(method, "https://example.com/widgets", nil)
	require.NoError(t, err)
	tb := &trackingBody{Reader: strings.NewReader(body)}
	return request.NewResponse(r, status, header, tb), tb
}

func jsonHeader() http.Header {
	return http.Header{"Content-Type": {"application/json"}}
}

func TestDecode_StatusError(t *testing.T) {
	m := mustMethod(t, "https://example.com", MethodDescriptor{
		Name:           "Get",
		Method:         "GET",
		ExpectedStatus: []int{200},
		Errors: []ErrorMapping{
			{Kind: "NotFound", Statuses: []int{404}, Body: reflect.TypeOf(widgetError{})},
		},
		Returns: reflect.TypeOf(widget{}),
	})

	testCases := []struct {
		name     string
		status   int
		header   http.Header
		body     string
		kind     string
		repr     string
		value    interface{}
		expected string
	}{
		{
			name:     "mapped with decoded body",
			status:   404,
			header:   jsonHeader(),
			body:     `{"code":"nope","message":"no widget"}`,
			kind:     "NotFound",
			repr:     `"{"code":"nope","message":"no widget"}"`,
			value:    widgetError{Code: "nope", Message: "no widget"},
			expected: `Status code 404, "{"code":"nope","message":"no widget"}"`,
		},
		{
			name:     "mapped with undecodable body",
			status:   404,
			header:   jsonHeader(),
			body:     `not json`,
			kind:     "NotFound",
			repr:     `"not json"`,
			expected: `Status code 404, "not json"`,
		},
		{
			name:     "default kind with text body",
			status:   500,
			body:     "boom",
			kind:     DefaultErrorKind,
			repr:     `"boom"`,
			value:    "boom",
			expected: `Status code 500, "boom"`,
		},
		{
			name:     "empty body",
			status:   503,
			kind:     DefaultErrorKind,
			repr:     "(empty body)",
			expected: "Status code 503, (empty body)",
		},
		{
			name:     "binary body",
			status:   500,
			header:   http.Header{"Content-Type": {"application/octet-stream"}, "Content-Length": {"4"}},
			body:     "\x00\x01\x02\x03",
			kind:     DefaultErrorKind,
			repr:     "(4-byte body)",
			value:    "\x00\x01\x02\x03",
			expected: "Status code 500, (4-byte body)",
		},
		{
			name:     "binary body without length",
			status:   500,
			header:   http.Header{"Content-Type": {"Application/Octet-Stream"}},
			body:     "\x00\x01",
			kind:     DefaultErrorKind,
			repr:     "(2-byte body)",
			value:    "\x00\x01",
			expected: "Status code 500, (2-byte body)",
		},
		{
			name:     "unexpected success status",
			status:   204,
			kind:     DefaultErrorKind,
			repr:     "(empty body)",
			expected: "Status code 204, (empty body)",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			resp, tb := newResponse(t, "GET", testCase.status, testCase.header, testCase.body)

			v, err := Decode(resp, m)

			assert.Nil(t, v)
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, testCase.status, se.StatusCode)
			assert.Equal(t, testCase.kind, se.Kind)
			assert.Equal(t, testCase.body, string(se.Body))
			assert.Equal(t, testCase.repr, se.BodyRepr)
			assert.Equal(t, testCase.value, se.Value)
			assert.Same(t, resp, se.Response)
			assert.EqualError(t, err, testCase.expected)
			assert.True(t, tb.closed)
		})
	}
}

func TestDecode_NotDecodable(t *testing.T) {
	t.Run("void", func(t *testing.T) {
		m := mustMethod(t, "https://example.com", MethodDescriptor{Name: "Delete", Method: "DELETE"})
		resp, tb := newResponse(t, "DELETE", 202, nil, "ignored")
		v, err := Decode(resp, m)
		assert.NoError(t, err)
		assert.Nil(t, v)
		assert.True(t, tb.closed)
	})
	t.Run("stream", func(t *testing.T) {
		m := mustMethod(t, "https://example.com", MethodDescriptor{Name: "Download", Method: "GET",
			Returns: readCloserType})
		resp, tb := newResponse(t, "GET", 200, nil, "streamed")
		v, err := Decode(resp, m)
		require.NoError(t, err)
		rc, ok := v.(io.ReadCloser)
		require.True(t, ok)
		assert.False(t, tb.closed)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "streamed", string(b))
		require.NoError(t, rc.Close())
		assert.True(t, tb.closed)
	})
	for _, status := range []int{200, 204, 299, 304} {
		t.Run("head "+strconv.Itoa(status), func(t *testing.T) {
			m := mustMethod(t, "https://example.com", MethodDescriptor{Name: "Exists", Method: "HEAD",
				ExpectedStatus: []int{200, 204, 299, 304}, Returns: reflect.TypeOf(false)})
			resp, tb := newResponse(t, "HEAD", status, nil, "")
			v, err := Decode(resp, m)
			require.NoError(t, err)
			assert.Equal(t, status/100 == 2, v)
			assert.True(t, tb.closed)
		})
	}
}

func TestDecode_Body(t *testing.T) {
	day := time.Date(2021, 1, 16, 0, 0, 0, 0, time.UTC)
	testCases := []struct {
		name     string
		returns  reflect.Type
		wire     serialize.WireType
		header   http.Header
		body     string
		expected interface{}
	}{
		{
			name:     "JSON struct",
			returns:  reflect.TypeOf(widget{}),
			header:   jsonHeader(),
			body:     `{"id":"w1","count":3}`,
			expected: widget{ID: "w1", Count: 3},
		},
		{
			name:     "JSON list",
			returns:  reflect.TypeOf([]widget(nil)),
			body:     `[{"id":"a"},{"id":"b","count":1}]`,
			expected: []widget{{ID: "a"}, {ID: "b", Count: 1}},
		},
		{
			name:     "pointer",
			returns:  reflect.TypeOf(&widget{}),
			body:     `{"id":"w1"}`,
			expected: &widget{ID: "w1"},
		},
		{
			name:     "XML struct",
			returns:  reflect.TypeOf(widget{}),
			header:   http.Header{"Content-Type": {"application/atom+xml; charset=utf-8"}},
			body:     `<widget><id>w1</id><count>4</count></widget>`,
			expected: widget{ID: "w1", Count: 4},
		},
		{
			name:     "empty body",
			returns:  reflect.TypeOf(widget{}),
			header:   jsonHeader(),
			body:     " \n",
			expected: widget{},
		},
		{
			name:     "raw bytes",
			returns:  bytesType,
			body:     `{"not":"decoded"}`,
			expected: []byte(`{"not":"decoded"}`),
		},
		{
			name:     "base64url bytes",
			returns:  bytesType,
			wire:     serialize.WireBase64URL,
			body:     `"YmFzZT82ND4"`,
			expected: []byte("base?64>"),
		},
		{
			name:     "base64url unquoted",
			returns:  bytesType,
			wire:     serialize.WireBase64URL,
			body:     `YmFzZT82ND4=`,
			expected: []byte("base?64>"),
		},
		{
			name:     "base64url list",
			returns:  reflect.TypeOf([][]byte(nil)),
			wire:     serialize.WireBase64URL,
			body:     `["YQ","YmM"]`,
			expected: [][]byte{[]byte("a"), []byte("bc")},
		},
		{
			name:     "unix time",
			returns:  timeType,
			wire:     serialize.WireUnixTime,
			body:     `1610755200`,
			expected: day,
		},
		{
			name:     "unix time list",
			returns:  reflect.SliceOf(timeType),
			wire:     serialize.WireUnixTime,
			body:     `[1610755200, 1610841600]`,
			expected: []time.Time{day, day.Add(24 * time.Hour)},
		},
		{
			name:     "rfc1123 time",
			returns:  timeType,
			wire:     serialize.WireRFC1123,
			body:     `"Sat, 16 Jan 2021 00:00:00 GMT"`,
			expected: day,
		},
		{
			name:     "text",
			returns:  stringType,
			header:   http.Header{"Content-Type": {"text/plain"}},
			body:     "hello there",
			expected: "hello there",
		},
		{
			name:     "JSON string",
			returns:  stringType,
			header:   jsonHeader(),
			body:     `"hello\nthere"`,
			expected: "hello\nthere",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			m := mustMethod(t, "https://example.com", MethodDescriptor{Name: "Get", Method: "GET",
				Returns: testCase.returns, WireType: testCase.wire})
			resp, tb := newResponse(t, "GET", 200, testCase.header, testCase.body)

			v, err := Decode(resp, m)

			require.NoError(t, err)
			if expectedTime, ok := testCase.expected.(time.Time); ok {
				actualTime, ok := v.(time.Time)
				require.True(t, ok)
				assert.True(t, expectedTime.Equal(actualTime), "expected %s, got %s", expectedTime, actualTime)
			} else if expectedTimes, ok := testCase.expected.([]time.Time); ok {
				actualTimes, ok := v.([]time.Time)
				require.True(t, ok)
				require.Len(t, actualTimes, len(expectedTimes))
				for i := range expectedTimes {
					assert.True(t, expectedTimes[i].Equal(actualTimes[i]))
				}
			} else {
				assert.Equal(t, testCase.expected, v)
			}
			assert.True(t, tb.closed)
		})
	}
}

func TestDecode_Wrappers(t *testing.T) {
	header := http.Header{
		"Content-Type": {"application/json"},
		"Etag":         {`"v1"`},
		"X-Meta-Color": {"red"},
		"X-Meta-Size":  {"L"},
	}

	t.Run("body", func(t *testing.T) {
		m := mustMethod(t, "https://example.com", MethodDescriptor{Name: "Get", Method: "GET",
			Returns: reflect.TypeOf(Response[widget]{})})
		resp, _ := newResponse(t, "GET", 200, header, `{"id":"w1","count":1}`)

		v, err := Decode(resp, m)

		require.NoError(t, err)
		r, ok := v.(Response[widget])
		require.True(t, ok)
		assert.Same(t, resp.Request, r.Request)
		assert.Equal(t, 200, r.StatusCode)
		assert.Equal(t, header, r.Header)
		assert.Equal(t, widget{ID: "w1", Count: 1}, r.Body)
	})
	t.Run("headers and body", func(t *testing.T) {
		m := mustMethod(t, "https://example.com", MethodDescriptor{Name: "Get", Method: "GET",
			Returns: reflect.TypeOf(&HeadersResponse[widgetHeaders, widget]{})})
		resp, _ := newResponse(t, "GET", 201, header, `{"id":"w2"}`)

		v, err := Decode(resp, m)

		require.NoError(t, err)
		r, ok := v.(*HeadersResponse[widgetHeaders, widget])
		require.True(t, ok)
		assert.Equal(t, 201, r.StatusCode)
		assert.Equal(t, widgetHeaders{ETag: `"v1"`, Metadata: map[string]string{"color": "red", "size": "L"}}, r.Headers)
		assert.Equal(t, widget{ID: "w2"}, r.Body)
	})
	t.Run("headers zero value", func(t *testing.T) {
		m := mustMethod(t, "https://example.com", MethodDescriptor{Name: "Get", Method: "GET",
			Returns: reflect.TypeOf(HeadersResponse[widgetHeaders, widget]{})})
		resp, _ := newResponse(t, "GET", 200, nil, `{"id":"w3"}`)

		v, err := Decode(resp, m)

		require.NoError(t, err)
		r := v.(HeadersResponse[widgetHeaders, widget])
		assert.Equal(t, "", r.Headers.ETag)
		assert.Empty(t, r.Headers.Metadata)
		assert.Equal(t, widget{ID: "w3"}, r.Body)
	})
	t.Run("status only", func(t *testing.T) {
		m := mustMethod(t, "https://example.com", MethodDescriptor{Name: "Touch", Method: "POST",
			Returns: reflect.TypeOf(StatusResponse{})})
		resp, tb := newResponse(t, "POST", 202, header, "ignored")

		v, err := Decode(resp, m)

		require.NoError(t, err)
		r := v.(StatusResponse)
		assert.Equal(t, 202, r.StatusCode)
		assert.Equal(t, header, r.Header)
		assert.True(t, tb.closed)
	})
	t.Run("stream body", func(t *testing.T) {
		m := mustMethod(t, "https://example.com", MethodDescriptor{Name: "Get", Method: "GET",
			Returns: reflect.TypeOf(Response[io.ReadCloser]{})})
		resp, tb := newResponse(t, "GET", 200, nil, "chunk")

		v, err := Decode(resp, m)

		require.NoError(t, err)
		r := v.(Response[io.ReadCloser])
		assert.False(t, tb.closed)
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "chunk", string(b))
	})
	t.Run("wire body", func(t *testing.T) {
		m := mustMethod(t, "https://example.com", MethodDescriptor{Name: "Get", Method: "GET",
			Returns: reflect.TypeOf(Response[[][]byte]{}), WireType: serialize.WireBase64URL})
		resp, _ := newResponse(t, "GET", 200, nil, `["YQ"]`)

		v, err := Decode(resp, m)

		require.NoError(t, err)
		assert.Equal(t, [][]byte{[]byte("a")}, v.(Response[[][]byte]).Body)
	})
}

type strictHeaders struct {
	Count int `json:"X-Count"`
}

func TestDecode_Errors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	o := Options{Logger: zap.New(core)}

	t.Run("malformed body", func(t *testing.T) {
		m := mustMethod(t, "https://example.com", MethodDescriptor{Name: "Get", Method: "GET",
			Returns: reflect.TypeOf(widget{})})
		resp, _ := newResponse(t, "GET", 200, jsonHeader(), `{"id":`)

		v, err := o.Decode(resp, m)

		assert.Nil(t, v)
		var de *DecodeError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "svc.Get", de.Method)
		assert.Equal(t, 200, de.StatusCode)
		assert.False(t, de.Headers)
		assert.Error(t, errors.Unwrap(err))
		assert.Contains(t, err.Error(), `restx/rest: method "svc.Get": failed to decode response body (status 200): `)
	})
	t.Run("malformed headers", func(t *testing.T) {
		m := mustMethod(t, "https://example.com", MethodDescriptor{Name: "Get", Method: "GET",
			Returns: reflect.TypeOf(HeadersResponse[strictHeaders, widget]{})})
		resp, _ := newResponse(t, "GET", 200, http.Header{"X-Count": {"many"}}, `{}`)

		v, err := o.Decode(resp, m)

		assert.Nil(t, v)
		var de *DecodeError
		require.True(t, errors.As(err, &de))
		assert.True(t, de.Headers)
		assert.Contains(t, err.Error(), "failed to decode response headers (status 200)")
	})
	t.Run("bad base64url", func(t *testing.T) {
		m := mustMethod(t, "https://example.com", MethodDescriptor{Name: "Get", Method: "GET",
			Returns: bytesType, WireType: serialize.WireBase64URL})
		resp, _ := newResponse(t, "GET", 200, nil, `"***"`)

		_, err := o.Decode(resp, m)

		var de *DecodeError
		assert.True(t, errors.As(err, &de))
	})

	entries := logs.FilterMessage("decode failed").All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "svc.Get", entries[0].ContextMap()["method"])
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
}

func TestShapeOf(t *testing.T) {
	testCases := []struct {
		name  string
		t     reflect.Type
		arity int
	}{
		{"headers and body", reflect.TypeOf(HeadersResponse[widgetHeaders, widget]{}), arityHeadersBody},
		{"body", reflect.TypeOf(Response[widget]{}), arityBody},
		{"pointer body", reflect.TypeOf(&Response[[]byte]{}), arityBody},
		{"status", reflect.TypeOf(StatusResponse{}), arityStatus},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var g errgroup.Group
			results := make([]*shape, 16)
			for i := range results {
				i := i
				g.Go(func() error {
					s, err := shapeOf(testCase.t)
					results[i] = s
					return err
				})
			}
			require.NoError(t, g.Wait())
			for _, s := range results {
				assert.Same(t, results[0], s)
			}
			assert.Equal(t, testCase.arity, results[0].arity)
		})
	}

	t.Run("errors", func(t *testing.T) {
		type unexported struct {
			req *request.Request `restx:"request"`
		}
		type badStatus struct {
			Request *request.Request `restx:"request"`
			Status  string           `restx:"status"`
			Header  http.Header      `restx:"header"`
		}
		type twoBodies struct {
			Request *request.Request `restx:"request"`
			Status  int              `restx:"status"`
			Header  http.Header      `restx:"header"`
			A       string           `restx:"body"`
			B       string           `restx:"body"`
		}
		type unknownTag struct {
			Request *request.Request `restx:"request"`
			Extra   string           `restx:"extra"`
		}
		errs := map[reflect.Type]string{
			reflect.TypeOf(unexported{}): "is tagged but unexported",
			reflect.TypeOf(badStatus{}):  "status field Status of rest.badStatus must be int",
			reflect.TypeOf(twoBodies{}):  "rest.twoBodies has more than one body field",
			reflect.TypeOf(unknownTag{}): `has unknown tag "extra"`,
		}
		for typ, msg := range errs {
			s, err := shapeOf(typ)
			assert.Nil(t, s)
			assert.ErrorContains(t, err, msg)
			_, again := shapeOf(typ)
			assert.Same(t, err, again)
		}
		_ = unexported{}.req
	})
}
