// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogama/restx/pipeline"
	"github.com/gogama/restx/request"
	"github.com/gogama/restx/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func widgetService(host string) InterfaceDescriptor {
	return InterfaceDescriptor{
		Name: "widgets-" + host,
		Host: host,
		Methods: []MethodDescriptor{
			{
				Name:     "Get",
				Method:   "GET",
				Path:     "widgets/{id}",
				PathSubs: []Substitution{{Name: "id", Index: 0}},
				Errors:   []ErrorMapping{{Kind: "NotFound", Statuses: []int{404}, Body: reflect.TypeOf(widgetError{})}},
				Returns:  reflect.TypeOf(widget{}),
			},
			{
				Name:           "Create",
				Method:         "POST",
				Path:           "widgets",
				Body:           &BodyParam{Index: 0},
				ExpectedStatus: []int{201},
				Returns:        reflect.TypeOf(Response[widget]{}),
			},
			{
				Name:     "Delete",
				Method:   "DELETE",
				Path:     "widgets/{id}",
				PathSubs: []Substitution{{Name: "id", Index: 0}},
			},
		},
	}
}

func TestService(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET" && r.URL.Path == "/widgets/flaky":
			if atomic.AddInt32(&attempts, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id":"flaky","count":3}`)
		case r.Method == "GET" && r.URL.Path == "/widgets/w1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id":"w1","count":1}`)
		case r.Method == "GET":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"code":"missing","message":"no such widget"}`)
		case r.Method == "POST":
			body, _ := io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Location", "/widgets/new")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(body)
		case r.Method == "DELETE":
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	var names []string
	recordNames := pipeline.PolicyFunc(func(ctx context.Context, call *request.Call, next pipeline.Next) (*request.Response, error) {
		names = append(names, fmt.Sprintf("%s.%v", ServiceNameOf(call), call.Value(MethodNameKey{})))
		return next.Process(ctx, call)
	})
	p := pipeline.New(srv.Client(), recordNames, retry.NewPolicy(retry.FixedDelay(3, time.Millisecond), "", 0))
	svc, err := NewService(widgetService(srv.URL), p)
	require.NoError(t, err)

	t.Run("Get", func(t *testing.T) {
		w, err := Call[widget](context.Background(), svc, "Get", "w1")
		require.NoError(t, err)
		assert.Equal(t, widget{ID: "w1", Count: 1}, w)
	})
	t.Run("Get after retries", func(t *testing.T) {
		w, err := Call[widget](context.Background(), svc, "Get", "flaky")
		require.NoError(t, err)
		assert.Equal(t, widget{ID: "flaky", Count: 3}, w)
		assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	})
	t.Run("Get not found", func(t *testing.T) {
		_, err := Call[widget](context.Background(), svc, "Get", "nope")
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, 404, se.StatusCode)
		assert.Equal(t, "NotFound", se.Kind)
		assert.Equal(t, widgetError{Code: "missing", Message: "no such widget"}, se.Value)
	})
	t.Run("Create", func(t *testing.T) {
		r, err := Call[Response[widget]](context.Background(), svc, "Create", widget{ID: "new", Count: 7})
		require.NoError(t, err)
		assert.Equal(t, 201, r.StatusCode)
		assert.Equal(t, "/widgets/new", r.Header.Get("Location"))
		assert.Equal(t, widget{ID: "new", Count: 7}, r.Body)
		assert.Equal(t, "application/json", r.Request.Header.Get("Content-Type"))
	})
	t.Run("Delete", func(t *testing.T) {
		v, err := svc.Invoke(context.Background(), "Delete", "w1")
		assert.NoError(t, err)
		assert.Nil(t, v)
	})
	t.Run("wrong type", func(t *testing.T) {
		_, err := Call[string](context.Background(), svc, "Get", "w1")
		assert.EqualError(t, err, `restx/rest: method "Get" returned rest.widget, not string`)
	})
	t.Run("unknown method", func(t *testing.T) {
		_, err := svc.Invoke(context.Background(), "Patch")
		assert.EqualError(t, err, fmt.Sprintf(`restx/rest: interface "widgets-%s" has no method "Patch"`, srv.URL))
	})
	t.Run("build error", func(t *testing.T) {
		_, err := svc.Invoke(context.Background(), "Get")
		assert.ErrorContains(t, err, "expects 1 arguments, got 0")
	})

	assert.Contains(t, names, "widgets-"+srv.URL+".Get")
	assert.Contains(t, names, "widgets-"+srv.URL+".Create")
	assert.Contains(t, names, "widgets-"+srv.URL+".Delete")
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendCall(ctx context.Context, call *request.Call) (*request.Response, error) {
	args := m.Called(ctx, call)
	resp, _ := args.Get(0).(*request.Response)
	return resp, args.Error(1)
}

func TestService_SendError(t *testing.T) {
	iface, err := Parse(widgetService("https://example.com"))
	require.NoError(t, err)

	t.Run("transport error", func(t *testing.T) {
		sender := &mockSender{}
		sendErr := errors.New("connection refused")
		sender.On("SendCall", mock.Anything, mock.Anything).Return(nil, sendErr).Once()
		svc := &Service{Interface: iface, Sender: sender}

		_, err := svc.Invoke(context.Background(), "Get", "w1")

		assert.Same(t, sendErr, err)
		sender.AssertExpectations(t)
	})
	t.Run("response with error is closed", func(t *testing.T) {
		sender := &mockSender{}
		resp, tb := newResponse(t, "GET", 503, nil, "busy")
		exhausted := &retry.ExhaustedError{Retries: 3, StatusCode: 503, Response: resp}
		sender.On("SendCall", mock.Anything, mock.MatchedBy(func(call *request.Call) bool {
			return call.Request.URL.String() == "https://example.com/widgets/w1" &&
				ServiceNameOf(call) == "widgets-https://example.com"
		})).Return(resp, exhausted).Once()
		svc := &Service{Interface: iface, Sender: sender}

		_, err := svc.Invoke(context.Background(), "Get", "w1")

		var ee *retry.ExhaustedError
		require.True(t, errors.As(err, &ee))
		assert.Equal(t, 3, ee.Retries)
		assert.True(t, tb.closed)
		sender.AssertExpectations(t)
	})
	t.Run("strict", func(t *testing.T) {
		sender := &mockSender{}
		svc := &Service{Interface: iface, Sender: sender, Options: Options{Strict: true}}

		_, err := svc.Invoke(context.Background(), "Delete", nil)

		var missing *MissingArgumentError
		assert.True(t, errors.As(err, &missing))
		sender.AssertNotCalled(t, "SendCall", mock.Anything, mock.Anything)
	})
}
