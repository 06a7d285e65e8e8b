// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/gogama/restx/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("no arguments", func(t *testing.T) {
		p := New(nil)
		assert.Equal(t, 0, p.Len())
		assert.Same(t, http.DefaultClient, p.Doer())
	})
	t.Run("with policies", func(t *testing.T) {
		a, b := &recordingPolicy{name: "a"}, &recordingPolicy{name: "b"}
		doer := newMockHTTPDoer(t)
		p := New(doer, a, b)
		assert.Equal(t, 2, p.Len())
		assert.Same(t, a, p.Policy(0))
		assert.Same(t, b, p.Policy(1))
		assert.Same(t, doer, p.Doer())
	})
	t.Run("nil policy", func(t *testing.T) {
		assert.PanicsWithValue(t, "restx/pipeline: nil policy", func() {
			New(nil, &recordingPolicy{}, nil)
		})
	})
	t.Run("policies slice is copied", func(t *testing.T) {
		ps := []Policy{&recordingPolicy{name: "a"}}
		p := New(nil, ps...)
		ps[0] = &recordingPolicy{name: "b"}
		assert.Equal(t, "a", p.Policy(0).(*recordingPolicy).name)
	})
}

func TestPipeline_Send(t *testing.T) {
	t.Run("no policies", func(t *testing.T) {
		doer := newMockHTTPDoer(t)
		doer.On("Do", mock.MatchedBy(func(r *http.Request) bool {
			return r.Method == "GET" && r.URL.String() == "http://my.site.com" && len(r.Header) == 0
		})).Return(okResponse("done"), nil).Once()
		p := New(doer)
		resp, err := p.Send(context.Background(), newRequest(t, "GET", "http://my.site.com"))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		s, err := resp.String()
		assert.NoError(t, err)
		assert.Equal(t, "done", s)
		doer.AssertExpectations(t)
	})
	t.Run("registration order", func(t *testing.T) {
		var order []string
		var lock sync.Mutex
		record := func(name string) Policy {
			return PolicyFunc(func(ctx context.Context, call *request.Call, next Next) (*request.Response, error) {
				lock.Lock()
				order = append(order, name)
				lock.Unlock()
				return next.Process(ctx, call)
			})
		}
		doer := newMockHTTPDoer(t)
		doer.On("Do", mock.Anything).Return(okResponse(""), nil).Once()
		p := New(doer, record("first"), record("second"), record("third"))
		_, err := p.Send(context.Background(), newRequest(t, "GET", "http://x"))
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second", "third"}, order)
	})
	t.Run("policy rewrites request", func(t *testing.T) {
		doer := newMockHTTPDoer(t)
		doer.On("Do", mock.MatchedBy(func(r *http.Request) bool {
			return r.Header.Get("X-Added") == "yes" && r.URL.Host == "rewritten.com"
		})).Return(okResponse(""), nil).Once()
		p := New(doer, PolicyFunc(func(ctx context.Context, call *request.Call, next Next) (*request.Response, error) {
			call.Request.Header.Set("X-Added", "yes")
			call.Request.URL.Host = "rewritten.com"
			return next.Process(ctx, call)
		}))
		_, err := p.Send(context.Background(), newRequest(t, "GET", "http://original.com"))
		assert.NoError(t, err)
		doer.AssertExpectations(t)
	})
	t.Run("short circuit", func(t *testing.T) {
		doer := newMockHTTPDoer(t)
		synthetic := request.NewBufferedResponse(nil, 418, nil, []byte("teapot"))
		p := New(doer, PolicyFunc(func(_ context.Context, _ *request.Call, _ Next) (*request.Response, error) {
			return synthetic, nil
		}))
		resp, err := p.Send(context.Background(), newRequest(t, "GET", "http://x"))
		assert.NoError(t, err)
		assert.Same(t, synthetic, resp)
		doer.AssertNotCalled(t, "Do", mock.Anything)
	})
	t.Run("repeated continue re-walks the chain", func(t *testing.T) {
		downstream := &recordingPolicy{name: "downstream"}
		doer := newMockHTTPDoer(t)
		doer.On("Do", mock.Anything).Return(okResponse(""), nil).Times(3)
		p := New(doer, PolicyFunc(func(ctx context.Context, call *request.Call, next Next) (*request.Response, error) {
			var resp *request.Response
			var err error
			for i := 0; i < 3; i++ {
				assert.Equal(t, 1, next.Index())
				resp, err = next.Process(ctx, call)
			}
			return resp, err
		}), downstream)
		_, err := p.Send(context.Background(), newRequest(t, "GET", "http://x"))
		assert.NoError(t, err)
		assert.Equal(t, 3, downstream.count())
		doer.AssertExpectations(t)
	})
	t.Run("concurrent continues do not interfere", func(t *testing.T) {
		downstream := &recordingPolicy{name: "downstream"}
		doer := newMockHTTPDoer(t)
		doer.On("Do", mock.Anything).Return(func(*http.Request) *http.Response { return okResponse("") }, nil).Times(10)
		p := New(doer, PolicyFunc(func(ctx context.Context, call *request.Call, next Next) (*request.Response, error) {
			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func(c *request.Call) {
					defer wg.Done()
					_, err := next.Process(ctx, c)
					assert.NoError(t, err)
				}(request.NewCall(call.Request.Copy()))
			}
			wg.Wait()
			return request.NewBufferedResponse(call.Request, 200, nil, nil), nil
		}), downstream)
		_, err := p.Send(context.Background(), newRequest(t, "GET", "http://x"))
		assert.NoError(t, err)
		assert.Equal(t, 10, downstream.count())
	})
	t.Run("side channel", func(t *testing.T) {
		type key struct{}
		doer := newMockHTTPDoer(t)
		doer.On("Do", mock.Anything).Return(okResponse(""), nil).Once()
		p := New(doer,
			PolicyFunc(func(ctx context.Context, call *request.Call, next Next) (*request.Response, error) {
				call.SetValue(key{}, "from upstream")
				return next.Process(ctx, call)
			}),
			PolicyFunc(func(ctx context.Context, call *request.Call, next Next) (*request.Response, error) {
				assert.Equal(t, "from upstream", call.Value(key{}))
				assert.Equal(t, "preset", call.Value("preset"))
				return next.Process(ctx, call)
			}))
		call := request.NewCall(newRequest(t, "GET", "http://x"))
		call.SetValue("preset", "preset")
		_, err := p.SendCall(context.Background(), call)
		assert.NoError(t, err)
	})
	t.Run("transport error", func(t *testing.T) {
		doer := newMockHTTPDoer(t)
		doer.On("Do", mock.Anything).Return(nil, syscall.ECONNRESET).Once()
		p := New(doer)
		resp, err := p.Send(context.Background(), newRequest(t, "POST", "http://x/y"))
		assert.Nil(t, resp)
		var urlErr *url.Error
		require.True(t, errors.As(err, &urlErr))
		assert.Equal(t, "Post", urlErr.Op)
		assert.Equal(t, "http://x/y", urlErr.URL)
		assert.True(t, errors.Is(err, syscall.ECONNRESET))
	})
	t.Run("body supplier error", func(t *testing.T) {
		doer := newMockHTTPDoer(t)
		r := newRequest(t, "PUT", "http://x")
		r.SetBodySupplier(func() (io.ReadCloser, error) {
			return nil, errors.New("cannot open body")
		})
		_, err := New(doer).Send(context.Background(), r)
		var urlErr *url.Error
		require.True(t, errors.As(err, &urlErr))
		assert.EqualError(t, urlErr.Err, "cannot open body")
		doer.AssertNotCalled(t, "Do", mock.Anything)
	})
	t.Run("nil arguments", func(t *testing.T) {
		p := New(nil)
		assert.PanicsWithValue(t, "restx/pipeline: nil context", func() {
			_, _ = p.Send(nil, newRequest(t, "GET", "http://x"))
		})
		assert.PanicsWithValue(t, "restx/pipeline: nil request", func() {
			_, _ = p.Send(context.Background(), nil)
		})
	})
	t.Run("nil header", func(t *testing.T) {
		u, err := url.Parse("http://x")
		require.NoError(t, err)
		r := &request.Request{Method: "GET", URL: u}
		doer := newMockHTTPDoer(t)
		doer.On("Do", mock.MatchedBy(func(hr *http.Request) bool {
			return hr.Header.Get("X-Set") == "yes"
		})).Return(okResponse(""), nil).Once()
		p := New(doer, PolicyFunc(func(ctx context.Context, call *request.Call, next Next) (*request.Response, error) {
			call.Request.Header.Set("X-Set", "yes")
			return next.Process(ctx, call)
		}))
		assert.NotPanics(t, func() {
			_, err = p.Send(context.Background(), r)
		})
		assert.NoError(t, err)
		assert.NotNil(t, r.Header)
		doer.AssertExpectations(t)
	})
}

func TestNext_Process(t *testing.T) {
	t.Run("zero value", func(t *testing.T) {
		resp, err := Next{}.Process(context.Background(), request.NewCall(newRequest(t, "GET", "http://x")))
		assert.Nil(t, resp)
		assert.Same(t, ErrNoMorePolicies, err)
	})
	t.Run("past the end", func(t *testing.T) {
		p := New(newMockHTTPDoer(t), &recordingPolicy{})
		n := Next{pipeline: p, index: 2}
		_, err := n.Process(context.Background(), request.NewCall(newRequest(t, "GET", "http://x")))
		assert.Same(t, ErrNoMorePolicies, err)
	})
}

func TestPipeline_Integration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Echo-Method", r.Method)
		w.Header().Set("X-Echo-Header", r.Header.Get("X-Test"))
		w.WriteHeader(201)
		_, _ = w.Write(b)
	}))
	defer server.Close()

	p := New(server.Client(), PolicyFunc(func(ctx context.Context, call *request.Call, next Next) (*request.Response, error) {
		call.Request.Header.Set("X-Test", "integration")
		return next.Process(ctx, call)
	}))
	r, err := request.NewRequest("PUT", server.URL+"/echo", "payload")
	require.NoError(t, err)
	resp, err := p.Send(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "PUT", resp.Header.Get("X-Echo-Method"))
	assert.Equal(t, "integration", resp.Header.Get("X-Echo-Header"))
	s, err := resp.String()
	assert.NoError(t, err)
	assert.Equal(t, "payload", s)
	assert.Same(t, r, resp.Request)
}

func newRequest(t *testing.T, method, u string) *request.Request {
	r, err := request.NewRequest(method, u, nil)
	require.NoError(t, err)
	return r
}

func okResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

type recordingPolicy struct {
	name  string
	lock  sync.Mutex
	calls int
}

func (p *recordingPolicy) Process(ctx context.Context, call *request.Call, next Next) (*request.Response, error) {
	p.lock.Lock()
	p.calls++
	p.lock.Unlock()
	return next.Process(ctx, call)
}

func (p *recordingPolicy) count() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.calls
}

type mockHTTPDoer struct {
	mock.Mock
}

func newMockHTTPDoer(t *testing.T) *mockHTTPDoer {
	m := &mockHTTPDoer{}
	m.Test(t)
	return m
}

func (m *mockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	err := args.Error(1)
	switch x := args.Get(0).(type) {
	case *http.Response:
		return x, err
	case func(*http.Request) *http.Response:
		return x(req), err
	}
	return nil, err
}
