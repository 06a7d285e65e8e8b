// Copyright 2021 The restx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBodyBytes(t *testing.T) {
	shared := []byte("bar")
	testCases := []struct {
		name     string
		body     interface{}
		expected []byte
	}{
		{"nil", nil, nil},
		{"string", "foo", []byte("foo")},
		{"empty string", "", []byte{}},
		{"bytes", shared, shared},
		{"reader", strings.NewReader("baz"), []byte("baz")},
		{"read closer", io.NopCloser(bytes.NewReader(shared)), shared},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			b, err := BodyBytes(testCase.body)
			assert.NoError(t, err)
			assert.Equal(t, testCase.expected, b)
		})
	}
	t.Run("bytes not copied", func(t *testing.T) {
		b, err := BodyBytes(shared)
		require.NoError(t, err)
		assert.Same(t, &shared[0], &b[0])
	})
	t.Run("bad type", func(t *testing.T) {
		b, err := BodyBytes(10)
		assert.Nil(t, b)
		assert.EqualError(t, err, badBodyTypeMsg)
	})
	t.Run("reader errors", func(t *testing.T) {
		expectedErr := errors.New("ham")
		t.Run("Read", func(t *testing.T) {
			m := &mockReadCloser{}
			m.Test(t)
			m.On("Read", mock.Anything).Return(10, expectedErr).Once()
			b, err := BodyBytes(m)
			assert.Nil(t, b)
			assert.Same(t, expectedErr, err)
			m.AssertExpectations(t)
			m.AssertNotCalled(t, "Close")
		})
		t.Run("Close", func(t *testing.T) {
			m := &mockReadCloser{}
			m.Test(t)
			m.On("Read", mock.Anything).Return(0, io.EOF).Once()
			m.On("Close").Return(expectedErr).Once()
			b, err := BodyBytes(m)
			assert.Nil(t, b)
			assert.Same(t, expectedErr, err)
			m.AssertExpectations(t)
		})
	})
}

func TestWrapError(t *testing.T) {
	r, err := NewRequest("PUT", "http://example.com/a", nil)
	require.NoError(t, err)
	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, WrapError(r, nil))
	})
	t.Run("plain error", func(t *testing.T) {
		cause := errors.New("boom")
		wrapped := WrapError(r, cause)
		var urlErr *url.Error
		require.True(t, errors.As(wrapped, &urlErr))
		assert.Equal(t, "Put", urlErr.Op)
		assert.Equal(t, "http://example.com/a", urlErr.URL)
		assert.Same(t, cause, urlErr.Err)
	})
	t.Run("already wrapped", func(t *testing.T) {
		urlErr := &url.Error{Op: "Get", URL: "x", Err: errors.New("y")}
		assert.Same(t, urlErr, WrapError(r, urlErr))
	})
	t.Run("nil request", func(t *testing.T) {
		var urlErr *url.Error
		require.True(t, errors.As(WrapError(nil, errors.New("z")), &urlErr))
		assert.Equal(t, "Get", urlErr.Op)
		assert.Equal(t, "", urlErr.URL)
	})
}

func TestErrorOp(t *testing.T) {
	assert.Equal(t, "Get", ErrorOp(""))
	assert.Equal(t, "Get", ErrorOp("GET"))
	assert.Equal(t, "G", ErrorOp("G"))
	assert.Equal(t, "Xyz", ErrorOp("XYZ"))
	assert.Equal(t, "Put", ErrorOp("PUT"))
}

type mockReadCloser struct {
	mock.Mock
}

func (m *mockReadCloser) Read(p []byte) (n int, err error) {
	args := m.Called(p)
	n = args.Int(0)
	err = args.Error(1)
	return
}

func (m *mockReadCloser) Close() error {
	args := m.Called()
	return args.Error(0)
}
