package output

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingOutput struct{ err error }

func (f failingOutput) WriteBatch(context.Context, [][]byte) error { return f.err }

func TestConsoleOutput_WriteBatch(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriterOutput(&buf)

	err := out.WriteBatch(context.Background(), [][]byte{[]byte("a\n"), []byte("b\n")})
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", buf.String())
}

func TestConsoleOutput_OneNewlinePerEntry(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriterOutput(&buf)

	// Datagram entries carry no newline, stream lines already end in one.
	err := out.WriteBatch(context.Background(), [][]byte{[]byte("udp"), []byte("tcp\n"), []byte(""), []byte("last")})
	require.NoError(t, err)
	assert.Equal(t, "udp\ntcp\n\nlast\n", buf.String())
}

func TestFanOutOutput_WritesAll(t *testing.T) {
	var b1, b2 bytes.Buffer
	f := NewFanOutOutput(NewWriterOutput(&b1), NewWriterOutput(&b2))
	assert.Equal(t, 2, f.Len())

	require.NoError(t, f.WriteBatch(context.Background(), [][]byte{[]byte("x")}))
	assert.Equal(t, "x\n", b1.String())
	assert.Equal(t, "x\n", b2.String())
}

func TestFanOutOutput_ReturnsError(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")
	f := NewFanOutOutput(NewWriterOutput(&buf), failingOutput{err: boom})

	err := f.WriteBatch(context.Background(), [][]byte{[]byte("x")})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "x\n", buf.String())
}

func TestHTTPOutput_WriteBatch(t *testing.T) {
	var (
		body   string
		header string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		header = r.Header.Get("X-Token")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	out := NewHTTPOutput(srv.URL, map[string]string{"X-Token": "t0k"})
	err := out.WriteBatch(context.Background(), [][]byte{[]byte("one"), []byte("two\n")})
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", body)
	assert.Equal(t, "t0k", header)
}

func TestHTTPOutput_BadStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewHTTPOutput(srv.URL, nil).WriteBatch(context.Background(), [][]byte{[]byte("x")})
	assert.Error(t, err)
	// 4xx is not retried
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPOutput_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewHTTPOutput(srv.URL, nil).WriteBatch(context.Background(), [][]byte{[]byte("x")})
	assert.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
