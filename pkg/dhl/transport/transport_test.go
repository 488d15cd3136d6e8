package transport_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tournevent/dhlbridge/pkg/dhl/transport"
)

func newTestClient() *transport.HTTPClient {
	return transport.NewHTTPClient(transport.Config{
		Username:        "user",
		Password:        "pass",
		Timeout:         2 * time.Second,
		BackoffSchedule: []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond},
	})
}

func testRequest(url string, idempotent bool) *transport.Request {
	return &transport.Request{
		URL:        url,
		Method:     http.MethodPost,
		Headers:    map[string]string{"Content-Type": "text/xml; charset=utf-8"},
		Body:       []byte("<payload/>"),
		Idempotent: idempotent,
		Operation:  "test",
	}
}

func TestSend_Success(t *testing.T) {
	var gotAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, gotAuth = r.BasicAuth()
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := newTestClient().Send(context.Background(), testRequest(srv.URL, true))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, 0, resp.Retries)
	assert.True(t, gotAuth)
}

func TestSend_RetriesServerErrorThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	resp, err := newTestClient().Send(context.Background(), testRequest(srv.URL, true))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, resp.Retries)
}

func TestSend_RetryBudgetExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient().Send(context.Background(), testRequest(srv.URL, true))
	require.Error(t, err)

	var f *transport.Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, transport.ClassServer, f.Class)
	// 1 initial attempt + 3 scheduled retries.
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, 3, f.Retries)
}

func TestSend_NonIdempotentNeverRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient().Send(context.Background(), testRequest(srv.URL, false))
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSend_ClientErrorNeverRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient().Send(context.Background(), testRequest(srv.URL, true))
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var f *transport.Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, transport.ClassUpstream, f.Class)
}

func TestSend_StatusClassification(t *testing.T) {
	cases := map[int]transport.Class{
		http.StatusUnauthorized:    transport.ClassAuth,
		http.StatusForbidden:       transport.ClassAuth,
		http.StatusNotFound:        transport.ClassNotFound,
		http.StatusTooManyRequests: transport.ClassRateLimit,
		http.StatusBadGateway:      transport.ClassServer,
	}
	for status, wantClass := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := newTestClient().Send(context.Background(), testRequest(srv.URL, false))
		srv.Close()
		require.Error(t, err, "status %d", status)

		var f *transport.Failure
		require.True(t, errors.As(err, &f))
		assert.Equal(t, wantClass, f.Class, "status %d", status)
		assert.Equal(t, status, f.StatusCode)
	}
}

func TestSend_ForbiddenSubReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient().Send(context.Background(), testRequest(srv.URL, false))
	var f *transport.Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "forbidden", f.SubReason)
}

func TestSend_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	req := testRequest(srv.URL, false)
	req.Timeout = 20 * time.Millisecond

	_, err := newTestClient().Send(context.Background(), req)
	require.Error(t, err)

	var f *transport.Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, transport.ClassTimeout, f.Class)
}

func TestMockClient_CapturesAndPlaysBack(t *testing.T) {
	mock := transport.NewMockClient()
	mock.QueueBody("first")
	mock.QueueBody("second")

	ctx := context.Background()
	resp, err := mock.Send(ctx, testRequest("http://example", true))
	require.NoError(t, err)
	assert.Equal(t, "first", string(resp.Body))

	resp, err = mock.Send(ctx, testRequest("http://example", true))
	require.NoError(t, err)
	assert.Equal(t, "second", string(resp.Body))

	require.Len(t, mock.Requests, 2)
	assert.Equal(t, "test", mock.LastRequest().Operation)
}
