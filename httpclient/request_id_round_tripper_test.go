/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/acronis/go-ratelimit/httpserver/middleware"
)

func makeRequestIDEchoServer(received *atomic.String) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		received.Store(r.Header.Get(headerRequestID))
		rw.WriteHeader(http.StatusNoContent)
	}))
}

func TestRequestIDRoundTripper(t *testing.T) {
	received := atomic.NewString("")
	server := makeRequestIDEchoServer(received)
	defer server.Close()

	client := &http.Client{Transport: NewRequestIDRoundTripper(http.DefaultTransport)}

	t.Run("id from context", func(t *testing.T) {
		ctx := middleware.NewContextWithRequestID(context.Background(), "12345")
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, server.URL, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, "12345", received.Load())
		require.Empty(t, req.Header.Get(headerRequestID), "original request must not be modified")
	})

	t.Run("header already set", func(t *testing.T) {
		ctx := middleware.NewContextWithRequestID(context.Background(), "12345")
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
		require.NoError(t, err)
		req.Header.Set(headerRequestID, "explicit")
		resp, err := client.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, "explicit", received.Load())
	})

	t.Run("no id", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, server.URL, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Empty(t, received.Load())
	})
}

func TestRequestIDRoundTripperWithOpts(t *testing.T) {
	received := atomic.NewString("")
	server := makeRequestIDEchoServer(received)
	defer server.Close()

	client := &http.Client{Transport: NewRequestIDRoundTripperWithOpts(http.DefaultTransport, RequestIDRoundTripperOpts{
		RequestIDProvider: func(ctx context.Context) string { return "custom-" + middleware.GetRequestIDFromContext(ctx) },
	})}
	req, err := http.NewRequestWithContext(
		middleware.NewContextWithRequestID(context.Background(), "1"), http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "custom-1", received.Load())
}
