/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-ratelimit/log"
	"github.com/acronis/go-ratelimit/log/logtest"
)

type mockLoggingNextHandler struct {
	called            int
	lastContextLogger log.FieldLogger
	respStatusCode    int
}

func (h *mockLoggingNextHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	h.called++
	h.lastContextLogger = GetLoggerFromContext(r.Context())
	rw.WriteHeader(h.respStatusCode)
	_, _ = rw.Write([]byte(http.StatusText(h.respStatusCode)))
}

func requireLogFieldString(t *testing.T, entry logtest.RecordedEntry, key, want string) {
	t.Helper()
	field, found := entry.FindField(key)
	require.True(t, found, "field %q not found", key)
	require.Equal(t, want, string(field.Bytes))
}

func requireLogFieldInt(t *testing.T, entry logtest.RecordedEntry, key string, want int) {
	t.Helper()
	field, found := entry.FindField(key)
	require.True(t, found, "field %q not found", key)
	require.Equal(t, want, int(field.Int))
}

func TestLoggingHandler_ServeHTTP(t *testing.T) {
	const (
		reqID     = "request-id"
		userAgent = "http-client"
		urlPath   = "/endpoint"
	)

	makeRequest := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, urlPath, nil)
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set(headerForwardedFor, "10.0.0.1, 10.0.0.2")
		return req.WithContext(NewContextWithRequestID(req.Context(), reqID))
	}

	t.Run("request completed", func(t *testing.T) {
		logger := logtest.NewRecorder()
		next := &mockLoggingNextHandler{respStatusCode: http.StatusOK}
		LoggingWithOpts(logger, LoggingOpts{RequestStart: true})(next).ServeHTTP(httptest.NewRecorder(), makeRequest())

		require.Equal(t, 1, next.called)
		require.NotNil(t, next.lastContextLogger)
		require.Len(t, logger.Entries(), 2)

		_, found := logger.FindEntry("request started")
		require.True(t, found)

		entry, found := logger.FindEntryByFilter(func(e logtest.RecordedEntry) bool {
			return strings.HasPrefix(e.Text, "response completed in")
		})
		require.True(t, found)
		requireLogFieldString(t, entry, "request_id", reqID)
		requireLogFieldString(t, entry, "method", http.MethodPost)
		requireLogFieldString(t, entry, "uri", urlPath)
		requireLogFieldString(t, entry, userAgentLogFieldKey, userAgent)
		requireLogFieldString(t, entry, "origin_addr", "10.0.0.1")
		requireLogFieldInt(t, entry, "status", http.StatusOK)
		requireLogFieldInt(t, entry, "bytes_sent", len(http.StatusText(http.StatusOK)))
	})

	t.Run("excluded endpoint", func(t *testing.T) {
		logger := logtest.NewRecorder()
		next := &mockLoggingNextHandler{respStatusCode: http.StatusOK}
		opts := LoggingOpts{RequestStart: true, ExcludedEndpoints: []string{urlPath}}
		LoggingWithOpts(logger, opts)(next).ServeHTTP(httptest.NewRecorder(), makeRequest())

		require.Equal(t, 1, next.called)
		require.Empty(t, logger.Entries())
	})

	t.Run("excluded endpoint with error status", func(t *testing.T) {
		logger := logtest.NewRecorder()
		next := &mockLoggingNextHandler{respStatusCode: http.StatusServiceUnavailable}
		opts := LoggingOpts{ExcludedEndpoints: []string{urlPath}}
		LoggingWithOpts(logger, opts)(next).ServeHTTP(httptest.NewRecorder(), makeRequest())

		require.Len(t, logger.Entries(), 1)
		requireLogFieldInt(t, logger.Entries()[0], "status", http.StatusServiceUnavailable)
	})

	t.Run("context logger carries request id", func(t *testing.T) {
		logger := logtest.NewRecorder()
		next := &mockLoggingNextHandler{respStatusCode: http.StatusOK}
		Logging(logger)(next).ServeHTTP(httptest.NewRecorder(), makeRequest())

		logger.Reset()
		next.lastContextLogger.Info("from handler")
		entry, found := logger.FindEntry("from handler")
		require.True(t, found)
		requireLogFieldString(t, entry, "request_id", reqID)
		_, found = entry.FindField("method")
		require.False(t, found)
	})
}
