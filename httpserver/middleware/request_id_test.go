/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/require"
)

type mockRequestIDNextHandler struct {
	called  int
	request *http.Request
}

func (h *mockRequestIDNextHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	h.called++
	h.request = r
}

func TestRequestIDHandler_ServeHTTP(t *testing.T) {
	const genReqID = "generated-request-id"
	opts := RequestIDOpts{GenerateID: func() string { return genReqID }}

	t.Run("id is generated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		resp := httptest.NewRecorder()
		next := &mockRequestIDNextHandler{}
		RequestIDWithOpts(opts)(next).ServeHTTP(resp, req)

		require.Equal(t, 1, next.called)
		require.Equal(t, genReqID, GetRequestIDFromContext(next.request.Context()))
		require.Equal(t, genReqID, resp.Header().Get(headerRequestID))
	})

	t.Run("id is taken from the header", func(t *testing.T) {
		const reqID = "client-request-id"
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(headerRequestID, reqID)
		resp := httptest.NewRecorder()
		next := &mockRequestIDNextHandler{}
		RequestIDWithOpts(opts)(next).ServeHTTP(resp, req)

		require.Equal(t, 1, next.called)
		require.Equal(t, reqID, GetRequestIDFromContext(next.request.Context()))
		require.Equal(t, reqID, resp.Header().Get(headerRequestID))
	})

	t.Run("default generator produces xid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		resp := httptest.NewRecorder()
		next := &mockRequestIDNextHandler{}
		RequestID()(next).ServeHTTP(resp, req)

		_, err := xid.FromString(GetRequestIDFromContext(next.request.Context()))
		require.NoError(t, err)
	})
}
