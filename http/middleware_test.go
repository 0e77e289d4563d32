package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	mediahttp "github.com/invoicekit/mediagate/http"
	"github.com/stretchr/testify/assert"
)

func assertCORSHeaders(t *testing.T, h http.Header) {
	t.Helper()

	assert.Equal(t, "*", h.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, HEAD, OPTIONS", h.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Range, Content-Type, Authorization", h.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "Content-Range, Accept-Ranges, Content-Length, ETag", h.Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "86400", h.Get("Access-Control-Max-Age"))
	assert.Equal(t, "cross-origin", h.Get("Cross-Origin-Resource-Policy"))
	assert.Empty(t, h.Get("Access-Control-Allow-Credentials"))
}

func TestCORSPolicy_Preflight(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	})

	wrapped := mediahttp.CORSPolicy(mediahttp.CORSConfig{})(handler)

	req := httptest.NewRequest(http.MethodOptions, "/anything/at/all", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assertCORSHeaders(t, rec.Header())
}

func TestCORSPolicy_AppliedWithoutOrigin(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	wrapped := mediahttp.CORSPolicy(mediahttp.CORSConfig{})(handler)

	req := httptest.NewRequest(http.MethodGet, "/view/t/k", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assertCORSHeaders(t, rec.Header())
}

func TestCORSPolicy_CustomOriginAndMaxAge(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	wrapped := mediahttp.CORSPolicy(mediahttp.CORSConfig{AllowOrigin: "https://app.example.com", MaxAge: 600})(handler)

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	wrapped := mediahttp.RequestLogger(handler)

	req := httptest.NewRequest(http.MethodGet, "/view/secret-token/video.mp4", nil)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Header().Get(mediahttp.RequestIDHeader), 36)

	req = httptest.NewRequest(http.MethodGet, "/view/secret-token/video.mp4", nil)
	req.Header.Set(mediahttp.RequestIDHeader, "upstream-id")
	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id", rec.Header().Get(mediahttp.RequestIDHeader))
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/view/eyJhbGciOi.eyJzdWIi.sig/projects/1/video.mp4", want: "/view/***/projects/1/video.mp4"},
		{path: "/view/token", want: "/view/***"},
		{path: "//view//token/k", want: "//view//***/k"},
		{path: "/view", want: "/view"},
		{path: "/health", want: "/health"},
		{path: "/other/view/token", want: "/other/view/token"},
		{path: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, mediahttp.MaskToken(tt.path))
		})
	}
}
