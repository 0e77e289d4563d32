// Package http serves media objects behind token-authenticated URLs.
//
// Every request addresses an object as
//
//	/view/{token}/{key...}
//
// where token is a compact HMAC-SHA256 access token and key is the
// percent-encoded object key. GET streams the object, honouring a single
// byte range; HEAD returns the same headers without a body.
//
// # Responses
//
//   - 200 full object, 206 partial content with Content-Range
//   - 204 for OPTIONS preflight, never authenticated
//   - 400 malformed path, 401 rejected token, 404 unknown key
//   - 405 any method other than GET, HEAD and OPTIONS
//   - 416 range outside the object
//   - 500 storage failures
//
// CORSPolicy stamps the cross-origin header set on all of them, including
// errors and recovered panics.
//
// # Usage
//
//	gateway, _ := mediagate.NewGateway(mediagate.NewTokenVerifier(secret), store)
//	handler := http.NewHandler(&http.HandlerConfig{}, gateway)
//	srv := &nethttp.Server{Addr: ":8080", Handler: handler.Router()}
//
// RequestLogger writes one slog line per request with the token segment
// masked.
package http
