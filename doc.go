// Package mediagate provides an authenticated, range-capable gateway for
// private media objects.
//
// A request URL has the form /view/<token>/<key...>. The token is a compact
// HMAC-SHA256 signed token ("header.payload.signature", base64url) issued by
// an external service; it is verified locally without any backend round trip.
// The remaining path is the key of an object in a read-only ObjectStore.
//
// # Key Components
//
//   - TokenVerifier: signature, expiry and purpose checks for access tokens
//   - Gateway: authorizes a ViewRequest, then reads from the ObjectStore
//   - ObjectStore: interface for key-based head/get with byte ranges
//     (filesystem and S3 implementations live in sub-packages)
//   - MetaDataRepo: metadata sidecar for the filesystem store (SQLite, PostgreSQL)
//
// # Token Rules
//
// A token is accepted when its signature matches the shared secret, its exp
// claim (if any) is not in the past, and its purpose claim is "media-access",
// or "public-share" together with isPublic set to true. With no secret
// configured every token is rejected.
//
// # Example Usage
//
//	verifier := mediagate.NewTokenVerifier(os.Getenv("MEDIAGATE_AUTH_SECRET"))
//	gateway, err := mediagate.NewGateway(verifier, store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	req, err := mediagate.ParseViewPath(r.URL.EscapedPath())
//	obj, err := gateway.Get(ctx, req, r.Header.Get("Range"))
//
// See the http package for the HTTP responder.
package mediagate
