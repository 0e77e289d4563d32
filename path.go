package mediagate

import (
	"fmt"
	"net/url"
	"strings"
)

// ViewPrefix is the first path segment of every media URL.
const ViewPrefix = "view"

// ViewRequest is a parsed "/view/<token>/<key...>" URL path.
type ViewRequest struct {
	Token string
	Key   string
}

// ParseViewPath splits an escaped URL path into token and object key.
//
// Empty segments are dropped. At least three segments are required and the
// first must be "view". The token segment is taken verbatim; the key segments
// are percent-decoded one by one and rejoined with "/". The key is otherwise
// not restricted: an encoded slash, a ".." segment or a backslash are all
// legal in object stores, and each store decides what it can serve.
//
// Errors wrap ErrInvalidInput.
func ParseViewPath(escapedPath string) (ViewRequest, error) {
	var segments []string
	for _, s := range strings.Split(escapedPath, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	if len(segments) < 3 || segments[0] != ViewPrefix {
		return ViewRequest{}, fmt.Errorf("parse view path: expected /%s/<token>/<key>: %w", ViewPrefix, ErrInvalidInput)
	}

	keyParts := make([]string, 0, len(segments)-2)
	for _, s := range segments[2:] {
		decoded, err := url.PathUnescape(s)
		if err != nil {
			return ViewRequest{}, fmt.Errorf("parse view path: bad escape in %q: %w", s, ErrInvalidInput)
		}
		keyParts = append(keyParts, decoded)
	}

	return ViewRequest{Token: segments[1], Key: strings.Join(keyParts, "/")}, nil
}
