package mediagate

import (
	"strings"
	"unicode/utf8"
)

// IsValidKey validates that a string is usable as an object key.
// It checks that the key:
//   - is not empty, ".", or "/"
//   - is relative (does not start with "/")
//   - does not end with "/"
//   - has no "." or ".." segments (path traversal)
//   - does not contain "//" (empty segments)
//   - does not contain a backslash
//   - is valid UTF-8
//   - does not contain null bytes, control characters (< 0x20) or DEL (0x7f)
//
// Spaces are allowed; uploaded media names routinely contain them.
func IsValidKey(k string) bool {
	if k == "" || k == "/" || k == "." {
		return false
	}

	if k[0] == '/' || strings.HasSuffix(k, "/") {
		return false
	}

	if strings.Contains(k, "//") || strings.Contains(k, `\`) {
		return false
	}

	if !utf8.ValidString(k) {
		return false
	}

	for _, seg := range strings.Split(k, "/") {
		if seg == "." || seg == ".." {
			return false
		}
	}

	for _, r := range k {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}

	return true
}
