package mediagate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const bytesUnit = "bytes"

// ParseByteRange resolves a Range header against an object of the given size.
//
// Only a single "bytes" range is honoured. ok is false when the header should
// be ignored (malformed, another unit, or several ranges), which RFC 7233
// allows and which means "serve the whole object". A well-formed range that
// starts at or beyond size yields a *RangeError.
func ParseByteRange(header string, size int64) (r ServedRange, ok bool, err error) {
	unit, byteRange, found := strings.Cut(strings.TrimSpace(header), "=")
	if !found || !strings.EqualFold(strings.TrimSpace(unit), bytesUnit) {
		return ServedRange{}, false, nil
	}

	byteRange = strings.TrimSpace(byteRange)
	if byteRange == "" || strings.Contains(byteRange, ",") {
		return ServedRange{}, false, nil
	}

	first, last, found := strings.Cut(byteRange, "-")
	if !found {
		return ServedRange{}, false, nil
	}
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)

	if first == "" {
		// suffix range: the final N bytes
		n, convErr := parseNonNegative(last)
		if convErr != nil {
			return ServedRange{}, false, nil
		}
		if n == 0 || size == 0 {
			return ServedRange{}, false, &RangeError{Size: size}
		}
		n = min(n, size)
		return newServedRange(size-n, size-1), true, nil
	}

	start, convErr := parseNonNegative(first)
	if convErr != nil {
		return ServedRange{}, false, nil
	}

	end := size - 1
	if last != "" {
		e, convErr := parseNonNegative(last)
		if convErr != nil || e < start {
			return ServedRange{}, false, nil
		}
		end = min(e, size-1)
	}

	if start >= size {
		return ServedRange{}, false, &RangeError{Size: size}
	}

	return newServedRange(start, end), true, nil
}

func newServedRange(start, end int64) ServedRange {
	return ServedRange{Offset: start, End: end, Length: end - start + 1}
}

func parseNonNegative(s string) (int64, error) {
	if s == "" || strings.ContainsAny(s, "+-") {
		return 0, errors.New("not a non-negative integer")
	}
	return strconv.ParseInt(s, 10, 64)
}

// FormatContentRange renders "bytes <offset>-<end>/<size>".
func FormatContentRange(r ServedRange, size int64) string {
	return fmt.Sprintf("%s %d-%d/%d", bytesUnit, r.Offset, r.End, size)
}

// FormatUnsatisfiedRange renders "bytes */<size>".
func FormatUnsatisfiedRange(size int64) string {
	return fmt.Sprintf("%s */%d", bytesUnit, size)
}

// ParseContentRange parses a "bytes <first>-<last>/<size>" response header.
// size is -1 when the complete length is "*".
func ParseContentRange(v string) (r ServedRange, size int64, err error) {
	unit, rest, found := strings.Cut(strings.TrimSpace(v), " ")
	if !found || !strings.EqualFold(unit, bytesUnit) {
		return ServedRange{}, 0, fmt.Errorf("parse content range %q: unsupported unit", v)
	}

	span, total, found := strings.Cut(rest, "/")
	if !found {
		return ServedRange{}, 0, fmt.Errorf("parse content range %q: missing size", v)
	}

	first, last, found := strings.Cut(span, "-")
	if !found {
		return ServedRange{}, 0, fmt.Errorf("parse content range %q: missing span", v)
	}

	start, err := parseNonNegative(first)
	if err != nil {
		return ServedRange{}, 0, fmt.Errorf("parse content range %q: first byte: %w", v, err)
	}
	end, err := parseNonNegative(last)
	if err != nil || end < start {
		return ServedRange{}, 0, fmt.Errorf("parse content range %q: last byte", v)
	}

	size = -1
	if total != "*" {
		size, err = parseNonNegative(total)
		if err != nil || end >= size {
			return ServedRange{}, 0, fmt.Errorf("parse content range %q: size", v)
		}
	}

	return newServedRange(start, end), size, nil
}
