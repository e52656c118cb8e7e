package media

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrRangeNotSatisfiable = errors.New("requested range not satisfiable")

// ByteRange is an inclusive byte interval.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// ParseRange parses "bytes=<start>-<end>" against an object of the given
// size. The end is optional and defaults to size-1; "bytes=-N" asks for the
// last N bytes. Only the first range of a list is honored. Offsets at or
// beyond size are not clamped: they fail with ErrRangeNotSatisfiable.
func ParseRange(header string, size int64) (ByteRange, error) {
	const unit = "bytes="
	header = strings.TrimSpace(header)
	if len(header) < len(unit) || !strings.EqualFold(header[:len(unit)], unit) {
		return ByteRange{}, ErrRangeNotSatisfiable
	}

	spec, _, _ := strings.Cut(header[len(unit):], ",")
	startStr, endStr, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return ByteRange{}, ErrRangeNotSatisfiable
	}
	startStr, endStr = strings.TrimSpace(startStr), strings.TrimSpace(endStr)

	if size <= 0 {
		return ByteRange{}, ErrRangeNotSatisfiable
	}

	if startStr == "" {
		n, err := parseOffset(endStr)
		if err != nil || n == 0 {
			return ByteRange{}, ErrRangeNotSatisfiable
		}
		if n > size {
			n = size
		}
		return ByteRange{Start: size - n, End: size - 1}, nil
	}

	start, err := parseOffset(startStr)
	if err != nil {
		return ByteRange{}, ErrRangeNotSatisfiable
	}
	end := size - 1
	if endStr != "" {
		if end, err = parseOffset(endStr); err != nil {
			return ByteRange{}, ErrRangeNotSatisfiable
		}
	}

	if start >= size || end >= size || start > end {
		return ByteRange{}, ErrRangeNotSatisfiable
	}
	return ByteRange{Start: start, End: end}, nil
}

func parseOffset(s string) (int64, error) {
	if s == "" || strings.ContainsAny(s, "+-") {
		return 0, ErrRangeNotSatisfiable
	}
	return strconv.ParseInt(s, 10, 64)
}
