package arus

import (
	"sort"
	"strconv"
	"strings"
)

// ByteRange is an inclusive byte interval of a resource.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the range.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// contentRange formats the Content-Range value for r within size.
func (r ByteRange) contentRange(size int64) string {
	return "bytes " + strconv.FormatInt(r.Start, 10) + "-" + strconv.FormatInt(r.End, 10) + "/" + strconv.FormatInt(size, 10)
}

// Range parses the Range header against a resource of the given size.
// It accepts "bytes=start-end", the open form "start-" and the suffix form
// "-length", comma separated. It returns nil when the header is absent,
// uses another unit, contains an invalid or unsatisfiable part, or when
// two ranges overlap. Returned ranges are sorted by start offset.
func (r *Request) Range(size int64) []ByteRange {
	header := r.Header.Get(HeaderRange)
	if header == "" || size <= 0 {
		return nil
	}
	return parseRange(header, size)
}

func parseRange(header string, size int64) []ByteRange {
	const unit = "bytes="
	if !strings.HasPrefix(header, unit) {
		return nil
	}

	var ranges []ByteRange
	for _, part := range strings.Split(header[len(unit):], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil
		}
		startStr, endStr, found := strings.Cut(part, "-")
		if !found {
			return nil
		}
		startStr = strings.TrimSpace(startStr)
		endStr = strings.TrimSpace(endStr)

		var br ByteRange
		switch {
		case startStr == "":
			// Suffix form: the last N bytes.
			n, err := strconv.ParseInt(endStr, 10, 64)
			if err != nil || n <= 0 {
				return nil
			}
			if n > size {
				n = size
			}
			br = ByteRange{Start: size - n, End: size - 1}
		default:
			start, err := strconv.ParseInt(startStr, 10, 64)
			if err != nil || start < 0 || start >= size {
				return nil
			}
			end := size - 1
			if endStr != "" {
				end, err = strconv.ParseInt(endStr, 10, 64)
				if err != nil || end < start {
					return nil
				}
				if end > size-1 {
					end = size - 1
				}
			}
			br = ByteRange{Start: start, End: end}
		}
		ranges = append(ranges, br)
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	for i := 1; i < len(ranges); i++ {
		if ranges[i].Start <= ranges[i-1].End {
			return nil
		}
	}
	return ranges
}
