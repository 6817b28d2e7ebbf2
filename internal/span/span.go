// Package span resolves Redis-style inclusive index ranges against a sequence length.
package span

// Resolve translates start and end (inclusive, negative values counting from the tail)
// into bounds clamped to [0, length]. The range is empty when lo > hi.
func Resolve(length, start, end int) (lo, hi int) {
	if start < 0 {
		start += length
	}
	lo = max(0, min(start, length))

	if end < 0 {
		end += length
	}
	hi = max(-1, min(end, length-1))

	return lo, hi
}

// Empty reports whether the resolved bounds select nothing
func Empty(lo, hi int) bool {
	return lo > hi
}
