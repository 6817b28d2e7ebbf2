// Package scan implements cursor pagination over a snapshot of a keyed domain.
package scan

import (
	"errors"
	"slices"
	"strings"

	"github.com/eternalApril/moonmock/internal/glob"
)

// DefaultCount is the page size used when the caller does not pass one
const DefaultCount = 10

var (
	ErrInvalidCount  = errors.New("count must be positive")
	ErrInvalidCursor = errors.New("cursor must not be negative")
)

// Page returns one page of domain starting at cursor.
//
// The domain is sorted by keyOf before slicing, so repeated calls against an
// unchanged domain visit every element exactly once. The returned cursor is 0
// once the page reaches the end. Elements whose key does not match the glob
// pattern are dropped from the page after slicing, so a page may be shorter
// than count, or empty, while the cursor is still non-zero.
func Page[T any](domain []T, keyOf func(T) string, cursor, count int, match string) (int, []T, error) {
	if count <= 0 {
		return 0, nil, ErrInvalidCount
	}
	if cursor < 0 {
		return 0, nil, ErrInvalidCursor
	}

	sorted := slices.Clone(domain)
	slices.SortFunc(sorted, func(a, b T) int {
		return strings.Compare(keyOf(a), keyOf(b))
	})

	if cursor >= len(sorted) {
		return 0, []T{}, nil
	}

	end := min(cursor+count, len(sorted))
	next := end
	if end >= len(sorted) {
		next = 0
	}

	window := sorted[cursor:end]
	if match == "" || match == "*" {
		return next, window, nil
	}

	re, err := glob.Compile(match)
	if err != nil {
		return 0, nil, err
	}

	page := make([]T, 0, len(window))
	for _, v := range window {
		if re.MatchString(keyOf(v)) {
			page = append(page, v)
		}
	}

	return next, page, nil
}

// Keys is Page over a plain string domain
func Keys(domain []string, cursor, count int, match string) (int, []string, error) {
	return Page(domain, func(s string) string { return s }, cursor, count, match)
}
