package moonmock

import (
	"errors"
	"maps"
	"slices"

	"github.com/eternalApril/moonmock/internal/scan"
	"github.com/eternalApril/moonmock/internal/zset"
)

// Scan pages through every key. The domain is re-sorted on each call so a
// walk from cursor 0 until the returned cursor is 0 again sees each key that
// existed throughout exactly once. MATCH filters each page after slicing, so
// pages may be short or empty before the walk ends. A zero count means 10.
func (e *Engine) Scan(cursor uint64, match string, count int64) (uint64, []string, error) {
	return page(e.keys.Keys(), identity, cursor, match, count, func(k string) []string {
		return []string{k}
	})
}

// SScan pages through the members of the set under key
func (e *Engine) SScan(key string, cursor uint64, match string, count int64) (uint64, []string, error) {
	s, err := e.set(key)
	if err != nil {
		return 0, nil, err
	}
	return page(slices.Collect(maps.Keys(s)), identity, cursor, match, count, func(m string) []string {
		return []string{m}
	})
}

// HScan pages through the hash under key. Pages alternate field and value
func (e *Engine) HScan(key string, cursor uint64, match string, count int64) (uint64, []string, error) {
	h, err := e.hash(key)
	if err != nil {
		return 0, nil, err
	}
	return page(slices.Collect(maps.Keys(h)), identity, cursor, match, count, func(f string) []string {
		return []string{f, h[f]}
	})
}

// ZScan pages through the sorted set under key. Pages alternate member and score
func (e *Engine) ZScan(key string, cursor uint64, match string, count int64) (uint64, []string, error) {
	z, err := e.sortedSet(key)
	if err != nil {
		return 0, nil, err
	}
	var items []zset.Item
	if z != nil {
		items = z.Items()
	}
	return page(items, func(it zset.Item) string { return it.Member }, cursor, match, count, func(it zset.Item) []string {
		return []string{it.Member, formatFloat(it.Score)}
	})
}

func identity(s string) string { return s }

func page[T any](domain []T, keyOf func(T) string, cursor uint64, match string, count int64, emit func(T) []string) (uint64, []string, error) {
	if count == 0 {
		count = scan.DefaultCount
	}

	next, items, err := scan.Page(domain, keyOf, int(cursor), int(count), match)
	switch {
	case errors.Is(err, scan.ErrInvalidCount), errors.Is(err, scan.ErrInvalidCursor):
		return 0, nil, errSyntax
	case err != nil:
		return 0, nil, invalidArg("ERR invalid pattern: " + err.Error())
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, emit(it)...)
	}
	return uint64(next), out, nil
}

// ScanIterator walks a scan domain one element at a time
type ScanIterator struct {
	fetch func(cursor uint64) (uint64, []string, error)

	cursor  uint64
	page    []string
	pos     int
	started bool
	val     string
	err     error
}

func newScanIterator(fetch func(cursor uint64) (uint64, []string, error)) *ScanIterator {
	return &ScanIterator{fetch: fetch}
}

// Next advances to the next element and reports whether there is one
func (it *ScanIterator) Next() bool {
	for it.pos >= len(it.page) {
		if it.err != nil || (it.started && it.cursor == 0) {
			return false
		}
		it.started = true
		it.cursor, it.page, it.err = it.fetch(it.cursor)
		it.pos = 0
		if it.err != nil {
			return false
		}
	}
	it.val = it.page[it.pos]
	it.pos++
	return true
}

// Val returns the current element
func (it *ScanIterator) Val() string { return it.val }

func (it *ScanIterator) Err() error { return it.err }

// ScanIter iterates every key matching match
func (e *Engine) ScanIter(match string, count int64) *ScanIterator {
	return newScanIterator(func(c uint64) (uint64, []string, error) {
		return e.Scan(c, match, count)
	})
}

func (e *Engine) SScanIter(key, match string, count int64) *ScanIterator {
	return newScanIterator(func(c uint64) (uint64, []string, error) {
		return e.SScan(key, c, match, count)
	})
}

// HScanIter yields field and value alternately
func (e *Engine) HScanIter(key, match string, count int64) *ScanIterator {
	return newScanIterator(func(c uint64) (uint64, []string, error) {
		return e.HScan(key, c, match, count)
	})
}

// ZScanIter yields member and score alternately
func (e *Engine) ZScanIter(key, match string, count int64) *ScanIterator {
	return newScanIterator(func(c uint64) (uint64, []string, error) {
		return e.ZScan(key, c, match, count)
	})
}
