package moonmock

import (
	"cmp"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/eternalApril/moonmock/internal/storage"
)

// Sort returns the elements of the list, set or sorted set under key ordered
// as described by opt. A nil opt sorts numerically ascending.
//
// By patterns containing "*" are resolved per element ("weight_*" or
// "obj_*->field"); a By pattern without "*" keeps the stored order. Get
// patterns work the same way and "#" selects the element itself; lookups that
// miss yield nil entries.
func (e *Engine) Sort(key string, opt *redis.Sort) ([]any, error) {
	if opt == nil {
		opt = &redis.Sort{}
	}

	elems, err := e.sortable(key)
	if err != nil {
		return nil, err
	}

	if opt.By == "" || strings.Contains(opt.By, "*") {
		if err = e.sortElements(elems, opt); err != nil {
			return nil, err
		}
	}

	elems = limitSorted(elems, opt.Offset, opt.Count)

	if len(opt.Get) == 0 {
		out := make([]any, len(elems))
		for i, el := range elems {
			out[i] = el
		}
		return out, nil
	}

	out := make([]any, 0, len(elems)*len(opt.Get))
	for _, el := range elems {
		for _, pattern := range opt.Get {
			if pattern == "#" {
				out = append(out, el)
				continue
			}
			if v, ok := e.lookupPattern(pattern, el); ok {
				out = append(out, v)
			} else {
				out = append(out, nil)
			}
		}
	}
	return out, nil
}

// SortStore stores the result of Sort as a list under dest and returns its length.
// An empty result deletes dest.
func (e *Engine) SortStore(key, dest string, opt *redis.Sort) (int64, error) {
	res, err := e.Sort(key, opt)
	if err != nil {
		return 0, err
	}

	ent := storage.NewEntity(storage.TypeList)
	for _, v := range res {
		if v == nil {
			ent.List = append(ent.List, "")
			continue
		}
		ent.List = append(ent.List, encode(v))
	}
	e.keys.Set(dest, ent)
	return int64(len(ent.List)), nil
}

func (e *Engine) sortable(key string) ([]string, error) {
	ent, ok := e.keys.Get(key)
	if !ok {
		return []string{}, nil
	}
	switch ent.Type {
	case storage.TypeList:
		return slices.Clone(ent.List), nil
	case storage.TypeSet:
		return slices.Sorted(maps.Keys(ent.Set)), nil
	case storage.TypeZSet:
		items := ent.ZSet.Items()
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.Member
		}
		return out, nil
	default:
		return nil, ErrWrongType
	}
}

func (e *Engine) sortElements(elems []string, opt *redis.Sort) error {
	weights := make(map[string]string, len(elems))
	for _, el := range elems {
		w := el
		if opt.By != "" {
			w, _ = e.lookupPattern(opt.By, el)
		}
		weights[el] = w
	}

	desc := strings.EqualFold(opt.Order, "DESC")
	dir := func(c int) int {
		if desc {
			return -c
		}
		return c
	}

	if opt.Alpha {
		slices.SortStableFunc(elems, func(a, b string) int {
			return dir(strings.Compare(weights[a], weights[b]))
		})
		return nil
	}

	scores := make(map[string]float64, len(elems))
	for el, w := range weights {
		if w == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil {
			return responseErr("ERR One or more scores can't be converted into double")
		}
		scores[el] = f
	}
	slices.SortStableFunc(elems, func(a, b string) int {
		return dir(cmp.Compare(scores[a], scores[b]))
	})
	return nil
}

// lookupPattern substitutes el for the first "*" in pattern and reads the
// resulting string key, or hash field when the pattern has a "->field" suffix.
func (e *Engine) lookupPattern(pattern, el string) (string, bool) {
	star := strings.Index(pattern, "*")
	if star < 0 {
		return "", false
	}

	key := pattern[:star] + el + pattern[star+1:]
	field := ""
	if arrow := strings.Index(pattern[star:], "->"); arrow >= 0 && star+arrow+2 < len(pattern) {
		key = pattern[:star] + el + pattern[star+1:star+arrow]
		field = pattern[star+arrow+2:]
	}

	ent, ok := e.keys.Get(key)
	if !ok {
		return "", false
	}
	if field == "" {
		if ent.Type != storage.TypeString {
			return "", false
		}
		return ent.Str, true
	}
	if ent.Type != storage.TypeHash {
		return "", false
	}
	v, ok := ent.Hash[field]
	return v, ok
}

// limitSorted applies a LIMIT offset count window. Offset and count both
// zero means no limit; a negative count runs to the end.
func limitSorted(elems []string, offset, count int64) []string {
	if offset == 0 && count == 0 {
		return elems
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= int64(len(elems)) || count == 0 {
		return []string{}
	}
	end := int64(len(elems))
	if count > 0 {
		end = min(end, offset+count)
	}
	return elems[offset:end]
}
