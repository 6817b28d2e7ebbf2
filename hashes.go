package moonmock

import (
	"maps"
	"slices"
	"strconv"

	"github.com/eternalApril/moonmock/internal/storage"
)

func (e *Engine) hash(key string) (map[string]string, error) {
	ent, err := e.keys.Lookup(key, storage.TypeHash)
	if err != nil || ent == nil {
		return nil, err
	}
	return ent.Hash, nil
}

// HGet returns the value of field in the hash under key
func (e *Engine) HGet(key, field string) (string, bool, error) {
	h, err := e.hash(key)
	if err != nil {
		return "", false, err
	}
	v, ok := h[field]
	return v, ok, nil
}

// HSet sets field and returns 1 if the field is new, 0 if it was updated
func (e *Engine) HSet(key, field string, value any) (int64, error) {
	var added int64
	err := e.keys.Mutate(key, storage.TypeHash, func(ent *storage.Entity) error {
		if _, ok := ent.Hash[field]; !ok {
			added = 1
		}
		ent.Hash[field] = encode(value)
		return nil
	})
	return added, err
}

// HSetNX sets field only if it does not exist
func (e *Engine) HSetNX(key, field string, value any) (bool, error) {
	var set bool
	err := e.keys.Mutate(key, storage.TypeHash, func(ent *storage.Entity) error {
		if _, ok := ent.Hash[field]; ok {
			return nil
		}
		ent.Hash[field] = encode(value)
		set = true
		return nil
	})
	return set, err
}

// HMSet sets every field of fields. An empty mapping is rejected
func (e *Engine) HMSet(key string, fields map[string]any) error {
	if len(fields) == 0 {
		return redisErr("ERR HMSET requires at least one field/value pair")
	}
	return e.keys.Mutate(key, storage.TypeHash, func(ent *storage.Entity) error {
		for f, v := range fields {
			ent.Hash[f] = encode(v)
		}
		return nil
	})
}

// HMGet returns the value of each field, nil for absent fields
func (e *Engine) HMGet(key string, fields ...string) ([]any, error) {
	h, err := e.hash(key)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(fields))
	for i, f := range fields {
		if v, ok := h[f]; ok {
			out[i] = v
		}
	}
	return out, nil
}

// HDel removes fields and returns how many existed
func (e *Engine) HDel(key string, fields ...string) (int64, error) {
	var n int64
	err := e.keys.Mutate(key, storage.TypeHash, func(ent *storage.Entity) error {
		for _, f := range fields {
			if _, ok := ent.Hash[f]; ok {
				delete(ent.Hash, f)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (e *Engine) HLen(key string) (int64, error) {
	h, err := e.hash(key)
	return int64(len(h)), err
}

func (e *Engine) HExists(key, field string) (bool, error) {
	h, err := e.hash(key)
	_, ok := h[field]
	return ok, err
}

// HGetAll returns a copy of the hash under key
func (e *Engine) HGetAll(key string) (map[string]string, error) {
	h, err := e.hash(key)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return map[string]string{}, nil
	}
	return maps.Clone(h), nil
}

// HKeys returns the field names in lexicographic order
func (e *Engine) HKeys(key string) ([]string, error) {
	h, err := e.hash(key)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(h)), nil
}

// HVals returns the values ordered by their field names
func (e *Engine) HVals(key string) ([]string, error) {
	h, err := e.hash(key)
	if err != nil {
		return nil, err
	}
	fields := slices.Sorted(maps.Keys(h))
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = h[f]
	}
	return out, nil
}

// HIncrBy adds incr to the integer in field, treating an absent field as 0
func (e *Engine) HIncrBy(key, field string, incr int64) (int64, error) {
	var next int64
	err := e.keys.Mutate(key, storage.TypeHash, func(ent *storage.Entity) error {
		var cur int64
		if v, ok := ent.Hash[field]; ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return responseErr("ERR hash value is not an integer")
			}
			cur = n
		}
		next = cur + incr
		ent.Hash[field] = strconv.FormatInt(next, 10)
		return nil
	})
	return next, err
}

// HIncrByFloat adds incr to the float in field, treating an absent field as 0
func (e *Engine) HIncrByFloat(key, field string, incr float64) (float64, error) {
	var next float64
	err := e.keys.Mutate(key, storage.TypeHash, func(ent *storage.Entity) error {
		var cur float64
		if v, ok := ent.Hash[field]; ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return responseErr("ERR hash value is not a float")
			}
			cur = f
		}
		next = cur + incr
		ent.Hash[field] = formatFloat(next)
		return nil
	})
	return next, err
}
