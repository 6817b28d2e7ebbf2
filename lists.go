package moonmock

import (
	"slices"
	"time"

	"github.com/eternalApril/moonmock/internal/span"
	"github.com/eternalApril/moonmock/internal/storage"
)

func (e *Engine) list(key string) ([]string, error) {
	ent, err := e.keys.Lookup(key, storage.TypeList)
	if err != nil || ent == nil {
		return nil, err
	}
	return ent.List, nil
}

// LPush prepends values one by one, so the last value ends up first.
// It returns the new length.
func (e *Engine) LPush(key string, values ...any) (int64, error) {
	if len(values) == 0 {
		return 0, redisErr("ERR wrong number of arguments for 'lpush' command")
	}
	var n int
	err := e.keys.Mutate(key, storage.TypeList, func(ent *storage.Entity) error {
		head := encodeAll(values)
		slices.Reverse(head)
		ent.List = append(head, ent.List...)
		n = len(ent.List)
		return nil
	})
	return int64(n), err
}

// RPush appends values and returns the new length
func (e *Engine) RPush(key string, values ...any) (int64, error) {
	if len(values) == 0 {
		return 0, redisErr("ERR wrong number of arguments for 'rpush' command")
	}
	var n int
	err := e.keys.Mutate(key, storage.TypeList, func(ent *storage.Entity) error {
		ent.List = append(ent.List, encodeAll(values)...)
		n = len(ent.List)
		return nil
	})
	return int64(n), err
}

func (e *Engine) LPop(key string) (string, bool, error) {
	return e.pop(key, true)
}

func (e *Engine) RPop(key string) (string, bool, error) {
	return e.pop(key, false)
}

func (e *Engine) pop(key string, head bool) (string, bool, error) {
	var (
		val string
		ok  bool
	)
	err := e.keys.Mutate(key, storage.TypeList, func(ent *storage.Entity) error {
		if len(ent.List) == 0 {
			return nil
		}
		ok = true
		if head {
			val, ent.List = ent.List[0], ent.List[1:]
		} else {
			last := len(ent.List) - 1
			val, ent.List = ent.List[last], ent.List[:last]
		}
		return nil
	})
	return val, ok, err
}

// LRange returns the elements in the inclusive index window [start, stop]
func (e *Engine) LRange(key string, start, stop int64) ([]string, error) {
	l, err := e.list(key)
	if err != nil {
		return nil, err
	}
	lo, hi := span.Resolve(len(l), int(start), int(stop))
	if span.Empty(lo, hi) {
		return []string{}, nil
	}
	return slices.Clone(l[lo : hi+1]), nil
}

// LIndex returns the element at index. Negative indexes count from the tail
func (e *Engine) LIndex(key string, index int64) (string, bool, error) {
	l, err := e.list(key)
	if err != nil {
		return "", false, err
	}
	i := int(index)
	if i < 0 {
		i += len(l)
	}
	if i < 0 || i >= len(l) {
		return "", false, nil
	}
	return l[i], true, nil
}

func (e *Engine) LLen(key string) (int64, error) {
	l, err := e.list(key)
	return int64(len(l)), err
}

// LRem removes elements equal to value: all of them for count 0, the first
// count from the head for count > 0, the last |count| from the tail for count < 0.
func (e *Engine) LRem(key string, count int64, value any) (int64, error) {
	target := encode(value)
	var removed int64
	err := e.keys.Mutate(key, storage.TypeList, func(ent *storage.Entity) error {
		l := ent.List
		if count < 0 {
			slices.Reverse(l)
		}
		limit := count
		if limit < 0 {
			limit = -limit
		}

		kept := l[:0]
		for _, v := range l {
			if v == target && (limit == 0 || removed < limit) {
				removed++
				continue
			}
			kept = append(kept, v)
		}

		if count < 0 {
			slices.Reverse(kept)
		}
		ent.List = kept
		return nil
	})
	return removed, err
}

// LTrim keeps only the inclusive index window [start, stop]
func (e *Engine) LTrim(key string, start, stop int64) error {
	if !e.keys.Exists(key) {
		return nil
	}
	return e.keys.Mutate(key, storage.TypeList, func(ent *storage.Entity) error {
		lo, hi := span.Resolve(len(ent.List), int(start), int(stop))
		if span.Empty(lo, hi) {
			ent.List = ent.List[:0]
			return nil
		}
		ent.List = slices.Clone(ent.List[lo : hi+1])
		return nil
	})
}

// LSet replaces the element at index
func (e *Engine) LSet(key string, index int64, value any) error {
	ent, err := e.keys.Lookup(key, storage.TypeList)
	if err != nil {
		return err
	}
	if ent == nil {
		return responseErr("ERR no such key")
	}
	i := int(index)
	if i < 0 {
		i += len(ent.List)
	}
	if i < 0 || i >= len(ent.List) {
		return responseErr("ERR index out of range")
	}
	ent.List[i] = encode(value)
	return nil
}

// RPopLPush moves the tail of src to the head of dst
func (e *Engine) RPopLPush(src, dst string) (string, bool, error) {
	if _, err := e.keys.Lookup(dst, storage.TypeList); err != nil {
		return "", false, err
	}
	val, ok, err := e.RPop(src)
	if err != nil || !ok {
		return "", false, err
	}
	if _, err = e.LPush(dst, val); err != nil {
		return "", false, err
	}
	return val, true, nil
}

// BLPop pops the head of the first non-empty list among keys, retrying
// until timeout. A zero timeout uses the engine default. It returns
// [key, value], or nil when the timeout elapses.
func (e *Engine) BLPop(timeout time.Duration, keys ...string) ([]string, error) {
	return e.blockingPop(timeout, keys, true)
}

// BRPop is BLPop popping from the tail
func (e *Engine) BRPop(timeout time.Duration, keys ...string) ([]string, error) {
	return e.blockingPop(timeout, keys, false)
}

func (e *Engine) blockingPop(timeout time.Duration, keys []string, head bool) ([]string, error) {
	var res []string
	err := e.poll(timeout, func() (bool, error) {
		var err error
		res, err = e.popFirst(keys, head)
		return res != nil, err
	})
	return res, err
}

// popFirst pops from the first non-empty list among keys and returns the key
// and value, or nil when every list is empty.
func (e *Engine) popFirst(keys []string, head bool) ([]string, error) {
	for _, k := range keys {
		val, ok, err := e.pop(k, head)
		if err != nil {
			return nil, err
		}
		if ok {
			return []string{k, val}, nil
		}
	}
	return nil, nil
}

// BRPopLPush is RPopLPush retried until timeout
func (e *Engine) BRPopLPush(src, dst string, timeout time.Duration) (string, bool, error) {
	var (
		val string
		ok  bool
	)
	err := e.poll(timeout, func() (bool, error) {
		var err error
		val, ok, err = e.RPopLPush(src, dst)
		return ok, err
	})
	return val, ok, err
}

// poll runs attempt under the dispatch lock until it reports success, fails,
// or timeout elapses, sleeping the poll interval between attempts.
func (e *Engine) poll(timeout time.Duration, attempt func() (bool, error)) error {
	if timeout < 0 {
		return invalidArg("ERR timeout is negative")
	}
	if timeout == 0 {
		timeout = e.blockingTimeout
	}

	deadline := time.Now().Add(timeout)
	for {
		e.mu.Lock()
		done, err := attempt()
		e.mu.Unlock()

		if err != nil || done {
			return err
		}
		if !time.Now().Before(deadline) {
			return nil
		}
		time.Sleep(e.blockingPollInterval)
	}
}
