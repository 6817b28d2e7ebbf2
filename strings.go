package moonmock

import (
	"strconv"
	"time"

	"github.com/eternalApril/moonmock/internal/storage"
)

type setOptions struct {
	nx, xx bool
	ex, px time.Duration
	hasEX  bool
	hasPX  bool
}

// SetOption modifies a Set call
type SetOption func(*setOptions)

// NX only sets the key if it does not exist
func NX() SetOption { return func(o *setOptions) { o.nx = true } }

// XX only sets the key if it already exists
func XX() SetOption { return func(o *setOptions) { o.xx = true } }

// EX sets a time to live with second granularity
func EX(seconds int64) SetOption {
	return func(o *setOptions) { o.ex, o.hasEX = time.Duration(seconds)*time.Second, true }
}

// PX sets a time to live with millisecond granularity. It wins over EX
func PX(ms int64) SetOption {
	return func(o *setOptions) { o.px, o.hasPX = time.Duration(ms)*time.Millisecond, true }
}

// Get returns the string under key
func (e *Engine) Get(key string) (string, bool, error) {
	ent, err := e.keys.Lookup(key, storage.TypeString)
	if err != nil || ent == nil {
		return "", false, err
	}
	return ent.Str, true, nil
}

// Set stores value under key, dropping any previous deadline.
// It reports false when an NX/XX condition prevented the write; passing both
// NX and XX never writes. A non-positive expiry is rejected before the
// conditions are checked.
func (e *Engine) Set(key string, value any, opts ...SetOption) (bool, error) {
	var o setOptions
	for _, opt := range opts {
		opt(&o)
	}

	var ttl time.Duration
	hasTTL := o.hasEX || o.hasPX
	switch {
	case o.hasPX:
		ttl = o.px
	case o.hasEX:
		ttl = o.ex
	}
	if hasTTL && ttl <= 0 {
		return false, newError("ERR invalid expire time in 'set' command", ErrInvalidArgument, ErrResponse)
	}

	if o.nx && o.xx {
		return false, nil
	}
	exists := e.keys.Exists(key)
	if (o.nx && exists) || (o.xx && !exists) {
		return false, nil
	}

	e.keys.Set(key, storage.NewString(encode(value)))
	if hasTTL {
		e.keys.Expire(key, e.keys.Now().Add(ttl))
	}
	return true, nil
}

// GetSet stores value and returns the previous string
func (e *Engine) GetSet(key string, value any) (string, bool, error) {
	old, ok, err := e.Get(key)
	if err != nil {
		return "", false, err
	}
	e.keys.Set(key, storage.NewString(encode(value)))
	return old, ok, nil
}

// MGet returns the string under each key, nil for absent keys and keys of other types
func (e *Engine) MGet(keys ...string) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		if v, ok, err := e.Get(k); ok && err == nil {
			out[i] = v
		}
	}
	return out
}

// MSet stores every pair. An empty mapping is rejected
func (e *Engine) MSet(pairs map[string]any) error {
	if len(pairs) == 0 {
		return redisErr("ERR MSET requires at least one key/value pair")
	}
	for k, v := range pairs {
		e.keys.Set(k, storage.NewString(encode(v)))
	}
	return nil
}

// MSetNX stores every pair only if none of the keys exist
func (e *Engine) MSetNX(pairs map[string]any) (bool, error) {
	if len(pairs) == 0 {
		return false, redisErr("ERR MSETNX requires at least one key/value pair")
	}
	for k := range pairs {
		if e.keys.Exists(k) {
			return false, nil
		}
	}
	return true, e.MSet(pairs)
}

func (e *Engine) SetNX(key string, value any) (bool, error) {
	return e.Set(key, value, NX())
}

// SetEX stores value with a time to live in seconds
func (e *Engine) SetEX(key string, seconds int64, value any) error {
	if seconds <= 0 {
		return newError("ERR invalid expire time in 'setex' command", ErrInvalidArgument, ErrResponse)
	}
	_, err := e.Set(key, value, EX(seconds))
	return err
}

// PSetEX stores value with a time to live in milliseconds
func (e *Engine) PSetEX(key string, ms int64, value any) error {
	if ms <= 0 {
		return newError("ERR invalid expire time in 'psetex' command", ErrInvalidArgument, ErrResponse)
	}
	_, err := e.Set(key, value, PX(ms))
	return err
}

func (e *Engine) Incr(key string) (int64, error) { return e.IncrBy(key, 1) }

func (e *Engine) Decr(key string) (int64, error) { return e.IncrBy(key, -1) }

func (e *Engine) DecrBy(key string, n int64) (int64, error) { return e.IncrBy(key, -n) }

// IncrBy adds n to the integer under key, treating an absent key as 0.
// The deadline of an existing key is kept.
func (e *Engine) IncrBy(key string, n int64) (int64, error) {
	ent, err := e.keys.Lookup(key, storage.TypeString)
	if err != nil {
		return 0, err
	}

	var cur int64
	if ent != nil {
		cur, err = strconv.ParseInt(ent.Str, 10, 64)
		if err != nil {
			return 0, errNotInteger
		}
	}

	next := cur + n
	if (n > 0 && next < cur) || (n < 0 && next > cur) {
		return 0, responseErr("ERR increment or decrement would overflow")
	}

	if ent != nil {
		ent.Str = strconv.FormatInt(next, 10)
	} else {
		e.keys.Set(key, storage.NewString(strconv.FormatInt(next, 10)))
	}
	return next, nil
}

// GetBit returns the bit at offset, counting from the most significant bit of the first byte
func (e *Engine) GetBit(key string, offset int64) (int64, error) {
	if offset < 0 {
		return 0, errNotInteger
	}
	ent, err := e.keys.Lookup(key, storage.TypeString)
	if err != nil || ent == nil {
		return 0, err
	}

	idx, mask := offset/8, byte(0x80>>(offset%8))
	if idx >= int64(len(ent.Str)) {
		return 0, nil
	}
	if ent.Str[idx]&mask != 0 {
		return 1, nil
	}
	return 0, nil
}

// SetBit sets or clears the bit at offset, growing the string with zero bytes,
// and returns the previous bit.
func (e *Engine) SetBit(key string, offset int64, value int) (int64, error) {
	if offset < 0 {
		return 0, errNotInteger
	}
	if value != 0 && value != 1 {
		return 0, newError("ERR bit is not an integer or out of range", ErrInvalidArgument, ErrResponse)
	}

	ent, err := e.keys.Lookup(key, storage.TypeString)
	if err != nil {
		return 0, err
	}

	var bits []byte
	if ent != nil {
		bits = []byte(ent.Str)
	}

	idx, mask := offset/8, byte(0x80>>(offset%8))
	if idx >= int64(len(bits)) {
		bits = append(bits, make([]byte, idx+1-int64(len(bits)))...)
	}

	var prev int64
	if bits[idx]&mask != 0 {
		prev = 1
	}
	if value == 1 {
		bits[idx] |= mask
	} else {
		bits[idx] &^= mask
	}

	if ent != nil {
		ent.Str = string(bits)
	} else {
		e.keys.Set(key, storage.NewString(string(bits)))
	}
	return prev, nil
}
