package moonmock

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/eternalApril/moonmock/internal/glob"
	"github.com/eternalApril/moonmock/internal/storage"
)

// Type returns the type name of key, "none" when absent
func (e *Engine) Type(key string) string {
	return e.keys.Type(key).String()
}

// Keys returns the keys matching a glob pattern in lexicographic order
func (e *Engine) Keys(pattern string) ([]string, error) {
	all := e.keys.Keys()
	if pattern == "*" {
		return all, nil
	}

	re, err := glob.Compile(pattern)
	if err != nil {
		return nil, invalidArg("ERR invalid pattern: " + err.Error())
	}

	out := make([]string, 0, len(all))
	for _, k := range all {
		if re.MatchString(k) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (e *Engine) Exists(key string) bool {
	return e.keys.Exists(key)
}

// Delete removes keys and returns how many existed
func (e *Engine) Delete(keys ...string) int64 {
	return int64(e.keys.Delete(keys...))
}

// Rename moves src to dst, overwriting dst
func (e *Engine) Rename(src, dst string) error {
	_, err := e.rename(src, dst, false)
	return err
}

// RenameNX moves src to dst only if dst does not exist
func (e *Engine) RenameNX(src, dst string) (bool, error) {
	return e.rename(src, dst, true)
}

func (e *Engine) rename(src, dst string, nx bool) (bool, error) {
	ok, err := e.keys.Rename(src, dst, nx)
	if errors.Is(err, storage.ErrNoSuchKey) {
		return false, responseErr("ERR no such key")
	}
	return ok, err
}

func (e *Engine) DBSize() int64 {
	return int64(e.keys.Len())
}

// FlushDB removes every key and the published message log
func (e *Engine) FlushDB() {
	e.keys.Flush()
	clear(e.channels)
}

// Expire sets a relative time to live on key. A negative duration is rejected
func (e *Engine) Expire(key string, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		return false, responseErr("ERR invalid expire time in 'expire' command")
	}
	return e.keys.Expire(key, e.keys.Now().Add(ttl)), nil
}

// ExpireAt sets an absolute deadline on key
func (e *Engine) ExpireAt(key string, at time.Time) bool {
	return e.keys.Expire(key, at)
}

// TTL returns the remaining lifetime in whole seconds, -2 when key is absent
// and -1 when it has no deadline.
func (e *Engine) TTL(key string) int64 {
	d, st := e.keys.Expiry(key)
	if st != storage.ExpActive {
		return int64(st)
	}
	return int64(d / time.Second)
}

// PTTL is TTL in milliseconds
func (e *Engine) PTTL(key string) int64 {
	d, st := e.keys.Expiry(key)
	if st != storage.ExpActive {
		return int64(st)
	}
	return d.Milliseconds()
}

// Persist removes the deadline of key
func (e *Engine) Persist(key string) bool {
	return e.keys.Persist(key)
}

// DoExpire removes every key whose deadline has passed and returns how many were removed
func (e *Engine) DoExpire() int64 {
	n := e.keys.DeleteExpired()
	if n > 0 {
		e.logger.Debug("expired keys swept", zap.Int("count", n))
	}
	e.metrics.AddExpired(n)
	return int64(n)
}
