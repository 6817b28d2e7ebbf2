package storage

import (
	"errors"
	"slices"
	"time"
)

type ExpiryStatus int

const (
	// ExpNotFound means that the key does not exist
	ExpNotFound ExpiryStatus = -2
	// ExpNoTimeout means that the key exists, but it does not have a TTL
	ExpNoTimeout ExpiryStatus = -1
	// ExpActive means that the key has a lifetime
	ExpActive ExpiryStatus = 1
)

var ErrNoSuchKey = errors.New("no such key")

// Keyspace maps keys to typed entities and tracks per-key deadlines.
//
// Expired keys stay visible until DeleteExpired runs, unless lazy expiry is
// enabled, in which case every read drops them first.
// Keyspace is not safe for concurrent use; callers serialize access.
type Keyspace struct {
	data    map[string]*Entity
	expires map[string]time.Time
	clock   Clock
	lazy    bool
}

// NewKeyspace creates an empty keyspace. A nil clock uses the system clock
func NewKeyspace(clock Clock, lazy bool) *Keyspace {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Keyspace{
		data:    make(map[string]*Entity),
		expires: make(map[string]time.Time),
		clock:   clock,
		lazy:    lazy,
	}
}

func (k *Keyspace) Now() time.Time {
	return k.clock.Now()
}

// Get returns the entity stored under key
func (k *Keyspace) Get(key string) (*Entity, bool) {
	if k.lazy {
		k.expireIfDue(key)
	}
	e, ok := k.data[key]
	return e, ok
}

// Lookup returns the entity under key if it has type t, nil if the key is
// absent, or ErrWrongType.
func (k *Keyspace) Lookup(key string, t DataType) (*Entity, error) {
	e, ok := k.Get(key)
	if !ok {
		return nil, nil
	}
	if e.Type != t {
		return nil, ErrWrongType
	}
	return e, nil
}

// Mutate runs fn against the entity under key, creating an empty one of type
// t when the key is absent. A collection left empty by fn is removed.
func (k *Keyspace) Mutate(key string, t DataType, fn func(*Entity) error) error {
	e, err := k.Lookup(key, t)
	if err != nil {
		return err
	}

	created := e == nil
	if created {
		e = NewEntity(t)
	}

	if err = fn(e); err != nil {
		if !created && e.Empty() {
			k.Delete(key)
		}
		return err
	}

	switch {
	case e.Empty():
		if !created {
			k.Delete(key)
		}
	case created:
		k.data[key] = e
	}
	return nil
}

// Set stores e under key, replacing any previous value and clearing its TTL.
// Storing an empty collection deletes the key.
func (k *Keyspace) Set(key string, e *Entity) {
	delete(k.expires, key)
	if e.Empty() {
		delete(k.data, key)
		return
	}
	k.data[key] = e
}

// Delete removes keys and returns how many existed
func (k *Keyspace) Delete(keys ...string) int {
	n := 0
	for _, key := range keys {
		if k.lazy {
			k.expireIfDue(key)
		}
		if _, ok := k.data[key]; ok {
			delete(k.data, key)
			delete(k.expires, key)
			n++
		}
	}
	return n
}

func (k *Keyspace) Exists(key string) bool {
	_, ok := k.Get(key)
	return ok
}

// Type returns the type of key, TypeNone when absent
func (k *Keyspace) Type(key string) DataType {
	e, ok := k.Get(key)
	if !ok {
		return TypeNone
	}
	return e.Type
}

// Rename moves the value and deadline of src to dst. With nx it refuses to
// overwrite an existing dst and reports false.
func (k *Keyspace) Rename(src, dst string, nx bool) (bool, error) {
	e, ok := k.Get(src)
	if !ok {
		return false, ErrNoSuchKey
	}
	if nx && k.Exists(dst) {
		return false, nil
	}
	if src == dst {
		return true, nil
	}

	exp, hasExp := k.expires[src]
	delete(k.data, src)
	delete(k.expires, src)

	k.data[dst] = e
	if hasExp {
		k.expires[dst] = exp
	} else {
		delete(k.expires, dst)
	}
	return true, nil
}

// Keys returns every key in lexicographic order
func (k *Keyspace) Keys() []string {
	if k.lazy {
		k.DeleteExpired()
	}
	keys := make([]string, 0, len(k.data))
	for key := range k.data {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

func (k *Keyspace) Len() int {
	if k.lazy {
		k.DeleteExpired()
	}
	return len(k.data)
}

// Flush drops all keys and deadlines
func (k *Keyspace) Flush() {
	clear(k.data)
	clear(k.expires)
}

// Expire sets the deadline of key. Returns false if the key does not exist
func (k *Keyspace) Expire(key string, at time.Time) bool {
	if !k.Exists(key) {
		return false
	}
	k.expires[key] = at
	return true
}

// Expiry returns the remaining lifetime and status as ExpiryStatus.
// A key past its deadline that has not been swept yet reports zero.
func (k *Keyspace) Expiry(key string) (time.Duration, ExpiryStatus) {
	if !k.Exists(key) {
		return 0, ExpNotFound
	}
	exp, ok := k.expires[key]
	if !ok {
		return 0, ExpNoTimeout
	}
	return max(exp.Sub(k.clock.Now()), 0), ExpActive
}

// Persist removes the deadline of key, reporting whether one was removed
func (k *Keyspace) Persist(key string) bool {
	if !k.Exists(key) {
		return false
	}
	if _, ok := k.expires[key]; !ok {
		return false
	}
	delete(k.expires, key)
	return true
}

// DeleteExpired removes every key whose deadline is not after now and
// returns how many were removed.
func (k *Keyspace) DeleteExpired() int {
	now := k.clock.Now()
	n := 0
	for key, exp := range k.expires {
		if !exp.After(now) {
			delete(k.data, key)
			delete(k.expires, key)
			n++
		}
	}
	return n
}

// Snapshot returns a deep copy of the value under key, nil when absent
func (k *Keyspace) Snapshot(key string) *Entity {
	e, ok := k.Get(key)
	if !ok {
		return nil
	}
	return e.Clone()
}

func (k *Keyspace) expireIfDue(key string) {
	exp, ok := k.expires[key]
	if ok && !exp.After(k.clock.Now()) {
		delete(k.data, key)
		delete(k.expires, key)
	}
}
