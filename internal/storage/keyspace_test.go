package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestKeyspace(lazy bool) (*Keyspace, *ManualClock) {
	clock := NewManualClock(epoch)
	return NewKeyspace(clock, lazy), clock
}

func TestKeyspace_LookupTypes(t *testing.T) {
	k, _ := newTestKeyspace(false)
	k.Set("s", NewString("v"))

	e, err := k.Lookup("s", TypeString)
	require.NoError(t, err)
	assert.Equal(t, "v", e.Str)

	_, err = k.Lookup("s", TypeList)
	assert.ErrorIs(t, err, ErrWrongType)

	e, err = k.Lookup("missing", TypeList)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestKeyspace_MutateCreatesAndRemovesEmpty(t *testing.T) {
	k, _ := newTestKeyspace(false)

	err := k.Mutate("l", TypeList, func(e *Entity) error {
		e.List = append(e.List, "a")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, TypeList, k.Type("l"))

	err = k.Mutate("l", TypeList, func(e *Entity) error {
		e.List = e.List[:0]
		return nil
	})
	require.NoError(t, err)
	assert.False(t, k.Exists("l"))

	// a no-op mutation never materializes an empty collection
	require.NoError(t, k.Mutate("h", TypeHash, func(*Entity) error { return nil }))
	assert.False(t, k.Exists("h"))
}

func TestKeyspace_MutateError(t *testing.T) {
	k, _ := newTestKeyspace(false)
	boom := errors.New("boom")

	err := k.Mutate("s", TypeSet, func(e *Entity) error {
		e.Set["x"] = struct{}{}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, k.Exists("s"))

	k.Set("str", NewString("v"))
	err = k.Mutate("str", TypeSet, func(*Entity) error { return nil })
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestKeyspace_SetClearsTTL(t *testing.T) {
	k, _ := newTestKeyspace(false)
	k.Set("a", NewString("1"))
	require.True(t, k.Expire("a", epoch.Add(time.Minute)))

	_, st := k.Expiry("a")
	assert.Equal(t, ExpActive, st)

	k.Set("a", NewString("2"))
	_, st = k.Expiry("a")
	assert.Equal(t, ExpNoTimeout, st)

	k.Set("a", NewEntity(TypeList))
	assert.False(t, k.Exists("a"))
}

func TestKeyspace_Expiry(t *testing.T) {
	k, clock := newTestKeyspace(false)

	_, st := k.Expiry("missing")
	assert.Equal(t, ExpNotFound, st)
	assert.False(t, k.Expire("missing", epoch))

	k.Set("a", NewString("1"))
	require.True(t, k.Expire("a", epoch.Add(10*time.Second)))

	clock.Advance(4 * time.Second)
	ttl, st := k.Expiry("a")
	assert.Equal(t, ExpActive, st)
	assert.Equal(t, 6*time.Second, ttl)

	clock.Advance(time.Minute)
	ttl, st = k.Expiry("a")
	assert.Equal(t, ExpActive, st)
	assert.Zero(t, ttl)
	assert.True(t, k.Exists("a"), "expired keys remain until swept")

	assert.Equal(t, 1, k.DeleteExpired())
	assert.False(t, k.Exists("a"))
	assert.Equal(t, 0, k.DeleteExpired())
}

func TestKeyspace_LazyExpire(t *testing.T) {
	k, clock := newTestKeyspace(true)
	k.Set("a", NewString("1"))
	k.Set("b", NewString("2"))
	k.Expire("a", epoch.Add(time.Second))

	clock.Advance(time.Second)
	assert.False(t, k.Exists("a"))
	assert.Equal(t, []string{"b"}, k.Keys())
}

func TestKeyspace_Persist(t *testing.T) {
	k, _ := newTestKeyspace(false)
	k.Set("a", NewString("1"))

	assert.False(t, k.Persist("a"))
	k.Expire("a", epoch.Add(time.Second))
	assert.True(t, k.Persist("a"))

	_, st := k.Expiry("a")
	assert.Equal(t, ExpNoTimeout, st)
	assert.False(t, k.Persist("missing"))
}

func TestKeyspace_Rename(t *testing.T) {
	k, _ := newTestKeyspace(false)
	k.Set("a", NewString("1"))
	k.Expire("a", epoch.Add(time.Minute))
	k.Set("b", NewString("2"))

	_, err := k.Rename("missing", "x", false)
	assert.ErrorIs(t, err, ErrNoSuchKey)

	ok, err := k.Rename("a", "b", true)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = k.Rename("a", "c", false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, k.Exists("a"))

	ttl, st := k.Expiry("c")
	assert.Equal(t, ExpActive, st)
	assert.Equal(t, time.Minute, ttl)

	ok, err = k.Rename("c", "b", false)
	require.NoError(t, err)
	assert.True(t, ok)

	e, _ := k.Get("b")
	assert.Equal(t, "1", e.Str)
}

func TestKeyspace_KeysSortedAndDelete(t *testing.T) {
	k, _ := newTestKeyspace(false)
	for _, key := range []string{"c", "a", "b"} {
		k.Set(key, NewString(key))
	}

	assert.Equal(t, []string{"a", "b", "c"}, k.Keys())
	assert.Equal(t, 2, k.Delete("a", "c", "zz"))
	assert.Equal(t, 1, k.Len())

	k.Flush()
	assert.Equal(t, 0, k.Len())
}

func TestKeyspace_SnapshotIsDeepCopy(t *testing.T) {
	k, _ := newTestKeyspace(false)
	require.NoError(t, k.Mutate("h", TypeHash, func(e *Entity) error {
		e.Hash["f"] = "v"
		return nil
	}))

	snap := k.Snapshot("h")
	require.NoError(t, k.Mutate("h", TypeHash, func(e *Entity) error {
		e.Hash["f"] = "changed"
		return nil
	}))

	cur := k.Snapshot("h")
	assert.False(t, snap.Equal(cur))
	assert.Equal(t, "v", snap.Hash["f"])
	assert.Nil(t, k.Snapshot("missing"))
	assert.True(t, k.Snapshot("missing").Equal(nil))
}

func TestEntity_ZSetCloneEqual(t *testing.T) {
	e := NewEntity(TypeZSet)
	e.ZSet.Insert("m", 1)

	c := e.Clone()
	assert.True(t, e.Equal(c))

	c.ZSet.Insert("m", 2)
	assert.False(t, e.Equal(c))
}

func TestDataType_String(t *testing.T) {
	for typ, want := range map[DataType]string{
		TypeNone:   "none",
		TypeString: "string",
		TypeList:   "list",
		TypeSet:    "set",
		TypeHash:   "hash",
		TypeZSet:   "zset",
	} {
		assert.Equal(t, want, typ.String())
	}
}

func FuzzKeyspace(f *testing.F) {
	k := NewKeyspace(nil, false)

	f.Add("key1", "val1")
	f.Add("special", "!@#$%^&*()")

	f.Fuzz(func(t *testing.T, key string, val string) {
		k.Set(key, NewString(val))

		e, err := k.Lookup(key, TypeString)
		if err != nil || e == nil || e.Str != val {
			t.Errorf("Lookup failed after Set: key=%q, val=%q", key, val)
		}
	})
}

func BenchmarkKeyspace_Set(b *testing.B) {
	k := NewKeyspace(nil, false)
	keys := make([]string, 1024)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k.Set(keys[i%len(keys)], NewString("v"))
	}
}
