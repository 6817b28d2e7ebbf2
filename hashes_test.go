package moonmock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashes_Basic(t *testing.T) {
	e, _ := newTestEngine(t)

	n, err := e.HSet("h", "name", "moon")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = e.HSet("h", "name", "light")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	v, ok, err := e.HGet("h", "name")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "light", v)

	ok, err = e.HSetNX("h", "name", "x")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, e.HMSet("h", map[string]any{"a": 1, "b": 2}))

	vals, err := e.HMGet("h", "a", "missing", "b")
	require.NoError(t, err)
	assert.Equal(t, []any{"1", nil, "2"}, vals)

	l, err := e.HLen("h")
	require.NoError(t, err)
	assert.Equal(t, int64(3), l)

	keys, err := e.HKeys("h")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "name"}, keys)

	values, err := e.HVals("h")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "light"}, values)

	all, err := e.HGetAll("h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "name": "light"}, all)

	assert.ErrorIs(t, e.HMSet("h", nil), ErrRedis)
}

func TestHashes_DeleteRemovesEmpty(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.HMSet("h", map[string]any{"a": 1, "b": 2}))

	n, err := e.HDel("h", "a", "zzz")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err := e.HExists("h", "a")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = e.HDel("h", "b")
	require.NoError(t, err)
	assert.False(t, e.Exists("h"))
}

func TestHashes_Increments(t *testing.T) {
	e, _ := newTestEngine(t)

	n, err := e.HIncrBy("h", "c", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	n, err = e.HIncrBy("h", "c", -7)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), n)

	f, err := e.HIncrByFloat("h", "f", 1.25)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, f, 1e-9)

	_, err = e.HSet("h", "s", "abc")
	require.NoError(t, err)
	_, err = e.HIncrBy("h", "s", 1)
	assert.ErrorIs(t, err, ErrResponse)
}

func TestHashes_Call(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.Call("HMSET", "h", "a", 1, "b", 2)
	require.NoError(t, err)
	assert.Equal(t, true, res)

	res, err = e.Call("HGETALL", "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, res)

	res, err = e.Call("HINCRBYFLOAT", "h", "a", "0.5")
	require.NoError(t, err)
	assert.Equal(t, 1.5, res)

	_, err = e.Call("HMSET", "h", "a", 1, "b")
	assert.ErrorIs(t, err, ErrRedis)
}
