package moonmock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSets_Basic(t *testing.T) {
	e, _ := newTestEngine(t)

	n, err := e.SAdd("s", "a", "b", "a", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	members, err := e.SMembers("s")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "a", "b"}, members)

	ok, err := e.SIsMember("s", 1)
	require.NoError(t, err)
	assert.True(t, ok)

	card, err := e.SCard("s")
	require.NoError(t, err)
	assert.Equal(t, int64(3), card)

	n, err = e.SRem("s", "a", "zzz")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = e.SAdd("s")
	assert.ErrorIs(t, err, ErrRedis)
}

func TestSets_MoveAndPop(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.SAdd("src", "a", "b")
	require.NoError(t, err)

	ok, err := e.SMove("src", "dst", "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.SMove("src", "dst", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	m, ok, err := e.SPop("src")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", m)
	assert.False(t, e.Exists("src"))

	_, ok, err = e.SPop("src")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSets_RandMember(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.SAdd("s", "a", "b", "c")
	require.NoError(t, err)

	m, ok, err := e.SRandMember("s")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, []string{"a", "b", "c"}, m)

	got, err := e.SRandMemberN("s", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NotEqual(t, got[0], got[1])

	got, err = e.SRandMemberN("s", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, got)

	got, err = e.SRandMemberN("s", -5)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	card, _ := e.SCard("s")
	assert.Equal(t, int64(3), card, "SRANDMEMBER never removes")
}

func TestSets_Algebra(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.SAdd("a", "1", "2", "3")
	require.NoError(t, err)
	_, err = e.SAdd("b", "2", "3", "4")
	require.NoError(t, err)

	tests := []struct {
		name string
		fn   func(keys ...string) ([]string, error)
		keys []string
		want []string
	}{
		{"diff", e.SDiff, []string{"a", "b"}, []string{"1"}},
		{"inter", e.SInter, []string{"a", "b"}, []string{"2", "3"}},
		{"union", e.SUnion, []string{"a", "b"}, []string{"1", "2", "3", "4"}},
		{"inter with missing", e.SInter, []string{"a", "missing"}, nil},
		{"diff of missing", e.SDiff, []string{"missing", "a"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.keys...)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = e.SUnion()
	assert.ErrorIs(t, err, ErrRedis)
}

func TestSets_Store(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.SAdd("a", "1", "2")
	require.NoError(t, err)
	_, err = e.SAdd("b", "2")
	require.NoError(t, err)
	_, err = e.Set("dest", "old")
	require.NoError(t, err)

	n, err := e.SInterStore("dest", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, "set", e.Type("dest"))

	n, err = e.SDiffStore("dest", "b", "a")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, e.Exists("dest"))

	res, err := e.Call("SUNIONSTORE", "dest", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res)
}
