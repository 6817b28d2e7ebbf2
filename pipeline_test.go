package moonmock

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_BuffersUntilExec(t *testing.T) {
	e, _ := newTestEngine(t)
	p := e.Pipeline()

	res, err := p.Call("SET", "k", "v")
	require.NoError(t, err)
	assert.Same(t, p, res)

	_, err = p.Call("INCR", "n")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
	assert.False(t, e.Exists("k"), "nothing runs before Exec")

	out, err := p.Exec()
	require.NoError(t, err)
	assert.Equal(t, []any{true, int64(1)}, out)
	assert.Zero(t, p.Len())
	assert.True(t, e.Exists("k"))
}

func TestPipeline_ErrorsStayInPlace(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Set("s", "x")
	require.NoError(t, err)

	p := e.Pipeline()
	_, _ = p.Call("LPUSH", "s", "a")
	_, _ = p.Call("SET", "k", "v")

	out, err := p.Exec()
	require.ErrorIs(t, err, ErrWrongType)
	require.Len(t, out, 2)
	assert.ErrorIs(t, out[0].(error), ErrWrongType)
	assert.Equal(t, true, out[1])
	assert.True(t, e.Exists("k"), "later commands still run")
}

func TestPipeline_RejectsUnknownCommands(t *testing.T) {
	e, _ := newTestEngine(t)
	p := e.Pipeline()

	_, err := p.Call("NOPE")
	assert.ErrorIs(t, err, ErrRedis)

	_, err = p.Call("GET")
	assert.ErrorIs(t, err, ErrRedis)
	assert.Zero(t, p.Len())
}

func TestPipeline_WatchSucceeds(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Set("foo", "bar")
	require.NoError(t, err)

	p := e.Pipeline()
	require.NoError(t, p.Watch("foo"))

	// immediate mode while watching
	v, err := p.Call("GET", "foo")
	require.NoError(t, err)
	assert.Equal(t, "bar", v)

	require.NoError(t, p.Multi())
	_, err = p.Call("SET", "foo", "baz")
	require.NoError(t, err)

	out, err := p.Exec()
	require.NoError(t, err)
	assert.Equal(t, []any{true}, out)

	got, _, _ := e.Get("foo")
	assert.Equal(t, "baz", got)
}

func TestPipeline_OwnWritesWhileWatchingConflict(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Set("k", "v1")
	require.NoError(t, err)

	p := e.Pipeline()
	require.NoError(t, p.Watch("k"))
	_, err = p.Call("SET", "k", "changed-before-multi")
	require.NoError(t, err)

	require.NoError(t, p.Multi())
	_, err = p.Call("SET", "k", "v2")
	require.NoError(t, err)

	out, err := p.Exec()
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrWatch)

	got, _, _ := e.Get("k")
	assert.Equal(t, "changed-before-multi", got, "queued write must not run")
}

func TestPipeline_WatchKeepsFirstSnapshot(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Set("k", "v1")
	require.NoError(t, err)

	p := e.Pipeline()
	require.NoError(t, p.Watch("k"))
	_, err = e.Call("SET", "k", "v2")
	require.NoError(t, err)

	// watching again does not absorb the change
	require.NoError(t, p.Watch("k"))
	require.NoError(t, p.Multi())
	_, err = p.Exec()
	assert.ErrorIs(t, err, ErrWatch)
}

func TestPipeline_WatchConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	e, _ := newTestEngine(t, func(o *Options) { o.Registerer = reg })
	_, err := e.Set("foo", "bar")
	require.NoError(t, err)

	p := e.Pipeline()
	require.NoError(t, p.Watch("foo"))
	require.NoError(t, p.Multi())
	_, err = p.Call("SET", "foo", "mine")
	require.NoError(t, err)

	// another client writes in between
	_, err = e.Call("SET", "foo", "theirs")
	require.NoError(t, err)

	out, err := p.Exec()
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrWatch)
	assert.ErrorIs(t, err, redis.TxFailedErr)

	got, _, _ := e.Get("foo")
	assert.Equal(t, "theirs", got)

	expected := `
# HELP moonmock_watch_conflicts_total Transactions aborted because a watched key changed
# TYPE moonmock_watch_conflicts_total counter
moonmock_watch_conflicts_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "moonmock_watch_conflicts_total"))
}

func TestPipeline_ConflictBeforeOwnWriteIsKept(t *testing.T) {
	e, _ := newTestEngine(t)

	p := e.Pipeline()
	require.NoError(t, p.Watch("foo"))

	_, err := e.Call("SET", "foo", "theirs")
	require.NoError(t, err)

	// an immediate write through the pipeline must not hide the external one
	_, err = p.Call("SET", "foo", "mine")
	require.NoError(t, err)

	require.NoError(t, p.Multi())
	_, err = p.Exec()
	assert.ErrorIs(t, err, ErrWatch)
}

func TestPipeline_DeletedWatchedKeyConflicts(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Set("foo", "bar")
	require.NoError(t, err)

	p := e.Pipeline()
	require.NoError(t, p.Watch("foo", "absent"))
	require.NoError(t, p.Multi())

	e.Delete("foo")
	_, err = p.Exec()
	assert.ErrorIs(t, err, ErrWatch)
}

func TestPipeline_ExecHoldsDispatchLock(t *testing.T) {
	wrote := make(chan struct{})
	var duringScript bool

	var e *Engine
	runner := ScriptRunnerFunc(func(source string, keys, args []string, call CallFunc) (any, error) {
		go func() {
			_, _ = e.Call("SET", "k", "ext")
			close(wrote)
		}()
		select {
		case <-wrote:
			duringScript = true
		case <-time.After(20 * time.Millisecond):
		}
		return call("SET", "k", "script")
	})
	e, _ = newTestEngine(t, func(o *Options) { o.Scripts = runner })
	_, err := e.Set("k", "v1")
	require.NoError(t, err)

	p := e.Pipeline()
	require.NoError(t, p.Watch("k"))
	require.NoError(t, p.Multi())
	_, err = p.Call("EVAL", "x", 0)
	require.NoError(t, err)
	_, err = p.Call("SET", "k", "tx")
	require.NoError(t, err)

	out, err := p.Exec()
	require.NoError(t, err)
	assert.Equal(t, []any{true, true}, out)
	assert.False(t, duringScript, "external write ran inside the batch")

	<-wrote
	got, _, _ := e.Get("k")
	assert.Equal(t, "ext", got, "external write lands after the batch")
}

func TestPipeline_ExecBlockingPopsDoNotWait(t *testing.T) {
	e, _ := newTestEngine(t, func(o *Options) { o.BlockingTimeout = time.Hour })
	_, err := e.RPush("full", "a")
	require.NoError(t, err)

	p := e.Pipeline()
	require.NoError(t, p.Multi())
	_, _ = p.Call("BLPOP", "empty", 0)
	_, _ = p.Call("BRPOP", "empty", "full", 0)
	_, _ = p.Call("BRPOPLPUSH", "empty", "dst", 0)
	_, _ = p.Call("BLPOP", "empty", -1)

	out, err := p.Exec()
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Len(t, out, 4)
	assert.Nil(t, out[0])
	assert.Equal(t, []string{"full", "a"}, out[1])
	assert.Nil(t, out[2])
	assert.ErrorIs(t, out[3].(error), ErrInvalidArgument)
}

func TestPipeline_ExecRunsQueuedScripts(t *testing.T) {
	e, _ := newTestEngine(t, withRunner)

	p := e.Pipeline()
	require.NoError(t, p.Multi())
	_, _ = p.Call("EVAL", "SET", 1, "k", "v")
	_, _ = p.Call("EVALSHA", e.ScriptLoad("GET"), 1, "k")
	_, _ = p.Call("EVAL", "EVAL", 0, "GET", 0)

	out, err := p.Exec()
	require.ErrorIs(t, err, ErrResponse)
	require.Len(t, out, 3)
	assert.Equal(t, true, out[0])
	assert.Equal(t, "v", out[1])
	assert.Contains(t, out[2].(error).Error(), "not allowed from script")
}

func TestPipeline_StateErrors(t *testing.T) {
	e, _ := newTestEngine(t)

	t.Run("watch after multi", func(t *testing.T) {
		p := e.Pipeline()
		require.NoError(t, p.Multi())
		assert.ErrorIs(t, p.Watch("k"), ErrRedis)
	})

	t.Run("nested multi", func(t *testing.T) {
		p := e.Pipeline()
		require.NoError(t, p.Multi())
		assert.ErrorIs(t, p.Multi(), ErrRedis)
	})

	t.Run("multi after buffered commands", func(t *testing.T) {
		p := e.Pipeline()
		_, err := p.Call("SET", "k", "v")
		require.NoError(t, err)
		assert.ErrorIs(t, p.Multi(), ErrRedis)
	})

	t.Run("watch after buffered commands", func(t *testing.T) {
		p := e.Pipeline()
		_, err := p.Call("SET", "k", "v")
		require.NoError(t, err)
		assert.ErrorIs(t, p.Watch("k"), ErrRedis)
	})
}

func TestPipeline_CallRoutesTransactionCommands(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Set("k", "1")
	require.NoError(t, err)

	p := e.Pipeline()
	res, err := p.Call("WATCH", "k")
	require.NoError(t, err)
	assert.Equal(t, true, res)

	_, err = p.Call("multi")
	require.NoError(t, err)
	_, err = p.Call("INCR", "k")
	require.NoError(t, err)

	res, err = p.Call("EXEC")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2)}, res)

	_, err = p.Call("SET", "x", "y")
	require.NoError(t, err)
	_, err = p.Call("DISCARD")
	require.NoError(t, err)
	assert.Zero(t, p.Len())
}

func TestPipeline_Unwatch(t *testing.T) {
	e, _ := newTestEngine(t)

	p := e.Pipeline()
	require.NoError(t, p.Watch("foo"))
	_, err := e.Call("SET", "foo", "changed")
	require.NoError(t, err)

	p.Unwatch()
	_, err = p.Call("GET", "foo")
	require.NoError(t, err)

	out, err := p.Exec()
	require.NoError(t, err)
	assert.Equal(t, []any{"changed"}, out)
}

func TestTransaction_RetriesOnConflict(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Set("counter", 0)
	require.NoError(t, err)

	attempts := 0
	out, err := e.Transaction(context.Background(), func(p *Pipeline) error {
		attempts++
		v, err := p.Call("GET", "counter")
		if err != nil {
			return err
		}
		if attempts == 1 {
			// simulate a concurrent writer
			if _, err = e.Call("INCR", "counter"); err != nil {
				return err
			}
		}
		n, err := toInt(v)
		if err != nil {
			return err
		}
		if err = p.Multi(); err != nil {
			return err
		}
		_, err = p.Call("SET", "counter", n+10)
		return err
	}, time.Millisecond, "counter")

	require.NoError(t, err)
	assert.Equal(t, []any{true}, out)
	assert.Equal(t, 2, attempts)

	got, _, _ := e.Get("counter")
	assert.Equal(t, "11", got)
}

func TestTransaction_StopsOnCallbackErrorAndContext(t *testing.T) {
	e, _ := newTestEngine(t)

	boom := errors.New("boom")
	_, err := e.Transaction(context.Background(), func(*Pipeline) error { return boom }, 0, "k")
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Transaction(ctx, func(*Pipeline) error { return nil }, 0, "k")
	assert.ErrorIs(t, err, context.Canceled)
}
