package moonmock

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/eternalApril/moonmock/internal/metrics"
	"github.com/eternalApril/moonmock/internal/storage"
)

const (
	DefaultBlockingTimeout      = time.Second
	DefaultBlockingPollInterval = 10 * time.Millisecond
)

// Clock supplies the current time for TTL bookkeeping
type Clock = storage.Clock

// Options configures an Engine. The zero value is usable.
type Options struct {
	// Strict selects server argument order for ZADD (score, member).
	// Otherwise ZAddArgs takes the legacy (member, score) order.
	Strict bool

	// LazyExpire drops expired keys on access in addition to DoExpire sweeps
	LazyExpire bool

	BlockingTimeout      time.Duration // used when a blocking pop is given a zero timeout
	BlockingPollInterval time.Duration // sleep between blocking pop attempts

	Clock  Clock
	Logger *zap.Logger

	// Registerer receives the engine metrics when set
	Registerer       prometheus.Registerer
	MetricsNamespace string

	// Scripts executes EVAL/EVALSHA bodies
	Scripts ScriptRunner
}

// Engine is an in-memory Redis-like data-structure store.
//
// Call is safe for concurrent use. The typed methods are not: callers sharing
// an Engine across goroutines without Call must serialize access themselves.
type Engine struct {
	mu       sync.Mutex // guards Call dispatch
	scriptMu sync.Mutex // serializes script runs

	keys *storage.Keyspace

	strict               bool
	blockingTimeout      time.Duration
	blockingPollInterval time.Duration

	commands map[string]command
	channels map[string][]string
	params   map[string]string
	scripts  map[string]string
	runner   ScriptRunner

	logger  *zap.Logger
	metrics *metrics.Collector
}

// New creates an empty engine
func New(opts Options) (*Engine, error) {
	e := &Engine{
		keys:                 storage.NewKeyspace(opts.Clock, opts.LazyExpire),
		strict:               opts.Strict,
		blockingTimeout:      opts.BlockingTimeout,
		blockingPollInterval: opts.BlockingPollInterval,
		commands:             make(map[string]command),
		channels:             make(map[string][]string),
		params:               make(map[string]string),
		scripts:              make(map[string]string),
		runner:               opts.Scripts,
		logger:               opts.Logger,
	}

	if e.blockingTimeout <= 0 {
		e.blockingTimeout = DefaultBlockingTimeout
	}
	if e.blockingPollInterval <= 0 {
		e.blockingPollInterval = DefaultBlockingPollInterval
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}

	if opts.Registerer != nil {
		ns := opts.MetricsNamespace
		if ns == "" {
			ns = "moonmock"
		}
		e.metrics = metrics.NewCollector(ns)
		if err := e.metrics.Register(opts.Registerer); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	e.registerCommands()

	return e, nil
}

// Strict reports whether the engine uses server argument order for ZADD
func (e *Engine) Strict() bool {
	return e.strict
}

// Call dispatches a command by name, the way a script bridge or a
// line-oriented shell would issue it.
//
// Names are case-insensitive and DEL is accepted for DELETE. Arguments follow
// server order: ZADD takes score/member pairs regardless of Strict, and the
// ZRANGEBYSCORE family accepts a LIMIT offset count / WITHSCORES tail.
// WITHSCORES replies are flattened to member, score, member, score...
func (e *Engine) Call(name string, args ...any) (any, error) {
	return e.call(name, args, false)
}

// callLocked is Call for a caller that already holds the dispatch lock
func (e *Engine) callLocked(name string, args ...any) (any, error) {
	return e.call(name, args, true)
}

func (e *Engine) call(name string, args []any, locked bool) (any, error) {
	name = normalizeCommandName(name)

	cmd, ok := e.commands[name]
	if !ok {
		return nil, redisErr(fmt.Sprintf("ERR unknown command '%s'", name))
	}
	if !cmd.acceptsArgs(len(args)) {
		return nil, redisErr(fmt.Sprintf("ERR wrong number of arguments for '%s' command", name))
	}

	args = e.normalizeCommandArgs(name, args)

	if e.logger.Core().Enabled(zap.DebugLevel) {
		e.logger.Debug("executing command",
			zap.String("cmd", name),
			zap.Int("args_count", len(args)),
			zap.Bool("in_transaction", locked),
		)
	}

	start := time.Now()
	res, err := e.dispatch(cmd, args, locked)
	e.metrics.ObserveCommand(name, time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return normalizeCommandResponse(name, res), nil
}

func (e *Engine) dispatch(cmd command, args []any, locked bool) (any, error) {
	fn := cmd.fn
	switch {
	case locked && cmd.txFn != nil:
		fn = cmd.txFn
	case !locked && cmd.flags&flagNoLock == 0:
		e.mu.Lock()
		defer e.mu.Unlock()
	}
	res, err := fn(e, args)
	if cmd.flags&flagWrite != 0 && e.metrics != nil {
		if !locked && cmd.flags&flagNoLock != 0 {
			e.mu.Lock()
			defer e.mu.Unlock()
		}
		e.metrics.SetKeys(e.keys.Len())
	}
	return res, err
}

// normalizeCommandName maps a command name to its registry name
func normalizeCommandName(name string) string {
	name = strings.ToLower(name)
	if name == "del" {
		return "delete"
	}
	return name
}

// normalizeCommandArgs rewrites server-order arguments into the forms the
// typed handlers expect.
func (e *Engine) normalizeCommandArgs(name string, args []any) []any {
	switch name {
	case "zadd":
		if e.strict || len(args) < 3 {
			return args
		}
		// score, member pairs -> member, score pairs
		out := make([]any, 1, len(args))
		out[0] = args[0]
		for i := 1; i+1 < len(args); i += 2 {
			out = append(out, args[i+1], args[i])
		}
		if len(args)%2 == 0 {
			out = append(out, args[len(args)-1])
		}
		return out

	case "zrangebyscore", "zrevrangebyscore":
		if len(args) <= 3 {
			return args
		}
		var start, num any
		withScores := false
		for i := 3; i < len(args); i++ {
			switch {
			case keyword(args[i], "limit") && i+2 < len(args):
				start, num = args[i+1], args[i+2]
			case keyword(args[i], "withscores"):
				withScores = true
			}
		}
		return []any{args[0], args[1], args[2], start, num, withScores}
	}
	return args
}

// normalizeCommandResponse flattens scored replies into member, score sequences
func normalizeCommandResponse(name string, res any) any {
	switch name {
	case "zrange", "zrevrange", "zrangebyscore", "zrevrangebyscore":
		return flattenScored(res)
	}
	return res
}
