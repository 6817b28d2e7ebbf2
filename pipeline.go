package moonmock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eternalApril/moonmock/internal/storage"
)

type pipelineState int

const (
	// commands are buffered until Exec
	stateBuffering pipelineState = iota
	// commands run immediately; watched keys are compared at Exec
	stateWatching
	// after Multi: commands are buffered until Exec
	stateQueued
)

type queuedCommand struct {
	name string
	args []any
}

// Pipeline buffers commands and runs them on Exec, optionally guarded by
// WATCH. A Pipeline is not safe for concurrent use.
type Pipeline struct {
	e       *Engine
	state   pipelineState
	watched []string
	snaps   map[string]*storage.Entity
	queue   []queuedCommand
}

// Pipeline returns a new pipeline bound to the engine
func (e *Engine) Pipeline() *Pipeline {
	return &Pipeline{e: e, snaps: make(map[string]*storage.Entity)}
}

// Watch snapshots keys and switches the pipeline to immediate execution
// until Multi. It fails after Multi or once commands have been buffered.
// Watching a key twice keeps its first snapshot.
func (p *Pipeline) Watch(keys ...string) error {
	if p.state == stateQueued {
		return redisErr("ERR WATCH inside MULTI is not allowed")
	}
	if len(p.queue) > 0 {
		return redisErr("ERR cannot WATCH after commands have been buffered")
	}

	p.e.mu.Lock()
	for _, k := range keys {
		if _, ok := p.snaps[k]; ok {
			continue
		}
		p.watched = append(p.watched, k)
		p.snaps[k] = p.e.keys.Snapshot(k)
	}
	p.e.mu.Unlock()

	p.state = stateWatching
	return nil
}

// Unwatch forgets every watched key
func (p *Pipeline) Unwatch() {
	p.watched = nil
	clear(p.snaps)
	if p.state == stateWatching {
		p.state = stateBuffering
	}
}

// Multi starts an explicit transaction
func (p *Pipeline) Multi() error {
	if p.state == stateQueued {
		return redisErr("ERR MULTI calls can not be nested")
	}
	if len(p.queue) > 0 {
		return redisErr("ERR commands were buffered before MULTI")
	}
	p.state = stateQueued
	return nil
}

// Call runs the command immediately while watching, and buffers it otherwise,
// returning the pipeline itself in place of a result. Immediate writes to a
// watched key count as changes and make Exec fail.
//
// WATCH, UNWATCH, MULTI, EXEC and DISCARD are routed to the pipeline's own
// methods.
func (p *Pipeline) Call(name string, args ...any) (any, error) {
	switch normalizeCommandName(name) {
	case "watch":
		if len(args) == 0 {
			return nil, redisErr("ERR wrong number of arguments for 'watch' command")
		}
		return okReply(p.Watch(encodeAll(args)...))
	case "unwatch":
		p.Unwatch()
		return true, nil
	case "multi":
		return okReply(p.Multi())
	case "exec":
		return p.Exec()
	case "discard":
		p.Reset()
		return true, nil
	}

	if p.state == stateWatching {
		return p.e.Call(name, args...)
	}

	cmd, ok := p.e.commands[normalizeCommandName(name)]
	if !ok {
		return nil, redisErr(fmt.Sprintf("ERR unknown command '%s'", name))
	}
	if !cmd.acceptsArgs(len(args)) {
		return nil, redisErr(fmt.Sprintf("ERR wrong number of arguments for '%s' command", name))
	}

	p.queue = append(p.queue, queuedCommand{name: name, args: args})
	return p, nil
}

func okReply(err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return true, nil
}

// Len returns the number of buffered commands
func (p *Pipeline) Len() int {
	return len(p.queue)
}

// Exec runs the buffered commands in order and returns their results.
//
// If a watched key differs from its snapshot taken by Watch, nothing runs and
// ErrWatch is returned. A failing command leaves its error in the results
// slot and the first such error is returned alongside the results. The
// pipeline is reset in every case.
//
// The dispatch lock is held from the watch check through the last command,
// so no other Call interleaves with the batch. Blocking pops in the batch
// make a single attempt instead of waiting.
func (p *Pipeline) Exec() ([]any, error) {
	defer p.Reset()

	e := p.e
	if p.runsScripts() {
		e.scriptMu.Lock()
		defer e.scriptMu.Unlock()
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if p.conflict() {
		e.metrics.WatchConflict()
		e.logger.Debug("transaction aborted, watched key changed", zap.Strings("keys", p.watched))
		return nil, ErrWatch
	}

	results := make([]any, len(p.queue))
	var first error
	for i, q := range p.queue {
		res, err := e.callLocked(q.name, q.args...)
		if err != nil {
			results[i] = err
			if first == nil {
				first = err
			}
			continue
		}
		results[i] = res
	}
	return results, first
}

// Reset discards buffered commands and watches
func (p *Pipeline) Reset() {
	p.state = stateBuffering
	p.queue = nil
	p.watched = nil
	clear(p.snaps)
}

// conflict reports whether a watched key changed. Callers hold e.mu.
func (p *Pipeline) conflict() bool {
	for _, k := range p.watched {
		cur, _ := p.e.keys.Get(k)
		if !p.snaps[k].Equal(cur) {
			return true
		}
	}
	return false
}

func (p *Pipeline) runsScripts() bool {
	for _, q := range p.queue {
		if p.e.commands[normalizeCommandName(q.name)].group == "scripting" {
			return true
		}
	}
	return false
}

// Transaction runs fn inside a WATCH/MULTI/EXEC cycle on keys, retrying
// whenever a watched key changes. fn typically reads through the pipeline,
// calls Multi and buffers its writes. watchDelay is slept between retries.
func (e *Engine) Transaction(ctx context.Context, fn func(*Pipeline) error, watchDelay time.Duration, keys ...string) ([]any, error) {
	p := e.Pipeline()
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if len(keys) > 0 {
			if err := p.Watch(keys...); err != nil {
				return nil, err
			}
		}

		if err := fn(p); err != nil {
			p.Reset()
			return nil, err
		}

		res, err := p.Exec()
		if !errors.Is(err, ErrWatch) {
			return res, err
		}

		e.logger.Debug("retrying transaction", zap.Int("attempt", attempt), zap.Strings("keys", keys))
		if watchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(watchDelay):
			}
		}
	}
}

// Unwatch is a no-op outside a pipeline
func (e *Engine) Unwatch() bool {
	return true
}
