package moonmock

import (
	"crypto/sha1"
	"encoding/hex"

	"go.uber.org/zap"
)

// CallFunc is the only engine capability handed to a running script
type CallFunc func(name string, args ...any) (any, error)

// ScriptRunner executes script source on behalf of EVAL and EVALSHA.
// The engine embeds no interpreter; the runner owns marshaling between its
// runtime and the values returned by call.
type ScriptRunner interface {
	Run(source string, keys, args []string, call CallFunc) (any, error)
}

// ScriptRunnerFunc adapts a function to ScriptRunner
type ScriptRunnerFunc func(source string, keys, args []string, call CallFunc) (any, error)

func (f ScriptRunnerFunc) Run(source string, keys, args []string, call CallFunc) (any, error) {
	return f(source, keys, args, call)
}

// ScriptLoad registers source and returns its sha1 hex digest
func (e *Engine) ScriptLoad(source string) string {
	sum := sha1.Sum([]byte(source))
	sha := hex.EncodeToString(sum[:])
	e.scripts[sha] = source
	return sha
}

// ScriptExists reports for each sha whether a script is registered under it
func (e *Engine) ScriptExists(shas ...string) []bool {
	out := make([]bool, len(shas))
	for i, sha := range shas {
		_, out[i] = e.scripts[sha]
	}
	return out
}

func (e *Engine) ScriptFlush() {
	clear(e.scripts)
}

// Eval registers source and runs it
func (e *Engine) Eval(source string, keys []string, args ...any) (any, error) {
	e.mu.Lock()
	sha := e.ScriptLoad(source)
	e.mu.Unlock()
	return e.EvalSha(sha, keys, args...)
}

// EvalSha runs a registered script. Script runs are serialized with each
// other; every command a script issues goes through Call.
func (e *Engine) EvalSha(sha string, keys []string, args ...any) (any, error) {
	if e.runner == nil {
		return nil, redisErr("ERR scripting is not enabled")
	}

	e.mu.Lock()
	source, ok := e.scripts[sha]
	e.mu.Unlock()
	if !ok {
		return nil, errNoScript
	}

	e.scriptMu.Lock()
	defer e.scriptMu.Unlock()

	return e.runScript(sha, source, keys, args, e.Call)
}

// evalShaLocked runs a registered script queued in a transaction. The caller
// holds both e.scriptMu and e.mu, so the script's commands skip locking.
func (e *Engine) evalShaLocked(sha string, keys []string, args []any) (any, error) {
	if e.runner == nil {
		return nil, redisErr("ERR scripting is not enabled")
	}
	source, ok := e.scripts[sha]
	if !ok {
		return nil, errNoScript
	}
	return e.runScript(sha, source, keys, args, e.callLocked)
}

var errNoScript = redisErr("NOSCRIPT No matching script. Please use EVAL.")

func (e *Engine) runScript(sha, source string, keys []string, args []any, call CallFunc) (any, error) {
	guarded := func(name string, args ...any) (any, error) {
		if e.commands[normalizeCommandName(name)].group == "scripting" {
			return nil, redisErr("ERR This Redis command is not allowed from script")
		}
		return call(name, args...)
	}

	res, err := e.runner.Run(source, keys, encodeAll(args), guarded)
	if err != nil {
		e.logger.Debug("script failed", zap.String("sha", sha), zap.Error(err))
		return nil, newError(err.Error(), ErrResponse, err)
	}
	return res, nil
}
