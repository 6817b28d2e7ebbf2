package moonmock

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type commandFlag uint8

const (
	flagWrite commandFlag = 1 << iota
	flagReadonly
	// the handler takes the dispatch lock itself, or never needs it
	flagNoLock
)

type handler func(e *Engine, args []any) (any, error)

type command struct {
	arity int // Arity includes the command name itself; negative means "at least"
	flags commandFlag
	group string
	fn    handler
	// txFn replaces fn when the command runs inside Exec with the dispatch
	// lock already held
	txFn handler
}

func (c command) acceptsArgs(n int) bool {
	n++
	if c.arity < 0 {
		return n >= -c.arity
	}
	return n == c.arity
}

// register adds a new command to the engine. The command name is lowercase
func (e *Engine) register(name string, arity int, flags commandFlag, group string, fn handler) {
	e.commands[strings.ToLower(name)] = command{arity: arity, flags: flags, group: group, fn: fn}
}

// registerTx sets the handler a registered command runs inside Exec
func (e *Engine) registerTx(name string, fn handler) {
	c := e.commands[name]
	c.txFn = fn
	e.commands[name] = c
}

// Commands returns the registered command names grouped by data type
func (e *Engine) Commands() map[string][]string {
	out := make(map[string][]string)
	for name, c := range e.commands {
		out[c.group] = append(out[c.group], name)
	}
	for _, names := range out {
		slices.Sort(names)
	}
	return out
}

// registerCommands fills the registry with every supported command
func (e *Engine) registerCommands() {
	const (
		w  = flagWrite
		r  = flagReadonly
		nl = flagNoLock
	)

	// connection
	e.register("ping", -1, r, "connection", func(e *Engine, a []any) (any, error) {
		if len(a) > 0 {
			return e.Echo(a[0]), nil
		}
		return e.Ping(), nil
	})
	e.register("echo", 2, r, "connection", func(e *Engine, a []any) (any, error) {
		return e.Echo(a[0]), nil
	})

	// keys
	e.register("type", 2, r, "generic", func(e *Engine, a []any) (any, error) {
		return e.Type(encode(a[0])), nil
	})
	e.register("keys", 2, r, "generic", func(e *Engine, a []any) (any, error) {
		return e.Keys(encode(a[0]))
	})
	e.register("exists", 2, r, "generic", func(e *Engine, a []any) (any, error) {
		return e.Exists(encode(a[0])), nil
	})
	e.register("delete", -2, w, "generic", func(e *Engine, a []any) (any, error) {
		return e.Delete(encodeAll(a)...), nil
	})
	e.register("rename", 3, w, "generic", func(e *Engine, a []any) (any, error) {
		if err := e.Rename(encode(a[0]), encode(a[1])); err != nil {
			return nil, err
		}
		return true, nil
	})
	e.register("renamenx", 3, w, "generic", func(e *Engine, a []any) (any, error) {
		return e.RenameNX(encode(a[0]), encode(a[1]))
	})
	e.register("dbsize", 1, r, "generic", func(e *Engine, _ []any) (any, error) {
		return e.DBSize(), nil
	})
	e.register("flushdb", 1, w, "generic", func(e *Engine, _ []any) (any, error) {
		e.FlushDB()
		return true, nil
	})
	e.register("expire", 3, w, "generic", expireCmd(time.Second))
	e.register("pexpire", 3, w, "generic", expireCmd(time.Millisecond))
	e.register("expireat", 3, w, "generic", expireAtCmd(time.Second))
	e.register("pexpireat", 3, w, "generic", expireAtCmd(time.Millisecond))
	e.register("ttl", 2, r, "generic", func(e *Engine, a []any) (any, error) {
		return e.TTL(encode(a[0])), nil
	})
	e.register("pttl", 2, r, "generic", func(e *Engine, a []any) (any, error) {
		return e.PTTL(encode(a[0])), nil
	})
	e.register("persist", 2, w, "generic", func(e *Engine, a []any) (any, error) {
		return e.Persist(encode(a[0])), nil
	})
	e.register("do_expire", 1, w, "generic", func(e *Engine, _ []any) (any, error) {
		return e.DoExpire(), nil
	})

	// strings
	e.register("get", 2, r, "string", func(e *Engine, a []any) (any, error) {
		return optional(e.Get(encode(a[0])))
	})
	e.register("set", -3, w, "string", func(e *Engine, a []any) (any, error) {
		opts, err := parseSetOptions(a[2:])
		if err != nil {
			return nil, err
		}
		ok, err := e.Set(encode(a[0]), a[1], opts...)
		if err != nil || !ok {
			return nil, err
		}
		return true, nil
	})
	e.register("getset", 3, w, "string", func(e *Engine, a []any) (any, error) {
		return optional(e.GetSet(encode(a[0]), a[1]))
	})
	e.register("mget", -2, r, "string", func(e *Engine, a []any) (any, error) {
		return e.MGet(encodeAll(a)...), nil
	})
	e.register("mset", -3, w, "string", func(e *Engine, a []any) (any, error) {
		pairs, err := pairMap(a)
		if err != nil {
			return nil, err
		}
		if err = e.MSet(pairs); err != nil {
			return nil, err
		}
		return true, nil
	})
	e.register("msetnx", -3, w, "string", func(e *Engine, a []any) (any, error) {
		pairs, err := pairMap(a)
		if err != nil {
			return nil, err
		}
		return e.MSetNX(pairs)
	})
	e.register("setnx", 3, w, "string", func(e *Engine, a []any) (any, error) {
		return e.SetNX(encode(a[0]), a[1])
	})
	e.register("setex", 4, w, "string", func(e *Engine, a []any) (any, error) {
		n, err := toInt(a[1])
		if err != nil {
			return nil, err
		}
		if err = e.SetEX(encode(a[0]), n, a[2]); err != nil {
			return nil, err
		}
		return true, nil
	})
	e.register("psetex", 4, w, "string", func(e *Engine, a []any) (any, error) {
		n, err := toInt(a[1])
		if err != nil {
			return nil, err
		}
		if err = e.PSetEX(encode(a[0]), n, a[2]); err != nil {
			return nil, err
		}
		return true, nil
	})
	e.register("incr", 2, w, "string", func(e *Engine, a []any) (any, error) {
		return e.Incr(encode(a[0]))
	})
	e.register("decr", 2, w, "string", func(e *Engine, a []any) (any, error) {
		return e.Decr(encode(a[0]))
	})
	e.register("incrby", 3, w, "string", func(e *Engine, a []any) (any, error) {
		n, err := toInt(a[1])
		if err != nil {
			return nil, err
		}
		return e.IncrBy(encode(a[0]), n)
	})
	e.register("decrby", 3, w, "string", func(e *Engine, a []any) (any, error) {
		n, err := toInt(a[1])
		if err != nil {
			return nil, err
		}
		return e.DecrBy(encode(a[0]), n)
	})
	e.register("getbit", 3, r, "string", func(e *Engine, a []any) (any, error) {
		off, err := toInt(a[1])
		if err != nil {
			return nil, err
		}
		return e.GetBit(encode(a[0]), off)
	})
	e.register("setbit", 4, w, "string", func(e *Engine, a []any) (any, error) {
		off, err := toInt(a[1])
		if err != nil {
			return nil, err
		}
		bit, err := toInt(a[2])
		if err != nil {
			return nil, err
		}
		return e.SetBit(encode(a[0]), off, int(bit))
	})

	// hashes
	e.register("hget", 3, r, "hash", func(e *Engine, a []any) (any, error) {
		return optional(e.HGet(encode(a[0]), encode(a[1])))
	})
	e.register("hset", 4, w, "hash", func(e *Engine, a []any) (any, error) {
		return e.HSet(encode(a[0]), encode(a[1]), a[2])
	})
	e.register("hsetnx", 4, w, "hash", func(e *Engine, a []any) (any, error) {
		return e.HSetNX(encode(a[0]), encode(a[1]), a[2])
	})
	e.register("hmset", -4, w, "hash", func(e *Engine, a []any) (any, error) {
		fields, err := pairMap(a[1:])
		if err != nil {
			return nil, err
		}
		if err = e.HMSet(encode(a[0]), fields); err != nil {
			return nil, err
		}
		return true, nil
	})
	e.register("hmget", -3, r, "hash", func(e *Engine, a []any) (any, error) {
		return e.HMGet(encode(a[0]), encodeAll(a[1:])...)
	})
	e.register("hdel", -3, w, "hash", func(e *Engine, a []any) (any, error) {
		return e.HDel(encode(a[0]), encodeAll(a[1:])...)
	})
	e.register("hlen", 2, r, "hash", func(e *Engine, a []any) (any, error) {
		return e.HLen(encode(a[0]))
	})
	e.register("hexists", 3, r, "hash", func(e *Engine, a []any) (any, error) {
		return e.HExists(encode(a[0]), encode(a[1]))
	})
	e.register("hgetall", 2, r, "hash", func(e *Engine, a []any) (any, error) {
		return e.HGetAll(encode(a[0]))
	})
	e.register("hkeys", 2, r, "hash", func(e *Engine, a []any) (any, error) {
		return e.HKeys(encode(a[0]))
	})
	e.register("hvals", 2, r, "hash", func(e *Engine, a []any) (any, error) {
		return e.HVals(encode(a[0]))
	})
	e.register("hincrby", 4, w, "hash", func(e *Engine, a []any) (any, error) {
		n, err := toInt(a[2])
		if err != nil {
			return nil, err
		}
		return e.HIncrBy(encode(a[0]), encode(a[1]), n)
	})
	e.register("hincrbyfloat", 4, w, "hash", func(e *Engine, a []any) (any, error) {
		f, err := toFloat(a[2])
		if err != nil {
			return nil, err
		}
		return e.HIncrByFloat(encode(a[0]), encode(a[1]), f)
	})

	// lists
	e.register("lpush", -3, w, "list", func(e *Engine, a []any) (any, error) {
		return e.LPush(encode(a[0]), a[1:]...)
	})
	e.register("rpush", -3, w, "list", func(e *Engine, a []any) (any, error) {
		return e.RPush(encode(a[0]), a[1:]...)
	})
	e.register("lpop", 2, w, "list", func(e *Engine, a []any) (any, error) {
		return optional(e.LPop(encode(a[0])))
	})
	e.register("rpop", 2, w, "list", func(e *Engine, a []any) (any, error) {
		return optional(e.RPop(encode(a[0])))
	})
	e.register("lrange", 4, r, "list", func(e *Engine, a []any) (any, error) {
		start, stop, err := intPair(a[1], a[2])
		if err != nil {
			return nil, err
		}
		return e.LRange(encode(a[0]), start, stop)
	})
	e.register("lindex", 3, r, "list", func(e *Engine, a []any) (any, error) {
		i, err := toInt(a[1])
		if err != nil {
			return nil, err
		}
		return optional(e.LIndex(encode(a[0]), i))
	})
	e.register("llen", 2, r, "list", func(e *Engine, a []any) (any, error) {
		return e.LLen(encode(a[0]))
	})
	e.register("lrem", 4, w, "list", func(e *Engine, a []any) (any, error) {
		n, err := toInt(a[1])
		if err != nil {
			return nil, err
		}
		return e.LRem(encode(a[0]), n, a[2])
	})
	e.register("ltrim", 4, w, "list", func(e *Engine, a []any) (any, error) {
		start, stop, err := intPair(a[1], a[2])
		if err != nil {
			return nil, err
		}
		if err = e.LTrim(encode(a[0]), start, stop); err != nil {
			return nil, err
		}
		return true, nil
	})
	e.register("lset", 4, w, "list", func(e *Engine, a []any) (any, error) {
		i, err := toInt(a[1])
		if err != nil {
			return nil, err
		}
		if err = e.LSet(encode(a[0]), i, a[2]); err != nil {
			return nil, err
		}
		return true, nil
	})
	e.register("rpoplpush", 3, w, "list", func(e *Engine, a []any) (any, error) {
		return optional(e.RPopLPush(encode(a[0]), encode(a[1])))
	})
	e.register("blpop", -3, w|nl, "list", blockingPopCmd(true, true))
	e.register("brpop", -3, w|nl, "list", blockingPopCmd(false, true))
	e.register("brpoplpush", 4, w|nl, "list", func(e *Engine, a []any) (any, error) {
		timeout, err := toSeconds(a[2])
		if err != nil {
			return nil, err
		}
		return optional(e.BRPopLPush(encode(a[0]), encode(a[1]), timeout))
	})
	// inside a transaction blocking pops try once
	e.registerTx("blpop", blockingPopCmd(true, false))
	e.registerTx("brpop", blockingPopCmd(false, false))
	e.registerTx("brpoplpush", func(e *Engine, a []any) (any, error) {
		if _, err := toBlockingTimeout(a[2]); err != nil {
			return nil, err
		}
		return optional(e.RPopLPush(encode(a[0]), encode(a[1])))
	})
	e.register("sort", -2, w, "list", func(e *Engine, a []any) (any, error) {
		opt, dest, err := parseSort(a[1:])
		if err != nil {
			return nil, err
		}
		if dest != "" {
			return e.SortStore(encode(a[0]), dest, opt)
		}
		return e.Sort(encode(a[0]), opt)
	})

	// sets
	e.register("sadd", -3, w, "set", func(e *Engine, a []any) (any, error) {
		return e.SAdd(encode(a[0]), a[1:]...)
	})
	e.register("srem", -3, w, "set", func(e *Engine, a []any) (any, error) {
		return e.SRem(encode(a[0]), a[1:]...)
	})
	e.register("scard", 2, r, "set", func(e *Engine, a []any) (any, error) {
		return e.SCard(encode(a[0]))
	})
	e.register("sismember", 3, r, "set", func(e *Engine, a []any) (any, error) {
		return e.SIsMember(encode(a[0]), a[1])
	})
	e.register("smembers", 2, r, "set", func(e *Engine, a []any) (any, error) {
		return e.SMembers(encode(a[0]))
	})
	e.register("smove", 4, w, "set", func(e *Engine, a []any) (any, error) {
		return e.SMove(encode(a[0]), encode(a[1]), a[2])
	})
	e.register("spop", 2, w, "set", func(e *Engine, a []any) (any, error) {
		return optional(e.SPop(encode(a[0])))
	})
	e.register("srandmember", -2, r, "set", func(e *Engine, a []any) (any, error) {
		if len(a) == 1 {
			return optional(e.SRandMember(encode(a[0])))
		}
		n, err := toInt(a[1])
		if err != nil {
			return nil, err
		}
		return e.SRandMemberN(encode(a[0]), n)
	})
	e.register("sdiff", -2, r, "set", func(e *Engine, a []any) (any, error) {
		return e.SDiff(encodeAll(a)...)
	})
	e.register("sinter", -2, r, "set", func(e *Engine, a []any) (any, error) {
		return e.SInter(encodeAll(a)...)
	})
	e.register("sunion", -2, r, "set", func(e *Engine, a []any) (any, error) {
		return e.SUnion(encodeAll(a)...)
	})
	e.register("sdiffstore", -3, w, "set", func(e *Engine, a []any) (any, error) {
		return e.SDiffStore(encode(a[0]), encodeAll(a[1:])...)
	})
	e.register("sinterstore", -3, w, "set", func(e *Engine, a []any) (any, error) {
		return e.SInterStore(encode(a[0]), encodeAll(a[1:])...)
	})
	e.register("sunionstore", -3, w, "set", func(e *Engine, a []any) (any, error) {
		return e.SUnionStore(encode(a[0]), encodeAll(a[1:])...)
	})

	// sorted sets
	e.register("zadd", -4, w, "sorted_set", func(e *Engine, a []any) (any, error) {
		return e.ZAddArgs(encode(a[0]), a[1:]...)
	})
	e.register("zincrby", 4, w, "sorted_set", func(e *Engine, a []any) (any, error) {
		f, err := toFloat(a[1])
		if err != nil {
			return nil, err
		}
		return e.ZIncrBy(encode(a[0]), f, encode(a[2]))
	})
	e.register("zcard", 2, r, "sorted_set", func(e *Engine, a []any) (any, error) {
		return e.ZCard(encode(a[0]))
	})
	e.register("zcount", 4, r, "sorted_set", func(e *Engine, a []any) (any, error) {
		return e.ZCount(encode(a[0]), encode(a[1]), encode(a[2]))
	})
	e.register("zrank", 3, r, "sorted_set", func(e *Engine, a []any) (any, error) {
		return optional(e.ZRank(encode(a[0]), encode(a[1])))
	})
	e.register("zrevrank", 3, r, "sorted_set", func(e *Engine, a []any) (any, error) {
		return optional(e.ZRevRank(encode(a[0]), encode(a[1])))
	})
	e.register("zscore", 3, r, "sorted_set", func(e *Engine, a []any) (any, error) {
		return optional(e.ZScore(encode(a[0]), encode(a[1])))
	})
	e.register("zrange", -4, r, "sorted_set", zrangeCmd(false))
	e.register("zrevrange", -4, r, "sorted_set", zrangeCmd(true))
	e.register("zrangebyscore", -4, r, "sorted_set", zrangeByScoreCmd(false))
	e.register("zrevrangebyscore", -4, r, "sorted_set", zrangeByScoreCmd(true))
	e.register("zrem", -3, w, "sorted_set", func(e *Engine, a []any) (any, error) {
		return e.ZRem(encode(a[0]), a[1:]...)
	})
	e.register("zremrangebyrank", 4, w, "sorted_set", func(e *Engine, a []any) (any, error) {
		start, stop, err := intPair(a[1], a[2])
		if err != nil {
			return nil, err
		}
		return e.ZRemRangeByRank(encode(a[0]), start, stop)
	})
	e.register("zremrangebyscore", 4, w, "sorted_set", func(e *Engine, a []any) (any, error) {
		return e.ZRemRangeByScore(encode(a[0]), encode(a[1]), encode(a[2]))
	})
	e.register("zunionstore", -4, w, "sorted_set", zstoreCmd(false))
	e.register("zinterstore", -4, w, "sorted_set", zstoreCmd(true))

	// scans
	e.register("scan", -2, r, "generic", func(e *Engine, a []any) (any, error) {
		cursor, match, count, err := parseScan(a)
		if err != nil {
			return nil, err
		}
		return scanReply(e.Scan(cursor, match, count))
	})
	e.register("sscan", -3, r, "set", keyScanCmd((*Engine).SScan))
	e.register("hscan", -3, r, "hash", keyScanCmd((*Engine).HScan))
	e.register("zscan", -3, r, "sorted_set", keyScanCmd((*Engine).ZScan))

	// transactions outside a pipeline
	e.register("unwatch", 1, r, "transactions", func(e *Engine, _ []any) (any, error) {
		return e.Unwatch(), nil
	})
	for _, name := range []string{"watch", "multi", "exec", "discard"} {
		msg := fmt.Sprintf("ERR %s requires a pipeline", strings.ToUpper(name))
		e.register(name, -1, r, "transactions", func(*Engine, []any) (any, error) {
			return nil, redisErr(msg)
		})
	}

	// pub/sub
	e.register("publish", 3, w, "pubsub", func(e *Engine, a []any) (any, error) {
		return e.Publish(encode(a[0]), a[1]), nil
	})

	// server
	e.register("config", -2, w, "server", func(e *Engine, a []any) (any, error) {
		switch {
		case keyword(a[0], "set") && len(a) == 3:
			e.ConfigSet(encode(a[1]), a[2])
			return true, nil
		case keyword(a[0], "get") && len(a) == 2:
			return e.ConfigGet(encode(a[1]))
		}
		return nil, redisErr(fmt.Sprintf("ERR unknown CONFIG subcommand or wrong number of arguments for '%s'", encode(a[0])))
	})

	// scripting
	e.register("script", -2, w, "scripting", func(e *Engine, a []any) (any, error) {
		switch {
		case keyword(a[0], "load") && len(a) == 2:
			return e.ScriptLoad(encode(a[1])), nil
		case keyword(a[0], "exists"):
			return boolsToAny(e.ScriptExists(encodeAll(a[1:])...)), nil
		case keyword(a[0], "flush"):
			e.ScriptFlush()
			return true, nil
		}
		return nil, redisErr(fmt.Sprintf("ERR unknown SCRIPT subcommand or wrong number of arguments for '%s'", encode(a[0])))
	})
	e.register("eval", -3, w|nl, "scripting", evalCmd(func(e *Engine, body string, keys []string, args []any) (any, error) {
		return e.Eval(body, keys, args...)
	}))
	e.register("evalsha", -3, w|nl, "scripting", evalCmd(func(e *Engine, sha string, keys []string, args []any) (any, error) {
		return e.EvalSha(sha, keys, args...)
	}))
	e.registerTx("eval", evalCmd(func(e *Engine, body string, keys []string, args []any) (any, error) {
		return e.evalShaLocked(e.ScriptLoad(body), keys, args)
	}))
	e.registerTx("evalsha", evalCmd(func(e *Engine, sha string, keys []string, args []any) (any, error) {
		return e.evalShaLocked(sha, keys, args)
	}))
}

// optional maps a (value, found, error) result to value or nil
func optional[T any](v T, ok bool, err error) (any, error) {
	if err != nil || !ok {
		return nil, err
	}
	return v, nil
}

func intPair(a, b any) (int64, int64, error) {
	x, err := toInt(a)
	if err != nil {
		return 0, 0, err
	}
	y, err := toInt(b)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// toSeconds parses a blocking timeout in whole seconds
func toSeconds(v any) (time.Duration, error) {
	n, err := toInt(v)
	if err != nil {
		return 0, newError("ERR timeout is not an integer or out of range", ErrInvalidArgument, ErrResponse)
	}
	return time.Duration(n) * time.Second, nil
}

func pairMap(a []any) (map[string]any, error) {
	if len(a)%2 != 0 {
		return nil, redisErr("ERR wrong number of arguments for key/value pairs")
	}
	m := make(map[string]any, len(a)/2)
	for i := 0; i < len(a); i += 2 {
		m[encode(a[i])] = a[i+1]
	}
	return m, nil
}

func boolsToAny(bs []bool) []any {
	out := make([]any, len(bs))
	for i, b := range bs {
		out[i] = b
	}
	return out
}

func expireCmd(unit time.Duration) handler {
	return func(e *Engine, a []any) (any, error) {
		n, err := toInt(a[1])
		if err != nil {
			return nil, err
		}
		return e.Expire(encode(a[0]), time.Duration(n)*unit)
	}
}

func expireAtCmd(unit time.Duration) handler {
	return func(e *Engine, a []any) (any, error) {
		n, err := toInt(a[1])
		if err != nil {
			return nil, err
		}
		at := time.UnixMilli(n)
		if unit == time.Second {
			at = time.Unix(n, 0)
		}
		return e.ExpireAt(encode(a[0]), at), nil
	}
}

func parseSetOptions(a []any) ([]SetOption, error) {
	var opts []SetOption
	for i := 0; i < len(a); i++ {
		switch {
		case keyword(a[i], "nx"):
			opts = append(opts, NX())
		case keyword(a[i], "xx"):
			opts = append(opts, XX())
		case (keyword(a[i], "ex") || keyword(a[i], "px")) && i+1 < len(a):
			n, err := toInt(a[i+1])
			if err != nil {
				return nil, err
			}
			if keyword(a[i], "ex") {
				opts = append(opts, EX(n))
			} else {
				opts = append(opts, PX(n))
			}
			i++
		default:
			return nil, errSyntax
		}
	}
	return opts, nil
}

func blockingPopCmd(head, wait bool) handler {
	return func(e *Engine, a []any) (any, error) {
		timeout, err := toBlockingTimeout(a[len(a)-1])
		if err != nil {
			return nil, err
		}
		keys := encodeAll(a[:len(a)-1])

		var res []string
		switch {
		case !wait:
			res, err = e.popFirst(keys, head)
		case head:
			res, err = e.BLPop(timeout, keys...)
		default:
			res, err = e.BRPop(timeout, keys...)
		}
		if err != nil || res == nil {
			return nil, err
		}
		return res, nil
	}
}

func toBlockingTimeout(v any) (time.Duration, error) {
	timeout, err := toSeconds(v)
	if err != nil {
		return 0, err
	}
	if timeout < 0 {
		return 0, invalidArg("ERR timeout is negative")
	}
	return timeout, nil
}

func parseSort(a []any) (*redis.Sort, string, error) {
	opt := &redis.Sort{}
	var dest string
	for i := 0; i < len(a); i++ {
		switch {
		case keyword(a[i], "by") && i+1 < len(a):
			opt.By = encode(a[i+1])
			i++
		case keyword(a[i], "limit") && i+2 < len(a):
			off, cnt, err := intPair(a[i+1], a[i+2])
			if err != nil {
				return nil, "", err
			}
			opt.Offset, opt.Count = off, cnt
			if cnt == 0 {
				// LIMIT n 0 selects nothing
				opt.Count = 0
				opt.Offset = -1
			}
			i += 2
		case keyword(a[i], "get") && i+1 < len(a):
			opt.Get = append(opt.Get, encode(a[i+1]))
			i++
		case keyword(a[i], "asc"):
			opt.Order = "ASC"
		case keyword(a[i], "desc"):
			opt.Order = "DESC"
		case keyword(a[i], "alpha"):
			opt.Alpha = true
		case keyword(a[i], "store") && i+1 < len(a):
			dest = encode(a[i+1])
			i++
		default:
			return nil, "", errSyntax
		}
	}
	return opt, dest, nil
}

func zrangeCmd(desc bool) handler {
	return func(e *Engine, a []any) (any, error) {
		start, stop, err := intPair(a[1], a[2])
		if err != nil {
			return nil, err
		}
		withScores := false
		switch {
		case len(a) == 4 && keyword(a[3], "withscores"):
			withScores = true
		case len(a) > 3:
			return nil, errSyntax
		}

		key := encode(a[0])
		switch {
		case withScores && desc:
			return e.ZRevRangeWithScores(key, start, stop)
		case withScores:
			return e.ZRangeWithScores(key, start, stop)
		case desc:
			return e.ZRevRange(key, start, stop)
		}
		return e.ZRange(key, start, stop)
	}
}

// zrangeByScoreCmd expects arguments already normalized to
// key, min, max[, start, num, withscores]. The reverse form takes max first.
func zrangeByScoreCmd(desc bool) handler {
	return func(e *Engine, a []any) (any, error) {
		lo, hi := encode(a[1]), encode(a[2])
		if desc {
			lo, hi = hi, lo
		}
		opt := &redis.ZRangeBy{Min: lo, Max: hi}

		var limit, withScores bool
		if len(a) == 6 {
			if (a[3] == nil) != (a[4] == nil) {
				return nil, redisErr("ERR start and num must both be specified")
			}
			if a[3] != nil {
				off, cnt, err := intPair(a[3], a[4])
				if err != nil {
					return nil, err
				}
				opt.Offset, opt.Count, limit = off, cnt, true
			}
			withScores, _ = a[5].(bool)
		}

		res, err := e.zrangeByScore(encode(a[0]), opt, desc, limit)
		if err != nil || withScores {
			return res, err
		}
		return members(res, nil)
	}
}

// zstoreCmd parses dest numkeys key [key ...] [WEIGHTS w ...] [AGGREGATE SUM|MIN|MAX]
func zstoreCmd(inter bool) handler {
	return func(e *Engine, a []any) (any, error) {
		n, err := toInt(a[1])
		if err != nil {
			return nil, err
		}
		if n <= 0 || int(n) > len(a)-2 {
			return nil, errSyntax
		}
		store := &redis.ZStore{Keys: encodeAll(a[2 : 2+n])}

		rest := a[2+n:]
		for i := 0; i < len(rest); i++ {
			switch {
			case keyword(rest[i], "weights") && i+int(n) < len(rest):
				for _, w := range rest[i+1 : i+1+int(n)] {
					f, err := toFloat(w)
					if err != nil {
						return nil, err
					}
					store.Weights = append(store.Weights, f)
				}
				i += int(n)
			case keyword(rest[i], "aggregate") && i+1 < len(rest):
				store.Aggregate = encode(rest[i+1])
				i++
			default:
				return nil, errSyntax
			}
		}

		if inter {
			return e.ZInterStore(encode(a[0]), store)
		}
		return e.ZUnionStore(encode(a[0]), store)
	}
}

// parseScan parses cursor [MATCH pattern] [COUNT count]
func parseScan(a []any) (uint64, string, int64, error) {
	c, err := toInt(a[0])
	if err != nil || c < 0 {
		return 0, "", 0, newError("ERR invalid cursor", ErrInvalidArgument, ErrResponse)
	}

	match := ""
	var count int64
	for i := 1; i < len(a); i += 2 {
		if i+1 >= len(a) {
			return 0, "", 0, errSyntax
		}
		switch {
		case keyword(a[i], "match"):
			match = encode(a[i+1])
		case keyword(a[i], "count"):
			if count, err = toInt(a[i+1]); err != nil {
				return 0, "", 0, err
			}
			if count <= 0 {
				return 0, "", 0, errSyntax
			}
		default:
			return 0, "", 0, errSyntax
		}
	}
	return uint64(c), match, count, nil
}

func keyScanCmd(fn func(e *Engine, key string, cursor uint64, match string, count int64) (uint64, []string, error)) handler {
	return func(e *Engine, a []any) (any, error) {
		cursor, match, count, err := parseScan(a[1:])
		if err != nil {
			return nil, err
		}
		return scanReply(fn(e, encode(a[0]), cursor, match, count))
	}
}

func scanReply(cursor uint64, page []string, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return []any{cursor, page}, nil
}

// evalCmd parses script numkeys key [key ...] arg [arg ...]
func evalCmd(run func(e *Engine, body string, keys []string, args []any) (any, error)) handler {
	return func(e *Engine, a []any) (any, error) {
		n, err := toInt(a[1])
		if err != nil {
			return nil, err
		}
		n = max(n, 0)
		if int(n) > len(a)-2 {
			return nil, redisErr("ERR Number of keys can't be greater than number of args")
		}
		return run(e, encode(a[0]), encodeAll(a[2:2+n]), a[2+n:])
	}
}
