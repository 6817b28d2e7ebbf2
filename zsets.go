package moonmock

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/eternalApril/moonmock/internal/storage"
	"github.com/eternalApril/moonmock/internal/zset"
)

func (e *Engine) sortedSet(key string) (*zset.SortedSet, error) {
	ent, err := e.keys.Lookup(key, storage.TypeZSet)
	if err != nil || ent == nil {
		return nil, err
	}
	return ent.ZSet, nil
}

// ZAdd inserts or updates members and returns how many were new.
// A NaN score rejects the whole call before any member is written.
func (e *Engine) ZAdd(key string, members ...redis.Z) (int64, error) {
	for _, z := range members {
		if math.IsNaN(z.Score) {
			return 0, errNotFloat
		}
	}

	var n int64
	err := e.keys.Mutate(key, storage.TypeZSet, func(ent *storage.Entity) error {
		for _, z := range members {
			if ent.ZSet.Insert(encode(z.Member), z.Score) {
				n++
			}
		}
		return nil
	})
	return n, err
}

// ZAddArgs is ZAdd over flat pairs: score, member when the engine is strict,
// member, score otherwise.
func (e *Engine) ZAddArgs(key string, pairs ...any) (int64, error) {
	if len(pairs)%2 != 0 {
		return 0, newError("ERR ZADD requires an equal number of values and scores", ErrInvalidArgument, ErrRedis)
	}

	members := make([]redis.Z, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		score, member := pairs[i], pairs[i+1]
		if !e.strict {
			score, member = member, score
		}
		f, err := toFloat(score)
		if err != nil {
			return 0, err
		}
		members = append(members, redis.Z{Score: f, Member: encode(member)})
	}
	return e.ZAdd(key, members...)
}

// ZIncrBy adds incr to the score of member, treating an absent member as 0
func (e *Engine) ZIncrBy(key string, incr float64, member string) (float64, error) {
	var score float64
	err := e.keys.Mutate(key, storage.TypeZSet, func(ent *storage.Entity) error {
		cur, _ := ent.ZSet.Score(member)
		score = cur + incr
		if math.IsNaN(score) {
			return responseErr("ERR resulting score is not a number (NaN)")
		}
		ent.ZSet.Insert(member, score)
		return nil
	})
	return score, err
}

func (e *Engine) ZCard(key string) (int64, error) {
	z, err := e.sortedSet(key)
	if z == nil {
		return 0, err
	}
	return int64(z.Len()), nil
}

// ZCount counts members with a score inside [min, max]. Bounds accept
// "(" for exclusive ends and -inf/+inf.
func (e *Engine) ZCount(key, min, max string) (int64, error) {
	lo, hi, err := parseBounds(min, max)
	if err != nil {
		return 0, err
	}
	z, err := e.sortedSet(key)
	if z == nil {
		return 0, err
	}
	return int64(z.Count(lo, hi)), nil
}

// ZRank returns the ascending 0-based rank of member
func (e *Engine) ZRank(key, member string) (int64, bool, error) {
	z, err := e.sortedSet(key)
	if z == nil {
		return 0, false, err
	}
	r, ok := z.Rank(member)
	return int64(r), ok, nil
}

// ZRevRank returns the descending 0-based rank of member
func (e *Engine) ZRevRank(key, member string) (int64, bool, error) {
	z, err := e.sortedSet(key)
	if z == nil {
		return 0, false, err
	}
	r, ok := z.RevRank(member)
	return int64(r), ok, nil
}

func (e *Engine) ZScore(key, member string) (float64, bool, error) {
	z, err := e.sortedSet(key)
	if z == nil {
		return 0, false, err
	}
	s, ok := z.Score(member)
	return s, ok, nil
}

func (e *Engine) ZRange(key string, start, stop int64) ([]string, error) {
	return members(e.zrange(key, start, stop, false))
}

func (e *Engine) ZRangeWithScores(key string, start, stop int64) ([]redis.Z, error) {
	return e.zrange(key, start, stop, false)
}

func (e *Engine) ZRevRange(key string, start, stop int64) ([]string, error) {
	return members(e.zrange(key, start, stop, true))
}

func (e *Engine) ZRevRangeWithScores(key string, start, stop int64) ([]redis.Z, error) {
	return e.zrange(key, start, stop, true)
}

func (e *Engine) zrange(key string, start, stop int64, desc bool) ([]redis.Z, error) {
	z, err := e.sortedSet(key)
	if z == nil {
		return []redis.Z{}, err
	}
	return toZ(z.RangeByRank(int(start), int(stop), desc)), nil
}

// ZRangeByScore returns members with opt.Min <= score <= opt.Max in
// ascending order. A non-zero Offset or Count applies a LIMIT window.
func (e *Engine) ZRangeByScore(key string, opt *redis.ZRangeBy) ([]string, error) {
	return members(e.zrangeByScore(key, opt, false, limited(opt)))
}

func (e *Engine) ZRangeByScoreWithScores(key string, opt *redis.ZRangeBy) ([]redis.Z, error) {
	return e.zrangeByScore(key, opt, false, limited(opt))
}

// ZRevRangeByScore is ZRangeByScore in descending order
func (e *Engine) ZRevRangeByScore(key string, opt *redis.ZRangeBy) ([]string, error) {
	return members(e.zrangeByScore(key, opt, true, limited(opt)))
}

func (e *Engine) ZRevRangeByScoreWithScores(key string, opt *redis.ZRangeBy) ([]redis.Z, error) {
	return e.zrangeByScore(key, opt, true, limited(opt))
}

// limited reports whether a typed range request carries a LIMIT window
func limited(opt *redis.ZRangeBy) bool {
	return opt != nil && (opt.Offset != 0 || opt.Count != 0)
}

func (e *Engine) zrangeByScore(key string, opt *redis.ZRangeBy, desc, limit bool) ([]redis.Z, error) {
	if opt == nil {
		opt = &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	}
	lo, hi, err := parseBounds(opt.Min, opt.Max)
	if err != nil {
		return nil, err
	}

	z, err := e.sortedSet(key)
	if z == nil {
		return []redis.Z{}, err
	}

	items := z.RangeByScore(lo, hi)
	if desc {
		slices.Reverse(items)
	}
	if limit {
		items = limitItems(items, opt.Offset, opt.Count)
	}
	return toZ(items), nil
}

// ZRem removes members and returns how many existed
func (e *Engine) ZRem(key string, members ...any) (int64, error) {
	var n int64
	err := e.keys.Mutate(key, storage.TypeZSet, func(ent *storage.Entity) error {
		for _, m := range members {
			if ent.ZSet.Remove(encode(m)) {
				n++
			}
		}
		return nil
	})
	return n, err
}

// ZRemRangeByRank removes members in the inclusive rank window [start, stop]
func (e *Engine) ZRemRangeByRank(key string, start, stop int64) (int64, error) {
	var n int64
	err := e.keys.Mutate(key, storage.TypeZSet, func(ent *storage.Entity) error {
		for _, it := range ent.ZSet.RangeByRank(int(start), int(stop), false) {
			ent.ZSet.Remove(it.Member)
			n++
		}
		return nil
	})
	return n, err
}

// ZRemRangeByScore removes members whose score lies in [min, max]
func (e *Engine) ZRemRangeByScore(key, min, max string) (int64, error) {
	lo, hi, err := parseBounds(min, max)
	if err != nil {
		return 0, err
	}
	var n int64
	err = e.keys.Mutate(key, storage.TypeZSet, func(ent *storage.Entity) error {
		for _, it := range ent.ZSet.RangeByScore(lo, hi) {
			ent.ZSet.Remove(it.Member)
			n++
		}
		return nil
	})
	return n, err
}

// ZUnionStore stores the union of the sorted sets under store.Keys in dest,
// combining scores with store.Aggregate (SUM, MIN or MAX) after applying
// store.Weights. dest is always overwritten.
func (e *Engine) ZUnionStore(dest string, store *redis.ZStore) (int64, error) {
	return e.zstore("zunionstore", dest, store, false)
}

// ZInterStore is ZUnionStore keeping only members present in every source
func (e *Engine) ZInterStore(dest string, store *redis.ZStore) (int64, error) {
	return e.zstore("zinterstore", dest, store, true)
}

func (e *Engine) zstore(name, dest string, store *redis.ZStore, inter bool) (int64, error) {
	if store == nil || len(store.Keys) == 0 {
		return 0, redisErr("ERR at least 1 input key is needed for '" + name + "' command")
	}
	if len(store.Weights) != 0 && len(store.Weights) != len(store.Keys) {
		return 0, errSyntax
	}
	agg, err := aggregateFunc(store.Aggregate)
	if err != nil {
		return 0, err
	}

	sources := make([]*zset.SortedSet, len(store.Keys))
	for i, k := range store.Keys {
		if sources[i], err = e.sortedSet(k); err != nil {
			return 0, err
		}
	}

	scores := make(map[string]float64)
	seen := make(map[string]int)
	order := []string{}
	for i, src := range sources {
		if src == nil {
			continue
		}
		weight := 1.0
		if len(store.Weights) != 0 {
			weight = store.Weights[i]
		}
		for _, it := range src.Items() {
			s := weightedScore(it.Score, weight)
			if cur, ok := scores[it.Member]; ok {
				scores[it.Member] = agg(cur, s)
			} else {
				scores[it.Member] = s
				order = append(order, it.Member)
			}
			seen[it.Member]++
		}
	}

	ent := storage.NewEntity(storage.TypeZSet)
	for _, m := range order {
		if inter && seen[m] != len(sources) {
			continue
		}
		ent.ZSet.Insert(m, scores[m])
	}
	e.keys.Set(dest, ent)
	return int64(ent.ZSet.Len()), nil
}

func weightedScore(score, weight float64) float64 {
	s := score * weight
	if math.IsNaN(s) {
		// inf * 0
		return 0
	}
	return s
}

func aggregateFunc(name string) (func(a, b float64) float64, error) {
	switch strings.ToLower(name) {
	case "", "sum":
		return func(a, b float64) float64 {
			s := a + b
			if math.IsNaN(s) {
				return 0
			}
			return s
		}, nil
	case "min":
		return math.Min, nil
	case "max":
		return math.Max, nil
	}
	return nil, errSyntax
}

// parseBounds parses a score interval. "(" marks an exclusive end
func parseBounds(min, max string) (zset.Bound, zset.Bound, error) {
	lo, err := parseBound(min)
	if err != nil {
		return zset.Bound{}, zset.Bound{}, err
	}
	hi, err := parseBound(max)
	if err != nil {
		return zset.Bound{}, zset.Bound{}, err
	}
	return lo, hi, nil
}

func parseBound(s string) (zset.Bound, error) {
	var b zset.Bound
	if strings.HasPrefix(s, "(") {
		b.Exclusive = true
		s = s[1:]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return b, newError("ERR min or max is not a float", ErrInvalidArgument, ErrResponse)
	}
	b.Score = f
	return b, nil
}

// limitItems applies a LIMIT offset count window. An offset past the end or
// a non-positive count selects nothing.
func limitItems(items []zset.Item, offset, count int64) []zset.Item {
	n := int64(len(items))
	if offset < 0 || offset >= n || count <= 0 {
		return []zset.Item{}
	}
	return items[offset:min(n, offset+count)]
}

func toZ(items []zset.Item) []redis.Z {
	out := make([]redis.Z, len(items))
	for i, it := range items {
		out[i] = redis.Z{Score: it.Score, Member: it.Member}
	}
	return out
}

func members(zs []redis.Z, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	out := make([]string, len(zs))
	for i, z := range zs {
		out[i] = encode(z.Member)
	}
	return out, nil
}

// flattenScored turns []redis.Z into member, score, member, score...
func flattenScored(res any) any {
	zs, ok := res.([]redis.Z)
	if !ok {
		return res
	}
	out := make([]any, 0, 2*len(zs))
	for _, z := range zs {
		out = append(out, z.Member, z.Score)
	}
	return out
}
