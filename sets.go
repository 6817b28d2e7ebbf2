package moonmock

import (
	"maps"
	"math/rand/v2"
	"slices"

	"github.com/eternalApril/moonmock/internal/storage"
)

func (e *Engine) set(key string) (map[string]struct{}, error) {
	ent, err := e.keys.Lookup(key, storage.TypeSet)
	if err != nil || ent == nil {
		return nil, err
	}
	return ent.Set, nil
}

// SAdd adds members and returns how many were new
func (e *Engine) SAdd(key string, members ...any) (int64, error) {
	if len(members) == 0 {
		return 0, redisErr("ERR wrong number of arguments for 'sadd' command")
	}
	var n int64
	err := e.keys.Mutate(key, storage.TypeSet, func(ent *storage.Entity) error {
		for _, m := range encodeAll(members) {
			if _, ok := ent.Set[m]; !ok {
				ent.Set[m] = struct{}{}
				n++
			}
		}
		return nil
	})
	return n, err
}

// SRem removes members and returns how many existed
func (e *Engine) SRem(key string, members ...any) (int64, error) {
	var n int64
	err := e.keys.Mutate(key, storage.TypeSet, func(ent *storage.Entity) error {
		for _, m := range encodeAll(members) {
			if _, ok := ent.Set[m]; ok {
				delete(ent.Set, m)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (e *Engine) SCard(key string) (int64, error) {
	s, err := e.set(key)
	return int64(len(s)), err
}

func (e *Engine) SIsMember(key string, member any) (bool, error) {
	s, err := e.set(key)
	_, ok := s[encode(member)]
	return ok, err
}

// SMembers returns the members in lexicographic order
func (e *Engine) SMembers(key string) ([]string, error) {
	s, err := e.set(key)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(s)), nil
}

// SMove moves member from src to dst
func (e *Engine) SMove(src, dst string, member any) (bool, error) {
	if _, err := e.set(dst); err != nil {
		return false, err
	}
	n, err := e.SRem(src, member)
	if err != nil || n == 0 {
		return false, err
	}
	_, err = e.SAdd(dst, member)
	return err == nil, err
}

// SPop removes and returns a random member
func (e *Engine) SPop(key string) (string, bool, error) {
	m, ok, err := e.SRandMember(key)
	if err != nil || !ok {
		return "", false, err
	}
	_, err = e.SRem(key, m)
	return m, err == nil, err
}

// SRandMember returns a random member without removing it
func (e *Engine) SRandMember(key string) (string, bool, error) {
	s, err := e.set(key)
	if err != nil || len(s) == 0 {
		return "", false, err
	}
	members := slices.Sorted(maps.Keys(s))
	return members[rand.IntN(len(members))], true, nil
}

// SRandMemberN returns up to n distinct random members for n > 0, or |n|
// members that may repeat for n < 0.
func (e *Engine) SRandMemberN(key string, n int64) ([]string, error) {
	s, err := e.set(key)
	if err != nil {
		return nil, err
	}
	members := slices.Sorted(maps.Keys(s))
	if len(members) == 0 || n == 0 {
		return []string{}, nil
	}

	if n < 0 {
		out := make([]string, -n)
		for i := range out {
			out[i] = members[rand.IntN(len(members))]
		}
		return out, nil
	}

	rand.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
	return members[:min(int(n), len(members))], nil
}

// SDiff returns the members of the first set that are in none of the others
func (e *Engine) SDiff(keys ...string) ([]string, error) {
	return e.setAlgebra("sdiff", keys, func(acc, s map[string]struct{}) {
		for m := range s {
			delete(acc, m)
		}
	})
}

// SInter returns the members present in every set
func (e *Engine) SInter(keys ...string) ([]string, error) {
	return e.setAlgebra("sinter", keys, func(acc, s map[string]struct{}) {
		for m := range acc {
			if _, ok := s[m]; !ok {
				delete(acc, m)
			}
		}
	})
}

// SUnion returns the members present in any set
func (e *Engine) SUnion(keys ...string) ([]string, error) {
	return e.setAlgebra("sunion", keys, func(acc, s map[string]struct{}) {
		for m := range s {
			acc[m] = struct{}{}
		}
	})
}

func (e *Engine) SDiffStore(dest string, keys ...string) (int64, error) {
	return e.storeSet(dest, keys, e.SDiff)
}

func (e *Engine) SInterStore(dest string, keys ...string) (int64, error) {
	return e.storeSet(dest, keys, e.SInter)
}

func (e *Engine) SUnionStore(dest string, keys ...string) (int64, error) {
	return e.storeSet(dest, keys, e.SUnion)
}

// setAlgebra folds op over the sets under keys from left to right
func (e *Engine) setAlgebra(name string, keys []string, op func(acc, s map[string]struct{})) ([]string, error) {
	if len(keys) == 0 {
		return nil, redisErr("ERR wrong number of arguments for '" + name + "' command")
	}

	sets := make([]map[string]struct{}, len(keys))
	for i, k := range keys {
		s, err := e.set(k)
		if err != nil {
			return nil, err
		}
		sets[i] = s
	}

	acc := maps.Clone(sets[0])
	if acc == nil {
		acc = map[string]struct{}{}
	}
	for _, s := range sets[1:] {
		op(acc, s)
	}
	return slices.Sorted(maps.Keys(acc)), nil
}

// storeSet overwrites dest with the result, deleting it when the result is empty
func (e *Engine) storeSet(dest string, keys []string, fn func(keys ...string) ([]string, error)) (int64, error) {
	members, err := fn(keys...)
	if err != nil {
		return 0, err
	}
	ent := storage.NewEntity(storage.TypeSet)
	for _, m := range members {
		ent.Set[m] = struct{}{}
	}
	e.keys.Set(dest, ent)
	return int64(len(members)), nil
}
