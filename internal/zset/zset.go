// Package zset implements the ordered member/score index behind sorted-set values.
package zset

import (
	"sort"

	"github.com/tidwall/btree"

	"github.com/eternalApril/moonmock/internal/span"
)

// Item is a single member of a sorted set
type Item struct {
	Score  float64
	Member string
}

func less(a, b Item) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Member < b.Member
}

// SortedSet keeps members ordered by (score, member) and indexed by member.
// It is not safe for concurrent use.
type SortedSet struct {
	tree   *btree.BTreeG[Item]
	scores map[string]float64
}

func New() *SortedSet {
	return &SortedSet{
		tree:   btree.NewBTreeGOptions(less, btree.Options{NoLocks: true}),
		scores: make(map[string]float64),
	}
}

// Insert sets the score of member and reports whether member was newly added
func (z *SortedSet) Insert(member string, score float64) bool {
	old, exists := z.scores[member]
	if exists {
		if old == score {
			return false
		}
		z.tree.Delete(Item{Score: old, Member: member})
	}
	z.scores[member] = score
	z.tree.Set(Item{Score: score, Member: member})
	return !exists
}

// Remove deletes member and reports whether it was present
func (z *SortedSet) Remove(member string) bool {
	score, ok := z.scores[member]
	if !ok {
		return false
	}
	delete(z.scores, member)
	z.tree.Delete(Item{Score: score, Member: member})
	return true
}

func (z *SortedSet) Score(member string) (float64, bool) {
	s, ok := z.scores[member]
	return s, ok
}

func (z *SortedSet) Len() int {
	return len(z.scores)
}

// Rank returns the 0-based ascending position of member.
// The tree keeps subtree counts private, so the position is found by binary
// search over GetAt.
func (z *SortedSet) Rank(member string) (int, bool) {
	score, ok := z.scores[member]
	if !ok {
		return 0, false
	}
	target := Item{Score: score, Member: member}
	idx := sort.Search(z.tree.Len(), func(i int) bool {
		it, _ := z.tree.GetAt(i)
		return !less(it, target)
	})
	return idx, true
}

// RevRank returns the 0-based descending position of member
func (z *SortedSet) RevRank(member string) (int, bool) {
	r, ok := z.Rank(member)
	if !ok {
		return 0, false
	}
	return z.Len() - 1 - r, true
}

// At returns the item at ascending position i
func (z *SortedSet) At(i int) (Item, bool) {
	return z.tree.GetAt(i)
}

// RangeByRank returns items in the inclusive rank window [start, end].
// Negative indexes count from the end. With desc, ranks are counted from
// the highest score and items are returned highest first.
func (z *SortedSet) RangeByRank(start, end int, desc bool) []Item {
	n := z.Len()
	lo, hi := span.Resolve(n, start, end)
	if span.Empty(lo, hi) {
		return []Item{}
	}

	out := make([]Item, 0, hi-lo+1)
	collect := func(it Item) bool {
		out = append(out, it)
		return len(out) < cap(out)
	}
	if desc {
		first, _ := z.tree.GetAt(n - 1 - lo)
		z.tree.Descend(first, collect)
	} else {
		first, _ := z.tree.GetAt(lo)
		z.tree.Ascend(first, collect)
	}
	return out
}

// Bound is one end of a score interval
type Bound struct {
	Score     float64
	Exclusive bool
}

func (b Bound) below(score float64) bool {
	if b.Exclusive {
		return b.Score < score
	}
	return b.Score <= score
}

func (b Bound) above(score float64) bool {
	if b.Exclusive {
		return score < b.Score
	}
	return score <= b.Score
}

// RangeByScore returns items with min <= score <= max in ascending order,
// honouring exclusive bounds.
func (z *SortedSet) RangeByScore(min, max Bound) []Item {
	out := []Item{}
	z.ascendFrom(min, func(it Item) bool {
		if !max.above(it.Score) {
			return false
		}
		out = append(out, it)
		return true
	})
	return out
}

// Count returns the number of items within the score interval
func (z *SortedSet) Count(min, max Bound) int {
	n := 0
	z.ascendFrom(min, func(it Item) bool {
		if !max.above(it.Score) {
			return false
		}
		n++
		return true
	})
	return n
}

func (z *SortedSet) ascendFrom(min Bound, iter func(Item) bool) {
	z.tree.Ascend(Item{Score: min.Score}, func(it Item) bool {
		if !min.below(it.Score) {
			return true
		}
		return iter(it)
	})
}

// Items returns every item in ascending order
func (z *SortedSet) Items() []Item {
	out := make([]Item, 0, z.Len())
	z.tree.Scan(func(it Item) bool {
		out = append(out, it)
		return true
	})
	return out
}

// Clone returns an independent copy
func (z *SortedSet) Clone() *SortedSet {
	scores := make(map[string]float64, len(z.scores))
	for m, s := range z.scores {
		scores[m] = s
	}
	return &SortedSet{tree: z.tree.Copy(), scores: scores}
}

// Equal reports whether both sets hold the same members with the same scores
func (z *SortedSet) Equal(other *SortedSet) bool {
	if z.Len() != other.Len() {
		return false
	}
	for m, s := range z.scores {
		if os, ok := other.scores[m]; !ok || os != s {
			return false
		}
	}
	return true
}
