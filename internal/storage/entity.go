package storage

import (
	"errors"
	"maps"
	"slices"

	"github.com/eternalApril/moonmock/internal/zset"
)

// ErrWrongType is returned when a command targets a key holding another type
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

type DataType byte

const (
	TypeNone DataType = iota
	TypeString
	TypeList
	TypeSet
	TypeHash
	TypeZSet
)

// String returns the name reported by TYPE
func (t DataType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeSet:
		return "set"
	case TypeHash:
		return "hash"
	case TypeZSet:
		return "zset"
	default:
		return "none"
	}
}

// Entity is the value stored under a key. Only the field matching Type is used.
type Entity struct {
	Type DataType
	Str  string
	List []string
	Hash map[string]string
	Set  map[string]struct{}
	ZSet *zset.SortedSet
}

func NewString(s string) *Entity {
	return &Entity{Type: TypeString, Str: s}
}

// NewEntity returns an empty container of the given type
func NewEntity(t DataType) *Entity {
	e := &Entity{Type: t}
	switch t {
	case TypeList:
		e.List = []string{}
	case TypeHash:
		e.Hash = make(map[string]string)
	case TypeSet:
		e.Set = make(map[string]struct{})
	case TypeZSet:
		e.ZSet = zset.New()
	}
	return e
}

// Empty reports whether a collection holds no elements. Strings are never empty.
func (e *Entity) Empty() bool {
	switch e.Type {
	case TypeList:
		return len(e.List) == 0
	case TypeHash:
		return len(e.Hash) == 0
	case TypeSet:
		return len(e.Set) == 0
	case TypeZSet:
		return e.ZSet.Len() == 0
	default:
		return false
	}
}

// Clone returns a deep copy
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	c := &Entity{Type: e.Type, Str: e.Str}
	switch e.Type {
	case TypeList:
		c.List = slices.Clone(e.List)
	case TypeHash:
		c.Hash = maps.Clone(e.Hash)
	case TypeSet:
		c.Set = maps.Clone(e.Set)
	case TypeZSet:
		c.ZSet = e.ZSet.Clone()
	}
	return c
}

// Equal compares type and contents. Two nil entities are equal.
func (e *Entity) Equal(o *Entity) bool {
	if e == nil || o == nil {
		return e == nil && o == nil
	}
	if e.Type != o.Type {
		return false
	}
	switch e.Type {
	case TypeString:
		return e.Str == o.Str
	case TypeList:
		return slices.Equal(e.List, o.List)
	case TypeHash:
		return maps.Equal(e.Hash, o.Hash)
	case TypeSet:
		return maps.Equal(e.Set, o.Set)
	case TypeZSet:
		return e.ZSet.Equal(o.ZSet)
	}
	return true
}
