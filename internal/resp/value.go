package resp

import "fmt"

// Kind is the RESP type prefix of a reply
type Kind byte

const (
	KindStatus  Kind = '+'
	KindError   Kind = '-'
	KindInteger Kind = ':'
	KindBulk    Kind = '$'
	KindArray   Kind = '*'
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulk:
		return "bulk string"
	case KindArray:
		return "array"
	}
	return fmt.Sprintf("kind(%q)", byte(k))
}

// Value is one reply. Str carries status, error and bulk payloads, Int the
// integer payload and Elems the array elements. Nil marks the null bulk
// string and the null array.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Elems []Value
	Nil   bool
}

var (
	OK     = Status("OK")
	Queued = Status("QUEUED")
)

func Status(s string) Value { return Value{Kind: KindStatus, Str: s} }

func Err(msg string) Value { return Value{Kind: KindError, Str: msg} }

func Bulk(s string) Value { return Value{Kind: KindBulk, Str: s} }

func NilBulk() Value { return Value{Kind: KindBulk, Nil: true} }

func Int(n int64) Value { return Value{Kind: KindInteger, Int: n} }

// Bool replies 1 for true and 0 for false
func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

func Array(elems ...Value) Value { return Value{Kind: KindArray, Elems: elems} }

func NilArray() Value { return Value{Kind: KindArray, Nil: true} }

// Strings replies an array of bulk strings
func Strings(ss []string) Value {
	elems := make([]Value, len(ss))
	for i, s := range ss {
		elems[i] = Bulk(s)
	}
	return Array(elems...)
}
