package resp

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// FromResult converts a command result into a reply.
// Booleans become integers 1/0, floats and unsigned cursors become bulk strings,
// maps are flattened into field/value arrays ordered by field.
func FromResult(v any, err error) Value {
	if err != nil {
		return Err(err.Error())
	}

	switch x := v.(type) {
	case nil:
		return NilBulk()
	case Value:
		return x
	case string:
		return Bulk(x)
	case []byte:
		return Bulk(string(x))
	case int:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint64:
		return Bulk(strconv.FormatUint(x, 10))
	case bool:
		return Bool(x)
	case float64:
		return Bulk(strconv.FormatFloat(x, 'g', -1, 64))
	case *float64:
		if x == nil {
			return NilBulk()
		}
		return Bulk(strconv.FormatFloat(*x, 'g', -1, 64))
	case []string:
		return Strings(x)
	case []any:
		elems := make([]Value, len(x))
		for i, el := range x {
			elems[i] = FromResult(el, nil)
		}
		return Array(elems...)
	case map[string]string:
		elems := make([]Value, 0, 2*len(x))
		for _, f := range slices.Sorted(maps.Keys(x)) {
			elems = append(elems, Bulk(f), Bulk(x[f]))
		}
		return Array(elems...)
	case error:
		return Err(x.Error())
	default:
		return Bulk(fmt.Sprint(x))
	}
}
