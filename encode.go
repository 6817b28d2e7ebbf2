package moonmock

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// encode converts a value to the canonical string form under which it is stored
func encode(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case time.Duration:
		return strconv.FormatInt(int64(x), 10)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func encodeAll(vs []any) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = encode(v)
	}
	return out
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, errNotInteger
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return 0, errNotInteger
		}
		return int64(x), nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(encode(v)), 10, 64)
	if err != nil {
		return 0, errNotInteger
	}
	return n, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return 0, errNotFloat
		}
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(encode(v)), 64)
	if err != nil || math.IsNaN(f) {
		return 0, errNotFloat
	}
	return f, nil
}

// keyword reports whether v is the case-insensitive keyword kw
func keyword(v any, kw string) bool {
	return strings.EqualFold(encode(v), kw)
}
