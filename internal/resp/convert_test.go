package resp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromResult(t *testing.T) {
	score := 2.5

	tests := []struct {
		name string
		in   any
		err  error
		want Value
	}{
		{"nil", nil, nil, NilBulk()},
		{"string", "bar", nil, Bulk("bar")},
		{"int64", int64(-3), nil, Int(-3)},
		{"true", true, nil, Int(1)},
		{"value passes through", Queued, nil, Queued},
		{"false", false, nil, Int(0)},
		{"float", 1.5, nil, Bulk("1.5")},
		{"float pointer", &score, nil, Bulk("2.5")},
		{"nil float pointer", (*float64)(nil), nil, NilBulk()},
		{"cursor", uint64(17), nil, Bulk("17")},
		{"error", "ignored", errors.New("ERR boom"), Err("ERR boom")},
		{
			"strings",
			[]string{"a", "b"},
			nil,
			Array(Bulk("a"), Bulk("b")),
		},
		{
			"nested",
			[]any{"one", int64(1), nil, []string{"x"}},
			nil,
			Array(Bulk("one"), Int(1), NilBulk(), Array(Bulk("x"))),
		},
		{
			"map sorted by field",
			map[string]string{"b": "2", "a": "1"},
			nil,
			Array(Bulk("a"), Bulk("1"), Bulk("b"), Bulk("2")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromResult(tt.in, tt.err))
		})
	}
}
