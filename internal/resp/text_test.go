package resp_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternalApril/moonmock/internal/resp"
)

func TestTextWriter_Write(t *testing.T) {
	tests := []struct {
		name     string
		input    resp.Value
		expected string
	}{
		{"integer", resp.Int(7), "(integer) 7\n"},
		{"status", resp.Status("OK"), "OK\n"},
		{"error", resp.Err("ERR boom"), "(error) ERR boom\n"},
		{"bulk", resp.Bulk("a \"b\""), "\"a \\\"b\\\"\"\n"},
		{"nil bulk", resp.NilBulk(), "(nil)\n"},
		{"nil array", resp.NilArray(), "(nil)\n"},
		{"empty array", resp.Array(), "(empty array)\n"},
		{
			"flat array",
			resp.Array(resp.Bulk("x"), resp.Int(2)),
			"1) \"x\"\n2) (integer) 2\n",
		},
		{
			"nested array",
			resp.Array(resp.Bulk("0"), resp.Strings([]string{"a", "b"})),
			"1) \"0\"\n2) 1) \"a\"\n   2) \"b\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := resp.NewTextWriter(&buf)
			require.NoError(t, w.Write(tt.input))
			require.NoError(t, w.Flush())
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestTextWriter_UnknownType(t *testing.T) {
	w := resp.NewTextWriter(&bytes.Buffer{})
	assert.Error(t, w.Write(resp.Value{Kind: '?'}))
}

func TestTextWriter_Reply(t *testing.T) {
	var buf bytes.Buffer
	w := resp.NewTextWriter(&buf)
	require.NoError(t, w.Reply(resp.Queued))
	assert.Equal(t, "QUEUED\n", buf.String())
}

func TestWriters_ImplementInterface(t *testing.T) {
	var _ resp.Writer = resp.NewEncoder(&bytes.Buffer{})
	var _ resp.Writer = resp.NewTextWriter(&bytes.Buffer{})
}
