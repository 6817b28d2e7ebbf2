package glob

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"*", "", true},
		{"*", "anything", true},
		{"key_*", "key_abc_1", true},
		{"key_*", "other", false},
		{"*abc*", "key_abc_1", true},
		{"*_1", "key_xyz_1", true},
		{"*_1", "key_xyz_10", false},
		{"h?llo", "hello", true},
		{"h?llo", "heello", false},
		{"h[ae]llo", "hallo", true},
		{"h[ae]llo", "hillo", false},
		{"h[^e]llo", "hallo", true},
		{"h[^e]llo", "hello", false},
		{"h[!e]llo", "hello", false},
		{"h[a-c]llo", "hbllo", true},
		{"h[a-c]llo", "hdllo", false},
		{`h\*llo`, "h*llo", true},
		{`h\*llo`, "hello", false},
		{"a.b", "a.b", true},
		{"a.b", "axb", false},
		{"[unclosed", "[unclosed", true},
		{"multi\nline*", "multi\nline\nrest", true},
		{"[]]", "]", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.pattern, tt.input))
		})
	}
}

func TestTranslateIsAnchored(t *testing.T) {
	re, err := Compile("abc")
	require.NoError(t, err)

	assert.True(t, re.MatchString("abc"))
	assert.False(t, re.MatchString("xabc"))
	assert.False(t, re.MatchString("abcx"))
}

func FuzzTranslate(f *testing.F) {
	f.Add("key_*")
	f.Add("[a-z]?")
	f.Add(`\[literal\]`)

	f.Fuzz(func(t *testing.T, literal string) {
		if strings.ContainsAny(literal, `*?[]\`) {
			t.Skip()
		}
		// a pattern without metacharacters matches exactly itself
		re, err := Compile(literal)
		if err != nil {
			t.Fatalf("compile %q: %v", literal, err)
		}
		if !re.MatchString(literal) {
			t.Errorf("pattern %q does not match itself", literal)
		}
	})
}
