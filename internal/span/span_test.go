package span

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		length int
		start  int
		end    int
		wantLo int
		wantHi int
		empty  bool
	}{
		{"whole range", 5, 0, -1, 0, 4, false},
		{"positive slice", 5, 1, 3, 1, 3, false},
		{"negative start", 5, -2, -1, 3, 4, false},
		{"end past length", 5, 2, 100, 2, 4, false},
		{"start before head", 5, -100, 1, 0, 1, false},
		{"start past tail", 5, 10, 20, 5, 4, true},
		{"inverted", 5, 3, 1, 3, 1, true},
		{"empty sequence", 0, 0, -1, 0, -1, true},
		{"end before head", 5, 0, -100, 0, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := Resolve(tt.length, tt.start, tt.end)
			assert.Equal(t, tt.wantLo, lo)
			assert.Equal(t, tt.wantHi, hi)
			assert.Equal(t, tt.empty, Empty(lo, hi))
		})
	}
}
