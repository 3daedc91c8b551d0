package yangtree

import (
	"strings"
	"testing"
)

func TestSplitJoinParts(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantParts int
	}{
		{"empty", "", 1},
		{"small", "<root/>", 1},
		{"exactly one chunk", strings.Repeat("a", PartMaxSize), 1},
		{"two chunks", strings.Repeat("a", PartMaxSize+1), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := SplitParts(tt.input)
			if len(parts) != tt.wantParts {
				t.Errorf("SplitParts() returned %d parts, want %d", len(parts), tt.wantParts)
			}
			if got := JoinParts(parts); got != tt.input {
				t.Error("JoinParts() should reassemble the input")
			}
			for i, part := range parts {
				if len(part) > PartMaxSize {
					t.Errorf("part %d exceeds the size cap", i)
				}
			}
		})
	}
}
