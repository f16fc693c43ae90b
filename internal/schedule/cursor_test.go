package schedule

import "testing"

func TestExtractNextBlock(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		block    string
		consumed int
	}{
		{"closed block", []string{"=====", "a", "b", "=====", "c"}, "a\nb", 3},
		{"leading junk skipped", []string{"x", "=====", "a"}, "a", 3},
		{"no delimiter", []string{"x", "y"}, "", 2},
		{"empty", nil, "", 0},
		{"trimmed", []string{"=====", "  a  ", "", "====="}, "a", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, n := ExtractNextBlock(tt.lines)
			if block != tt.block || n != tt.consumed {
				t.Fatalf("ExtractNextBlock() = %q, %d; want %q, %d", block, n, tt.block, tt.consumed)
			}
		})
	}
}

func TestCursor_NextBlock(t *testing.T) {
	c := NewCursor([]string{"=====", "a", "=====", "b", "c", "=====", "d"})

	if got := c.PeekBlock(); got != "a" {
		t.Fatalf("PeekBlock = %q", got)
	}
	if c.Len() != 7 {
		t.Fatalf("PeekBlock must not advance, Len = %d", c.Len())
	}
	if got := c.NextBlock(); got != "a" {
		t.Fatalf("first block = %q", got)
	}
	if !IsDelimiter(c.Peek()) {
		t.Fatalf("closing delimiter should remain, head = %q", c.Peek())
	}
	if got := c.NextBlock(); got != "b\nc" {
		t.Fatalf("second block = %q", got)
	}
	if got := c.NextBlock(); got != "d" {
		t.Fatalf("third block = %q", got)
	}
	if !c.Empty() {
		t.Fatalf("expected exhausted cursor, Len = %d", c.Len())
	}
	if got := c.NextBlock(); got != "" {
		t.Fatalf("exhausted NextBlock = %q", got)
	}
}

func TestCursor_PeekPopSkip(t *testing.T) {
	c := NewCursor([]string{"a", "b", "c"})
	if s, ok := c.PeekAt(2); !ok || s != "c" {
		t.Fatalf("PeekAt(2) = %q, %v", s, ok)
	}
	if _, ok := c.PeekAt(3); ok {
		t.Fatal("PeekAt past end should fail")
	}
	if _, ok := c.PeekAt(-1); ok {
		t.Fatal("negative PeekAt should fail")
	}
	if got := c.Pop(); got != "a" {
		t.Fatalf("Pop = %q", got)
	}
	c.Skip(10)
	if !c.Empty() || c.Peek() != "" || c.Pop() != "" {
		t.Fatal("cursor should be exhausted")
	}
	if len(c.Rest()) != 0 {
		t.Fatalf("Rest = %v", c.Rest())
	}
}
