package schedule

import "strings"

// Cursor is a forward-only reader over an immutable line sequence.
type Cursor struct {
	lines []string
	pos   int
}

// NewCursor returns a cursor positioned at the first line.
func NewCursor(lines []string) *Cursor {
	return &Cursor{lines: lines}
}

// Len returns the number of unread lines.
func (c *Cursor) Len() int { return len(c.lines) - c.pos }

// Empty reports whether every line has been consumed.
func (c *Cursor) Empty() bool { return c.Len() <= 0 }

// Peek returns the current line, or "" when the cursor is exhausted.
func (c *Cursor) Peek() string {
	s, _ := c.PeekAt(0)
	return s
}

// PeekAt returns the line i positions ahead of the current one.
func (c *Cursor) PeekAt(i int) (string, bool) {
	if i < 0 || c.pos+i >= len(c.lines) {
		return "", false
	}
	return c.lines[c.pos+i], true
}

// Pop consumes and returns the current line.
func (c *Cursor) Pop() string {
	s := c.Peek()
	c.Skip(1)
	return s
}

// Skip consumes up to n lines.
func (c *Cursor) Skip(n int) {
	c.pos += n
	if c.pos > len(c.lines) {
		c.pos = len(c.lines)
	}
}

// Rest returns the unread lines. Callers must not modify the slice.
func (c *Cursor) Rest() []string {
	return c.lines[c.pos:]
}

// NextBlock returns the next delimited block and advances past its opening
// delimiter and its lines. The closing delimiter is left in place so it can
// open the following block.
func (c *Cursor) NextBlock() string {
	block, n := ExtractNextBlock(c.Rest())
	c.Skip(n)
	return block
}

// PeekBlock returns the next delimited block without consuming it.
func (c *Cursor) PeekBlock() string {
	block, _ := ExtractNextBlock(c.Rest())
	return block
}

// ExtractNextBlock skips everything up to and including the first delimiter,
// collects lines up to the next delimiter and returns them joined with
// newlines and trimmed. consumed counts the lines scanned, excluding the
// closing delimiter. Without a closing delimiter the trailing content is
// returned.
func ExtractNextBlock(lines []string) (block string, consumed int) {
	var (
		collected []string
		open      bool
	)
	for i, ln := range lines {
		if IsDelimiter(ln) {
			if open {
				return strings.TrimSpace(strings.Join(collected, "\n")), i
			}
			open = true
			continue
		}
		if open {
			collected = append(collected, ln)
		}
	}
	return strings.TrimSpace(strings.Join(collected, "\n")), len(lines)
}
