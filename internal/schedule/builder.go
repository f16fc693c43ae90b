package schedule

import (
	"log/slog"
	"strings"
)

// builder holds the per-document parse state. The outer cursor owns the
// document position; the block cursor owns the case block being read and is
// replaced for every new block.
type builder struct {
	logger    *slog.Logger
	legacyPop bool

	outer *Cursor
	block *Cursor

	currentOR string
	worklist  []string
	entry     Entry
	sections  Sections
	stats     Stats
}

func newBuilder(prepared string, logger *slog.Logger, legacyPop bool) *builder {
	lines := strings.Split(prepared, "\n")
	return &builder{
		logger:    logger,
		legacyPop: legacyPop,
		outer:     NewCursor(lines),
		block:     NewCursor(nil),
		worklist:  ORSections(prepared),
		stats:     Stats{Lines: len(lines)},
	}
}

func (b *builder) run() {
	for b.outer.Len() > 1 {
		if b.seekORContext() {
			continue
		}
		if b.outer.Len() <= 1 {
			break
		}
		next, _ := b.outer.PeekAt(1)
		if IsDelimiter(b.outer.Peek()) && HasTime(next) {
			b.block = NewCursor(splitTrimmed(b.outer.NextBlock()))
			b.stats.Blocks++
			b.consumeBlock()
			continue
		}
		b.outer.Skip(1)
	}
}

// seekORContext inspects the outer head for an OR label. It reports whether
// lines were consumed.
func (b *builder) seekORContext() bool {
	line := strings.TrimSpace(b.outer.Peek())
	if !IsORLabel(line) {
		return false
	}
	switch {
	case containsDigit(line):
		b.setOR(line)
		b.outer.Skip(1)
		return true
	case line == CancelledRoom:
		// position of CANCELLED is unreliable; queue it for reconciliation
		b.setOR(line)
		b.sections.Ensure(line)
		b.worklist = append([]string{line}, b.worklist...)
	case line == "OR":
		room, ok := b.outer.PeekAt(1)
		if ok && strings.TrimSpace(room) != "" && !IsDelimiter(room) {
			b.setOR("OR " + strings.TrimSpace(room))
			b.outer.Skip(2)
			return true
		}
	}
	return false
}

// setOR switches the current OR. A header in the document stream only gets
// a section once an entry is filed under it.
func (b *builder) setOR(label string) {
	if label != b.currentOR {
		b.logger.Debug("schedule.or_context", "or", label)
	}
	b.currentOR = label
}

// setBlockOR switches the current OR for a label seen inside a case block,
// which always registers its section.
func (b *builder) setBlockOR(label string) {
	b.setOR(label)
	b.sections.Ensure(label)
}

func (b *builder) consumeBlock() {
	for !b.block.Empty() {
		line := b.block.Peek()

		if t, ok := CanonicalTime(line); ok && startsWithDigit(line) {
			e := &b.entry
			if e.StartTime == "" && e.EndTime == "" && e.Duration == "" {
				e.StartTime = t
				b.block.Skip(1)
				if end, ok := CanonicalTime(b.block.Peek()); ok {
					e.EndTime = end
					b.block.Skip(1)
					b.completeTimedCase()
					return
				}
				e.Age = ageFrom(b.block)
				b.block.Skip(1)
				continue
			}
			if e.StartTime != "" && e.EndTime == "" && e.Duration == "" {
				e.EndTime = t
				dur, _ := b.block.PeekAt(1)
				e.Duration = strings.TrimSpace(dur)
				b.finalize()
				b.block.Skip(1)
				continue
			}
		}

		if (line == "F" || line == "M") && b.entry.StartTime != "" {
			b.completeSexRow()
			continue
		}

		if IsORLabel(line) {
			b.blockORLabel(line)
			continue
		}

		b.block.Skip(1)
	}
}

// completeTimedCase handles a block that opened with a start/end pair: an
// optional duration, the surgeon/procedure line(s), then the trailing field
// groups pulled from the outer stream.
func (b *builder) completeTimedCase() {
	e := &b.entry
	if isDigits(b.block.Peek()) {
		e.Duration = b.block.Pop()
	}

	rest := b.block.Rest()
	switch {
	case len(rest) >= 2 || (len(rest) == 1 && len(strings.Fields(rest[0])) > 2):
		b.assignSurgeonProcedure()
		b.pullTrailingGroups()
	case len(rest) == 1:
		e.Surgeon = rest[0]
		e.Procedure = b.outer.NextBlock()
	}

	b.block.Skip(b.block.Len())
	b.finalize()
}

func (b *builder) assignSurgeonProcedure() {
	e := &b.entry
	head := b.block.Peek()
	toks := strings.Fields(head)

	switch {
	case len(toks) > 2:
		e.Surgeon = strings.Join(toks[:2], " ")
		e.Procedure = strings.Join(toks[2:], " ")
	case len(toks) > 0:
		e.Surgeon = b.block.Pop()
		e.Procedure = strings.Join(b.block.Rest(), " ")
		next, ok := b.block.PeekAt(0)
		if !ok || len(strings.Fields(next)) >= 2 {
			return
		}
		// surgeon name split over two short lines
		e.Surgeon += " " + b.block.Pop()
		e.Procedure = ""
		more, ok := b.block.PeekAt(0)
		if !ok {
			return
		}
		if len(strings.Fields(more)) != 1 {
			joined := strings.Join(b.block.Rest(), " ")
			e.Procedure = strings.TrimSpace(strings.ReplaceAll(joined, e.Surgeon, ""))
		} else {
			e.Surgeon += " " + b.block.Pop()
		}
	default:
		e.Surgeon = strings.TrimSpace(strings.Join(b.block.Rest(), " "))
	}
}

// pullTrailingGroups reads procedure (when still unset), anesthesia, tags and
// the metadata group from the blocks that follow the case block, then folds a
// following non-time, non-OR block into the procedure.
func (b *builder) pullTrailingGroups() {
	e := &b.entry
	if e.Procedure == "" {
		e.Procedure = b.outer.NextBlock()
	}
	e.Anesthesia = b.outer.NextBlock()
	e.Tags = b.outer.NextBlock()

	meta, err := ParseMetadataGroup(b.outer.NextBlock())
	if err != nil {
		b.stats.MalformedMetadata++
		b.logger.Debug("schedule.metadata.malformed", "error", err, "start_time", e.StartTime)
	}
	e.MRN, e.Age, e.Sex, e.GenderIdentity = meta.MRN, meta.Age, meta.Sex, meta.GenderIdentity

	next := b.outer.PeekBlock()
	if next == "" {
		return
	}
	first, _, _ := strings.Cut(next, "\n")
	if HasTime(first) || IsORLabel(first) {
		return
	}
	if e.Procedure == "" {
		e.Procedure = next
	} else {
		e.Procedure += "\n" + next
	}
	b.outer.NextBlock()
}

// sexRow is the positional layout that follows a bare F/M line.
var sexRow = []positionalField{
	{name: "sex", assign: func(e *Entry, v string) { e.Sex = v }},
	{name: "duration", assign: func(e *Entry, v string) { e.Duration = v }},
	{name: "performing_physician", assign: func(e *Entry, v string) { e.Surgeon = v }},
	{name: "anesthesia", assign: func(e *Entry, v string) { e.Anesthesia = v }},
}

type positionalField struct {
	name   string
	assign func(e *Entry, v string)
}

// applyPositional assigns the next len(schema) lines of c to the schema's
// fields in order and consumes them. Missing lines assign "".
func applyPositional(e *Entry, c *Cursor, schema []positionalField) {
	for i, f := range schema {
		v, _ := c.PeekAt(i)
		f.assign(e, strings.TrimSpace(v))
	}
	c.Skip(len(schema))
}

func (b *builder) completeSexRow() {
	e := &b.entry
	applyPositional(e, b.block, sexRow)
	if e.StartTime == "" || e.Duration == "" {
		return
	}
	if end, ok := EndTime(e.StartTime, e.Duration); ok {
		e.EndTime = end
	}
	if e.Procedure == "" {
		e.Procedure = b.outer.NextBlock()
	}
	b.finalize()
}

func (b *builder) blockORLabel(line string) {
	label := strings.TrimSpace(line)
	switch {
	case containsDigit(label):
		b.setBlockOR(label)
		b.block.Skip(1)
	case label == "OR":
		room, ok := b.block.PeekAt(1)
		if ok && strings.TrimSpace(room) != "" {
			b.setBlockOR("OR " + strings.TrimSpace(room))
			b.block.Skip(2)
			return
		}
		b.block.Skip(1)
	case label == CancelledRoom:
		b.setBlockOR(label)
		b.block.Skip(1)
	default:
		b.block.Skip(1)
	}
}

// finalize files a copy of the entry under the current OR, falling back to
// the worklist, and starts a fresh entry. Entries without a start time are
// abandoned.
func (b *builder) finalize() {
	e := b.entry
	b.entry = Entry{}
	if e.StartTime == "" {
		return
	}

	room := b.currentOR
	if room == "" && len(b.worklist) > 0 {
		room = b.worklist[0]
		b.worklist = b.worklist[1:]
		if b.legacyPop && len(b.worklist) > 0 {
			b.worklist = b.worklist[1:]
		}
		b.currentOR = room
	}
	if room == "" {
		b.stats.Rejected++
		b.logger.Debug("schedule.entry.rejected", "reason", "no_or_context", "start_time", e.StartTime)
		return
	}

	b.sections.Append(room, e)
	b.stats.Entries++
	b.logger.Debug("schedule.entry.ok", "or", room, "start_time", e.StartTime, "end_time", e.EndTime)
}

// ageFrom reads the age that follows a lone start time: a bare number on the
// current or next line, or a "mths" value on the current line.
func ageFrom(c *Cursor) string {
	cur := c.Peek()
	if isDigits(cur) {
		return cur
	}
	if next, ok := c.PeekAt(1); ok && isDigits(next) {
		return next
	}
	if strings.Contains(cur, "mths") {
		return cur
	}
	return ""
}

func splitTrimmed(block string) []string {
	lines := strings.Split(block, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines
}
