package schedule

import (
	"regexp"
	"strings"
)

var reBlankRun = regexp.MustCompile(`\n\s*\n`)

// Prepare turns extracted page text into the delimiter-annotated stream the
// builder consumes: blank-line runs become delimiters, boilerplate lines are
// dropped and every logical record is isolated into its own block.
func Prepare(text string) string {
	return Segment(DropNoise(MarkBlankLines(text)))
}

// MarkBlankLines replaces every run of blank lines with a delimiter line.
func MarkBlankLines(text string) string {
	return reBlankRun.ReplaceAllString(text, "\n"+Delimiter+"\n")
}

// DropNoise removes every line classified as report boilerplate.
func DropNoise(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, ln := range lines {
		if IsNoise(ln) {
			continue
		}
		kept = append(kept, ln)
	}
	return strings.Join(kept, "\n")
}

// Segment inserts delimiters so each block holds one logical record. The
// rules run per existing block in a fixed order:
//
//  1. bulleted lines ahead of the first "N - label" line become their own block
//  2. a procedure anchor line followed by a bullet closes its block
//  3. a numeric code opens a new block
//  4. a time line opens a new block unless the previous line is also a time
//
// Empty blocks are dropped and every surviving block is preceded by a
// delimiter. Segment is idempotent.
func Segment(text string) string {
	var out []string
	for _, chunk := range splitChunks(text) {
		lines := splitLeadingMarker(chunk)
		lines = splitProcedureAnchors(lines)
		lines = anchorBoundaries(lines)
		// the rules above can cut off whitespace-only sub-blocks
		for _, block := range splitChunks(strings.Join(lines, "\n")) {
			out = append(out, Delimiter)
			out = append(out, block...)
		}
	}
	return strings.Join(out, "\n")
}

// splitChunks splits text at delimiter lines, skipping blank chunks.
func splitChunks(text string) [][]string {
	var (
		chunks  [][]string
		current []string
	)
	flush := func() {
		if len(current) > 0 && strings.TrimSpace(strings.Join(current, "")) != "" {
			chunks = append(chunks, current)
		}
		current = nil
	}
	for _, ln := range strings.Split(text, "\n") {
		if IsDelimiter(ln) {
			flush()
			continue
		}
		current = append(current, ln)
	}
	flush()
	return chunks
}

func splitLeadingMarker(lines []string) []string {
	idx := -1
	for i, ln := range lines {
		if IsNumberedLabel(ln) {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return lines
	}
	bullet := false
	for _, ln := range lines[:idx] {
		if strings.TrimSpace(ln) == "" {
			return lines
		}
		if IsBullet(ln) {
			bullet = true
		}
	}
	if !bullet {
		return lines
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:idx]...)
	out = append(out, Delimiter)
	return append(out, lines[idx:]...)
}

func splitProcedureAnchors(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i, ln := range lines {
		out = append(out, ln)
		if i+1 < len(lines) && IsProcedureAnchor(ln) && IsBullet(lines[i+1]) {
			out = append(out, Delimiter)
		}
	}
	return out
}

func anchorBoundaries(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		if IsNumericCode(ln) && len(out) > 0 && !IsDelimiter(out[len(out)-1]) {
			out = append(out, Delimiter)
		}
		if HasTime(ln) && len(out) > 0 {
			last := out[len(out)-1]
			if !HasTime(last) && !IsDelimiter(last) {
				out = append(out, Delimiter)
			}
		}
		out = append(out, ln)
	}
	return out
}
