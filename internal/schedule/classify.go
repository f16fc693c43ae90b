package schedule

import (
	"regexp"
	"strings"
	"unicode"
)

// Delimiter is the block boundary marker shared by the text extractor,
// the segmenter and the cursors.
const Delimiter = "====="

var (
	reTime         = regexp.MustCompile(`\b(?:[01]?\d|2[0-3]):[0-5]\d(?:\s?[APap][Mm])?\b`)
	reMeridiem     = regexp.MustCompile(`\s?[APap][Mm]$`)
	reNumericCode  = regexp.MustCompile(`^\d+-\d+$`)
	reNumberDash   = regexp.MustCompile(`^\d+\s*-\s*`)
	reProcedure    = regexp.MustCompile(`(?i)(HIP INJECTION|LUMBAR EPIDURAL)`)
	reORSection    = regexp.MustCompile(`(OR ?\d+)(?:\s|$)`)
	reNoiseHeading = regexp.MustCompile(`^(?:(?:Start|End|Dur\.|Surgeon|Procedure|Anes\.|Allergies|Tags|MRN|Age|Sex|Gender Identity|Page|Printed)\s*)+$`)
	reNoiseFooter  = regexp.MustCompile(`^(?:Page\s+\d+|Printed\b)`)
)

// IsDelimiter reports whether line is the block boundary marker.
func IsDelimiter(line string) bool {
	return strings.TrimSpace(line) == Delimiter
}

// FindTime returns the first hour:minute token in line without its AM/PM
// suffix.
func FindTime(line string) (string, bool) {
	m := reTime.FindString(line)
	if m == "" {
		return "", false
	}
	return reMeridiem.ReplaceAllString(m, ""), true
}

// HasTime reports whether line carries an hour:minute token.
func HasTime(line string) bool {
	return reTime.MatchString(line)
}

// IsNumericCode reports whether line is exactly digits-dash-digits, such as a
// billing code. These lines only hint at record boundaries.
func IsNumericCode(line string) bool {
	return reNumericCode.MatchString(strings.TrimSpace(line))
}

// IsNumberedLabel reports whether line starts with "N -", e.g. "1 - Medical".
func IsNumberedLabel(line string) bool {
	return reNumberDash.MatchString(line)
}

// IsProcedureAnchor reports whether line names one of the procedures that are
// known to be followed by bulleted annotation lines.
func IsProcedureAnchor(line string) bool {
	return reProcedure.MatchString(line)
}

// IsBullet reports whether the trimmed line starts with '*'.
func IsBullet(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "*")
}

// IsORLabel reports whether the trimmed line carries an operating room token
// ("OR", "OR3") or the CANCELLED pseudo-room.
func IsORLabel(line string) bool {
	for _, tok := range strings.Fields(line) {
		if tok == CancelledRoom || tok == "OR" {
			return true
		}
		if strings.HasPrefix(tok, "OR") && isDigits(tok[2:]) {
			return true
		}
	}
	return false
}

// IsNoise reports whether line is report boilerplate (column headings, page
// footers, embedded image markers) that never contributes to a field.
func IsNoise(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "<image") {
		return true
	}
	return reNoiseHeading.MatchString(s) || reNoiseFooter.MatchString(s)
}

// ORSections returns every "OR N" label in text, in document order.
func ORSections(text string) []string {
	var out []string
	for _, m := range reORSection.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

func containsDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
