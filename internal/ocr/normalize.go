package ocr

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reTimeLike   = regexp.MustCompile(`\b[0-9Oo]{1,2}:[0-9Oo]{2}\b`)
	reDashSpaced = regexp.MustCompile(`(\w)\s*([-\x{2013}\x{2014}])\s*(\w)`)
)

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_]{3,}\s*$`)

// Normalize applies NFKC, collapses noisy whitespace and repairs letter O
// read in place of a zero inside clock times ("O9:3O" -> "09:30").
// Line breaks are kept; more than two newlines collapse into one blank line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFKC.String(s)
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	s = reTimeLike.ReplaceAllStringFunc(s, fixTimeDigits)
	return strings.TrimSpace(s)
}

func fixTimeDigits(tok string) string {
	if strings.IndexAny(tok, "0123456789") < 0 {
		return tok
	}
	return strings.NewReplacer("O", "0", "o", "0").Replace(tok)
}

// collapseDashes removes whitespace around a hyphen, en dash or em dash that
// sits between two word characters. Tesseract tends to pad them.
func collapseDashes(s string) string {
	return reDashSpaced.ReplaceAllString(s, "$1$2$3")
}
