package ocr

import (
	"regexp"
)

var (
	reClock   = regexp.MustCompile(`\b(?:[01]?\d|2[0-3]):[0-5]\d\b`)
	reORLabel = regexp.MustCompile(`\bOR ?\d+\b|\bCANCELLED\b`)
	reCode    = regexp.MustCompile(`(?m)^\s*\d+-\d+\s*$`)
)

func hasClockPattern(s string) bool       { return reClock.MatchString(s) }
func hasORPattern(s string) bool          { return reORLabel.MatchString(s) }
func hasNumericCodePattern(s string) bool { return reCode.MatchString(s) }

// naive heuristic confidence based on decoded text characteristics
func heuristicConfidence(txt string) float32 {
	// boost for schedule artifacts: clock times, OR labels, billing codes
	score := float32(0.2) // base
	if hasClockPattern(txt) {
		score += 0.3
	}
	if hasORPattern(txt) {
		score += 0.2
	}
	if hasNumericCodePattern(txt) {
		score += 0.1
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
