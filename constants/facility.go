package constants

import "strings"

// KnownFacilities lists the facilities whose schedules the parser targets.
// The first name found in a document's text becomes its company label.
var KnownFacilities = []string{
	"Illinois Sports Medicine & Orthopedic Surgery CTR",
	"Golf Surgical Center",
	"Hawthorn Surgery Center",
}

// CanonicalFacility maps a free-form facility name onto the canonical entry
// of KnownFacilities, ignoring case and surrounding whitespace.
func CanonicalFacility(input string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	for _, name := range KnownFacilities {
		if normalized == strings.ToLower(name) {
			return name, true
		}
	}
	return "", false
}
