package schedule

import (
	"fmt"
	"strings"
)

// Metadata is the patient identifier group that trails a case:
// "MRN Age Sex [Gender Identity]".
type Metadata struct {
	MRN            string
	Age            string
	Sex            string
	GenderIdentity string
}

// MalformedMetadataGroupError reports a metadata group with fewer than the
// three expected tokens. The Metadata returned alongside it holds whatever
// tokens were present.
type MalformedMetadataGroupError struct {
	Group  string
	Tokens int
}

func (e *MalformedMetadataGroupError) Error() string {
	return fmt.Sprintf("malformed metadata group %q: %d of 3 tokens", e.Group, e.Tokens)
}

var ageUnits = map[string]struct{}{
	"mths": {}, "mth": {}, "mos": {}, "wks": {}, "days": {}, "yrs": {},
}

// ParseMetadataGroup splits a metadata group into its fields. An empty group
// yields empty metadata and no error.
func ParseMetadataGroup(group string) (Metadata, error) {
	toks := strings.Fields(group)
	if len(toks) == 0 {
		return Metadata{}, nil
	}
	// "NN mths" is one age value
	if len(toks) >= 3 && isDigits(toks[1]) {
		if _, ok := ageUnits[strings.ToLower(toks[2])]; ok {
			toks = append([]string{toks[0], toks[1] + " " + toks[2]}, toks[3:]...)
		}
	}

	m := Metadata{MRN: toks[0]}
	if len(toks) > 1 {
		m.Age = toks[1]
	}
	if len(toks) > 2 {
		m.Sex = toks[2]
	}
	if len(toks) > 3 {
		m.GenderIdentity = strings.Join(toks[3:], " ")
	}
	if len(toks) < 3 {
		return m, &MalformedMetadataGroupError{Group: group, Tokens: len(toks)}
	}
	return m, nil
}
