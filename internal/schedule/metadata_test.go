package schedule

import (
	"errors"
	"testing"
)

func TestParseMetadataGroup(t *testing.T) {
	tests := []struct {
		group string
		want  Metadata
	}{
		{"100234 45 F", Metadata{MRN: "100234", Age: "45", Sex: "F"}},
		{"  100234   45   M  ", Metadata{MRN: "100234", Age: "45", Sex: "M"}},
		{"123 4 mths F", Metadata{MRN: "123", Age: "4 mths", Sex: "F"}},
		{"123 45 F Non binary", Metadata{MRN: "123", Age: "45", Sex: "F", GenderIdentity: "Non binary"}},
		{"", Metadata{}},
	}
	for _, tt := range tests {
		got, err := ParseMetadataGroup(tt.group)
		if err != nil {
			t.Errorf("ParseMetadataGroup(%q) error: %v", tt.group, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMetadataGroup(%q) = %+v, want %+v", tt.group, got, tt.want)
		}
	}
}

func TestParseMetadataGroup_Malformed(t *testing.T) {
	got, err := ParseMetadataGroup("100234 45")
	var mErr *MalformedMetadataGroupError
	if !errors.As(err, &mErr) {
		t.Fatalf("expected MalformedMetadataGroupError, got %v", err)
	}
	if mErr.Tokens != 2 {
		t.Fatalf("Tokens = %d, want 2", mErr.Tokens)
	}
	if got.MRN != "100234" || got.Age != "45" || got.Sex != "" {
		t.Fatalf("partial metadata = %+v", got)
	}
}
