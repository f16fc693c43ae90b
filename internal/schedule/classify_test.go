package schedule

import (
	"reflect"
	"testing"
)

func TestFindTime(t *testing.T) {
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"09:00", "09:00", true},
		{"7:30 AM", "7:30", true},
		{"1:30PM", "1:30", true},
		{"Start 23:59 late", "23:59", true},
		{"24:00", "", false},
		{"no time here", "", false},
		{"56932-1", "", false},
	}
	for _, tt := range tests {
		got, ok := FindTime(tt.line)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FindTime(%q) = %q, %v; want %q, %v", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsNumericCode(t *testing.T) {
	tests := map[string]bool{
		"56932-1":   true,
		" 12-3 ":    true,
		"56932-1a":  false,
		"1 - Bone":  false,
		"09:00":     false,
		"123":       false,
		"12-34-567": false,
	}
	for line, want := range tests {
		if got := IsNumericCode(line); got != want {
			t.Errorf("IsNumericCode(%q) = %v, want %v", line, got, want)
		}
	}
}

func TestIsORLabel(t *testing.T) {
	tests := map[string]bool{
		"OR 3":            true,
		"  OR 12  ":       true,
		"OR3":             true,
		"OR":              true,
		"CANCELLED":       true,
		"Room OR 4 Main":  true,
		"ORIF LEFT ANKLE": false,
		"DOCTOR SMITH":    false,
		"or 3":            false,
		"":                false,
	}
	for line, want := range tests {
		if got := IsORLabel(line); got != want {
			t.Errorf("IsORLabel(%q) = %v, want %v", line, got, want)
		}
	}
}

func TestIsNoise(t *testing.T) {
	tests := map[string]bool{
		"Page":                      true,
		"Start":                     true,
		"  Dur.  ":                  true,
		"Gender Identity":           true,
		"Start End Dur. Surgeon":    true,
		"Page 2 of 3":               true,
		"Printed: 01/02/2024 10:33": true,
		"<image: DeviceRGB, w: 20>": true,
		"Endoscopy":                 false,
		"Agency":                    false,
		"Start of case":             false,
		"09:00":                     false,
		"":                          false,
	}
	for line, want := range tests {
		if got := IsNoise(line); got != want {
			t.Errorf("IsNoise(%q) = %v, want %v", line, got, want)
		}
	}
}

func TestIsProcedureAnchor(t *testing.T) {
	if !IsProcedureAnchor("Left hip injection") {
		t.Fatal("expected hip injection to be an anchor")
	}
	if !IsProcedureAnchor("LUMBAR EPIDURAL L4-5") {
		t.Fatal("expected lumbar epidural to be an anchor")
	}
	if IsProcedureAnchor("knee arthroscopy") {
		t.Fatal("knee arthroscopy is not an anchor")
	}
}

func TestIsNumberedLabelAndBullet(t *testing.T) {
	if !IsNumberedLabel("1 - Medical") || !IsNumberedLabel("12-Other") {
		t.Fatal("expected numbered labels")
	}
	if IsNumberedLabel("Medical 1 - x") {
		t.Fatal("label must start with the number")
	}
	if !IsBullet("  *Latex allergy") || IsBullet("Latex *") {
		t.Fatal("bullet detection wrong")
	}
}

func TestORSections(t *testing.T) {
	got := ORSections("OR 1\nfoo OR 2 bar\nOR3")
	want := []string{"OR 1", "OR 2", "OR3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ORSections = %v, want %v", got, want)
	}
	if got := ORSections("no rooms"); len(got) != 0 {
		t.Fatalf("expected no sections, got %v", got)
	}
}
