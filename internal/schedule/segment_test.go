package schedule

import "testing"

func TestSegment(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "time opens block",
			in:   "=====\nfoo\n09:00\n09:45\n30\nbar",
			want: "=====\nfoo\n=====\n09:00\n09:45\n30\nbar",
		},
		{
			name: "consecutive times stay together",
			in:   "=====\n09:00\n09:45",
			want: "=====\n09:00\n09:45",
		},
		{
			name: "numeric code opens block",
			in:   "=====\nfoo\n56932-1\nbar",
			want: "=====\nfoo\n=====\n56932-1\nbar",
		},
		{
			name: "numeric code then time",
			in:   "=====\nfoo\n56932-1\n09:00",
			want: "=====\nfoo\n=====\n56932-1\n=====\n09:00",
		},
		{
			name: "procedure anchor before bullet",
			in:   "=====\nLEFT HIP INJECTION\n*fluoro\nmore",
			want: "=====\nLEFT HIP INJECTION\n=====\n*fluoro\nmore",
		},
		{
			name: "bullets ahead of numbered label",
			in:   "=====\n*allergy\n*latex\n1 - Medical\nfoo",
			want: "=====\n*allergy\n*latex\n=====\n1 - Medical\nfoo",
		},
		{
			name: "numbered label without bullets",
			in:   "=====\nfoo\n1 - Medical",
			want: "=====\nfoo\n1 - Medical",
		},
		{
			name: "empty blocks dropped",
			in:   "=====\n\n=====\n   \n=====\nfoo",
			want: "=====\nfoo",
		},
		{
			name: "leading delimiter added",
			in:   "foo\nbar",
			want: "=====\nfoo\nbar",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Segment(tt.in); got != tt.want {
				t.Fatalf("Segment() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestSegment_Idempotent(t *testing.T) {
	docs := []string{
		sampleDocument,
		"=====\n*a\n*b\n2 - Ortho\n56932-1\n10:00\n10:30\nfoo\nLUMBAR EPIDURAL\n*note",
		"x\n09:00\ny\n10:00\n11:00\n12-3\nz",
		"   \n09:00\n09:45\n30\nJane Doe x",
	}
	for _, doc := range docs {
		once := Segment(MarkBlankLines(doc))
		twice := Segment(once)
		if once != twice {
			t.Fatalf("Segment not idempotent:\nonce:  %q\ntwice: %q", once, twice)
		}
	}
}

func TestSegment_DropsBlankSubBlocks(t *testing.T) {
	got := Segment(MarkBlankLines("   \n09:00\n09:45\n30\nJane Doe x"))
	want := "=====\n09:00\n09:45\n30\nJane Doe x"
	if got != want {
		t.Fatalf("Segment() = %q, want %q", got, want)
	}
}

func TestPrepare(t *testing.T) {
	in := "OR 3\n\nStart\nEnd\n09:00\n09:45\n\n\n   \nPage 1 of 2"
	want := "=====\nOR 3\n=====\n09:00\n09:45"
	if got := Prepare(in); got != want {
		t.Fatalf("Prepare() = %q, want %q", got, want)
	}
}

func TestMarkBlankLines(t *testing.T) {
	got := MarkBlankLines("a\n\n \n\nb\nc")
	if got != "a\n=====\nb\nc" {
		t.Fatalf("MarkBlankLines() = %q", got)
	}
}
