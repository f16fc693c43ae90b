package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CancelledRoom is the pseudo-room collecting cancelled cases.
const CancelledRoom = "CANCELLED"

// Entry is one surgical case. Absent fields are empty strings.
type Entry struct {
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Duration       string `json:"duration"`
	Surgeon        string `json:"surgeon"`
	Procedure      string `json:"procedure"`
	Anesthesia     string `json:"anesthesia"`
	Tags           string `json:"tags"`
	MRN            string `json:"mrn"`
	Age            string `json:"age"`
	Sex            string `json:"sex"`
	GenderIdentity string `json:"gender_identity,omitempty"`
}

// Sections maps OR labels to their entries and remembers the order in which
// labels were first seen. The zero value is ready to use.
type Sections struct {
	keys    []string
	entries map[string][]Entry
}

// Ensure registers label with an empty entry list if it is not known yet.
func (s *Sections) Ensure(label string) {
	if s.entries == nil {
		s.entries = make(map[string][]Entry)
	}
	if _, ok := s.entries[label]; ok {
		return
	}
	s.keys = append(s.keys, label)
	s.entries[label] = []Entry{}
}

// Append files a copy of e under label.
func (s *Sections) Append(label string, e Entry) {
	s.Ensure(label)
	s.entries[label] = append(s.entries[label], e)
}

// Keys returns the labels in first-seen order.
func (s Sections) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Entries returns the entries filed under label.
func (s Sections) Entries(label string) []Entry {
	return s.entries[label]
}

// Len returns the number of labels.
func (s Sections) Len() int { return len(s.keys) }

// Total returns the number of entries across all labels.
func (s Sections) Total() int {
	n := 0
	for _, k := range s.keys {
		n += len(s.entries[k])
	}
	return n
}

// MarshalJSON encodes the sections as an object whose keys keep document order.
func (s Sections) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		entries := s.entries[k]
		if entries == nil {
			entries = []Entry{}
		}
		eb, err := json.Marshal(entries)
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of entry lists, preserving key order.
func (s *Sections) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	*s = Sections{}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("or_sections: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("or_sections: expected key, got %v", tok)
		}
		var entries []Entry
		if err := dec.Decode(&entries); err != nil {
			return fmt.Errorf("or_sections[%s]: %w", key, err)
		}
		s.Ensure(key)
		s.entries[key] = append(s.entries[key], entries...)
	}
	_, err = dec.Token()
	return err
}

// Result is the structured outcome for one document.
type Result struct {
	Company    *string  `json:"company"`
	ORSections Sections `json:"or_sections"`
}

// Stats counts what the builder did with a document. Rejected entries had no
// OR context to be filed under.
type Stats struct {
	Lines             int `json:"lines"`
	Blocks            int `json:"blocks"`
	Entries           int `json:"entries"`
	Rejected          int `json:"rejected"`
	MalformedMetadata int `json:"malformed_metadata"`
}
