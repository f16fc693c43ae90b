package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const caseText = "OR 3\n\n09:00\n09:45\n30\nJane Doe appendectomy"

func writeCase(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(caseText), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	return newApp().Run(context.Background(), append([]string{"orschedule"}, args...))
}

func TestParseCommand_WritesEnvelope(t *testing.T) {
	dir := t.TempDir()
	in := writeCase(t, dir, "day.txt")
	dest := filepath.Join(dir, "day.out.json")

	if err := run(t, "parse", "--out", dest, in); err != nil {
		t.Fatalf("parse: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var env struct {
		Status string `json:"status"`
		Data   struct {
			Company    *string                     `json:"company"`
			ORSections map[string][]map[string]any `json:"or_sections"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	if env.Status != "success" || env.Data.Company != nil {
		t.Fatalf("envelope = %s", data)
	}
	entries := env.Data.ORSections["OR 3"]
	if len(entries) != 1 || entries[0]["surgeon"] != "Jane Doe" || entries[0]["procedure"] != "appendectomy" {
		t.Fatalf("or_sections = %v", env.Data.ORSections)
	}
}

func TestParseCommand_MissingArgument(t *testing.T) {
	err := run(t, "parse")
	if err == nil || !strings.Contains(err.Error(), "file argument is required") {
		t.Fatalf("err = %v", err)
	}
}

func TestExportCommand_WritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	in := writeCase(t, dir, "day.txt")
	dest := filepath.Join(dir, "day.xlsx")

	if err := run(t, "export", "--out", dest, in); err != nil {
		t.Fatalf("export: %v", err)
	}
	f, err := excelize.OpenFile(dest)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()
	sheets := f.GetSheetList()
	if !slices.Contains(sheets, "Summary") || !slices.Contains(sheets, "OR 3") {
		t.Fatalf("sheets = %v", sheets)
	}
}

func TestBatchCommand_WritesOneFilePerDocument(t *testing.T) {
	in := t.TempDir()
	writeCase(t, in, "monday.txt")
	writeCase(t, in, "tuesday.txt")
	if err := os.WriteFile(filepath.Join(in, "notes.docx"), []byte("skip me"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "results")

	if err := run(t, "batch", "--out-dir", out, in); err != nil {
		t.Fatalf("batch: %v", err)
	}
	for _, name := range []string{"monday.json", "tuesday.json"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "notes.json")); !os.IsNotExist(err) {
		t.Errorf("notes.docx should be skipped, stat err = %v", err)
	}
}
