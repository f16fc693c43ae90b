package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/or-schedule/internal/schedule"
)

const (
	summarySheet  = "Summary"
	maxSheetName  = 31
	maxCellLength = 240
)

var entryHeaders = []string{
	"Start",
	"End",
	"Duration",
	"Surgeon",
	"Procedure",
	"Anesthesia",
	"Tags",
	"MRN",
	"Age",
	"Sex",
	"Gender Identity",
}

// Service renders parse results as XLSX workbooks.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// WriteXLSX returns a workbook with a Summary sheet and one sheet per OR key,
// in the order the keys appear in the result.
func (s *Service) WriteXLSX(res schedule.Result) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default workbook starts with Sheet1
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	company := ""
	if res.Company != nil {
		company = *res.Company
	}
	_ = f.SetCellValue(summarySheet, "A1", "Company")
	_ = f.SetCellValue(summarySheet, "B1", company)
	_ = f.SetCellValue(summarySheet, "A3", "OR")
	_ = f.SetCellValue(summarySheet, "B3", "Sheet")
	_ = f.SetCellValue(summarySheet, "C3", "Entries")

	used := map[string]bool{strings.ToLower(summarySheet): true}
	row := 4
	for _, key := range res.ORSections.Keys() {
		entries := res.ORSections.Entries(key)
		name := uniqueSheetName(SheetName(key), used)
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet %q: %w", name, err)
		}
		if err := writeEntries(f, name, entries); err != nil {
			return nil, err
		}

		_ = f.SetCellValue(summarySheet, cell(1, row), key)
		_ = f.SetCellValue(summarySheet, cell(2, row), name)
		_ = f.SetCellValue(summarySheet, cell(3, row), len(entries))
		row++
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 16)
	_ = f.SetColWidth(summarySheet, "B", "B", 48)
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"sections", res.ORSections.Len(),
		"entries", res.ORSections.Total(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeEntries(f *excelize.File, sheet string, entries []schedule.Entry) error {
	for i, h := range entryHeaders {
		if err := f.SetCellValue(sheet, cell(i+1, 1), h); err != nil {
			return fmt.Errorf("header %s: %w", h, err)
		}
	}
	for r, e := range entries {
		row := r + 2
		values := []string{
			e.StartTime, e.EndTime, e.Duration, e.Surgeon,
			truncate(e.Procedure, maxCellLength), e.Anesthesia, e.Tags,
			e.MRN, e.Age, e.Sex, e.GenderIdentity,
		}
		for c, v := range values {
			// strings keep MRNs and durations from turning into numbers
			_ = f.SetCellStr(sheet, cell(c+1, row), v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "C", 10) // times
	_ = f.SetColWidth(sheet, "D", "D", 26) // surgeon
	_ = f.SetColWidth(sheet, "E", "E", 60) // procedure
	_ = f.SetColWidth(sheet, "F", "G", 16)
	_ = f.SetColWidth(sheet, "H", "K", 12)
	return nil
}

// SheetName makes an OR key usable as a worksheet name: characters Excel
// rejects become spaces and the result is cut to 31 characters.
func SheetName(key string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return ' '
		}
		return r
	}, key)
	name = strings.Trim(strings.Join(strings.Fields(name), " "), "'")
	if name == "" {
		name = "OR"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}

// uniqueSheetName suffixes name when two OR keys sanitize to the same sheet.
// Excel compares sheet names case-insensitively.
func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		base := []rune(name)
		if len(base)+len(suffix) > maxSheetName {
			base = base[:maxSheetName-len(suffix)]
		}
		candidate = string(base) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
