package schedule

import "strings"

// DetectCompany returns the first facility whose name occurs in text,
// ignoring case, or nil when none does.
func DetectCompany(text string, facilities []string) *string {
	lower := strings.ToLower(text)
	for _, name := range facilities {
		needle := strings.ToLower(strings.TrimSpace(name))
		if needle == "" {
			continue
		}
		if strings.Contains(lower, needle) {
			found := name
			return &found
		}
	}
	return nil
}

// Assemble wraps the per-OR entries and the facility label into a Result.
func Assemble(company *string, sections Sections) Result {
	return Result{Company: company, ORSections: sections}
}
