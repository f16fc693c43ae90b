package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/or-schedule/constants"
)

// AllowedExt checks if a file extension is in the default set.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// ExtSet builds a lookup of normalized extensions, falling back to the
// default set when exts is empty.
func ExtSet(exts []string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, e := range exts {
		if e = constants.NormalizeExt(e); e != "" {
			set[e] = struct{}{}
		}
	}
	if len(set) == 0 {
		return constants.AllowedExtensions
	}
	return set
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}
