package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// FileFunc handles one matching file. It reports whether the file was a
// duplicate; an error counts the file as failed without stopping the scan.
type FileFunc func(ctx context.Context, path string) (dedup bool, err error)

// ScanDirectory walks root, filters by exts (nil means the default set),
// skips hidden entries if requested and calls fn for each file in lexical
// order. The walk stops early only when ctx is done.
func ScanDirectory(ctx context.Context, root string, exts map[string]struct{}, skipHidden bool, fn FileFunc) (DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return stats, errors.New("root_path is required")
	}
	if exts == nil {
		exts = ExtSet(nil)
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Failed++
			return nil // continue walking
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !allowed(path, exts) {
			return nil
		}
		stats.Matched++

		dedup, err := fn(ctx, path)
		switch {
		case err != nil:
			stats.Failed++
		case dedup:
			stats.Succeeded++
			stats.Deduplicated++
		default:
			stats.Succeeded++
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("walk: %w", err)
	}
	return stats, nil
}
