package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joseph-ayodele/or-schedule/constants"
)

// FSIngestor reads documents from the local filesystem and submits each
// distinct content once per path.
type FSIngestor struct {
	Submitter   Submitter
	AllowedExts map[string]struct{} // lowercased sans '.'; nil -> default set
	Logger      *slog.Logger

	mu   sync.Mutex
	seen map[string]string // abs path -> sha256 hex of the last submitted content
}

func NewFSIngestor(s Submitter, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{Submitter: s, Logger: logger, seen: map[string]string{}}
}

func (i *FSIngestor) exts() map[string]struct{} {
	if i.AllowedExts == nil {
		return constants.AllowedExtensions
	}
	return i.AllowedExts
}

// IngestPath hashes path and submits it unless the same content was already
// submitted for that path.
func (i *FSIngestor) IngestPath(ctx context.Context, path string) (FileResult, error) {
	out := FileResult{Path: path}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	out.Path = abs
	out.FileExt = constants.NormalizeExt(filepath.Ext(abs))
	if out.FileExt == "" || !allowed(abs, i.exts()) {
		return out, fmt.Errorf("unsupported or missing extension: %q", out.FileExt)
	}

	hexHash, err := hashFile(abs)
	if err != nil {
		i.Logger.Warn("ingest.hash.failed", "path", abs, "error", err)
		return out, err
	}
	out.HashHex = hexHash

	i.mu.Lock()
	if i.seen[abs] == hexHash {
		i.mu.Unlock()
		out.Deduplicated = true
		i.Logger.Debug("ingest.dedup", "path", abs, "sha256", hexHash)
		return out, nil
	}
	i.seen[abs] = hexHash
	i.mu.Unlock()

	jobID, err := i.Submitter.Submit(ctx, abs)
	if err != nil {
		i.mu.Lock()
		delete(i.seen, abs)
		i.mu.Unlock()
		return out, fmt.Errorf("submit: %w", err)
	}
	out.JobID = jobID
	out.SubmittedAt = time.Now().UTC()
	i.Logger.Info("ingest.submitted", "path", abs, "job_id", jobID)
	return out, nil
}

// IngestDirectory scans root and ingests every matching file.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]FileResult, DirStats, error) {
	var results []FileResult
	stats, err := ScanDirectory(ctx, root, i.exts(), skipHidden, func(ctx context.Context, path string) (bool, error) {
		r, err := i.IngestPath(ctx, path)
		if err != nil {
			r.Err = err.Error()
		}
		results = append(results, r)
		return r.Deduplicated, err
	})
	return results, stats, err
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
