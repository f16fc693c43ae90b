package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/or-schedule/constants"
)

func isHEIC(path string) bool {
	switch constants.NormalizeExt(filepath.Ext(path)) {
	case "heic", "heif":
		return true
	}
	return false
}

// heicToPNG converts a phone photo to PNG so tesseract can read it. The PNG
// is kept at {ArtifactCacheDir}/{sha256}.png and reused on later runs.
// cleanup is non-nil only when the result lives in a temp dir.
func (e *Extractor) heicToPNG(ctx context.Context, in string) (string, []string, func(), error) {
	hashHex, err := fileSHA256(in)
	if err != nil {
		return "", nil, nil, fmt.Errorf("hash %s: %w", in, err)
	}
	cached := filepath.Join(e.cfg.ArtifactCacheDir, hashHex+".png")
	if st, err := os.Stat(cached); err == nil && !st.IsDir() {
		e.logger.Debug("ocr.heic.cache_hit", "path", in, "cache", cached)
		return cached, nil, nil, nil
	}
	if err := os.MkdirAll(e.cfg.ArtifactCacheDir, 0o755); err != nil {
		return "", nil, nil, err
	}

	tmpDir, err := os.MkdirTemp(e.cfg.ArtifactCacheDir, "ors-heic-*")
	if err != nil {
		return "", nil, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "page.png")

	var args []string
	switch e.cfg.HeicConverter {
	case "heif-convert", "magick":
		args = []string{in, out}
	case "sips":
		args = []string{"-s", "format", "png", in, "--out", out}
	default:
		cleanup()
		return "", nil, nil, fmt.Errorf("heic converter %q: want heif-convert, magick or sips", e.cfg.HeicConverter)
	}
	if _, errb, err := e.runner.Run(ctx, e.cfg.HeicConverter, args...); err != nil {
		cleanup()
		return "", []string{string(errb)}, nil, fmt.Errorf("%s: %w", e.cfg.HeicConverter, err)
	}
	if _, err := os.Stat(out); err != nil {
		cleanup()
		return "", nil, nil, fmt.Errorf("heic conversion produced no output: %w", err)
	}

	// both paths sit under ArtifactCacheDir, so the rename stays on one device
	if err := os.Rename(out, cached); err != nil {
		e.logger.Warn("ocr.heic.cache_failed", "path", in, "error", err)
		return out, nil, cleanup, nil
	}
	cleanup()
	e.logger.Debug("ocr.heic.converted", "path", in, "cache", cached)
	return cached, nil, nil, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
