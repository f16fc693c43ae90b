package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/or-schedule/constants"
)

// extractPDF prefers the block layout of embedded text. When the PDF cannot
// be read it falls back to pdftotext, and when it carries no text at all
// (scanned) the pages are rasterized and OCRed.
func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.PDF, Language: e.cfg.TesseractLang}

	text, pages, glyphs, err := pdfBlocks(path)
	switch {
	case err == nil && glyphs > 0:
		res.Text, res.Pages, res.Method = Normalize(text), pages, "pdf-blocks"
		res.Confidence = heuristicConfidence(res.Text)
		return res, nil
	case err != nil:
		e.logger.Warn("ocr.pdf.blocks_failed", "path", path, "error", err)
		res.Warnings = append(res.Warnings, err.Error())
		txt, n, warns, err2 := e.pdfToText(ctx, path)
		res.Warnings = append(res.Warnings, warns...)
		if err2 == nil && strings.TrimSpace(strings.ReplaceAll(txt, "\f", "")) != "" {
			res.Text, res.Pages, res.Method = Normalize(strings.ReplaceAll(txt, "\f", "\n\n")), n, "pdf-text"
			res.Confidence = heuristicConfidence(res.Text)
			return res, nil
		}
		if err2 != nil {
			res.Warnings = append(res.Warnings, err2.Error())
		}
	}

	e.logger.Info("ocr.pdf.scanned", "path", path, "dpi", e.cfg.DPI)
	txt, n, warns, err := e.pdfToOCR(ctx, path)
	res.Warnings = append(res.Warnings, warns...)
	if err != nil {
		return res, fmt.Errorf("pdf ocr: %w", err)
	}
	res.Text, res.Pages, res.Method = Normalize(collapseDashes(txt)), n, "pdf-ocr"
	res.Confidence = heuristicConfidence(res.Text)
	return res, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = 1 + strings.Count(strings.TrimRight(text, "\f"), "\f")
	return text, pages, nil, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	if err := os.MkdirAll(e.cfg.ArtifactCacheDir, 0o755); err != nil {
		return "", 0, nil, err
	}
	tmpDir, err := os.MkdirTemp(e.cfg.ArtifactCacheDir, "ors-pp-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func(dir string) {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("ocr.cleanup_failed", "dir", dir, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n") // page break
		}
		b.WriteString(txt)
		warns = append(warns, w...)
	}
	return b.String(), len(matches), warns, nil
}
