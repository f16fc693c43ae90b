package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/or-schedule/internal/common"
	"github.com/joseph-ayodele/or-schedule/internal/ocr"
)

type OCRAdapter struct {
	extractor *ocr.Extractor
	logger    *slog.Logger
}

func NewOCRAdapter(e *ocr.Extractor, l *slog.Logger) *OCRAdapter {
	if l == nil {
		l = slog.Default()
	}
	return &OCRAdapter{
		extractor: e,
		logger:    l,
	}
}

func (a *OCRAdapter) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	r, err := a.extractor.Extract(ctx, path)
	res := TextExtractionResult{
		Text:       r.Text,
		Pages:      r.Pages,
		SourceType: r.SourceType,
		Method:     r.Method,
		Language:   r.Language,
		Duration:   r.Duration,
		Warnings:   r.Warnings,
		Confidence: r.Confidence,
	}
	if err != nil {
		attrs := []any{"path", path, "error", err, "warnings", len(r.Warnings)}
		if jobID, ok := common.JobIDFromContext(ctx); ok {
			attrs = append(attrs, "job_id", jobID)
		}
		a.logger.Warn("extract.failed", attrs...)
		return res, err
	}
	return res, nil
}
