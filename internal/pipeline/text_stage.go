package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/or-schedule/internal/extract"
)

// minConfidence flags extractions that are unlikely to hold a schedule.
const minConfidence = 0.30

// extractText runs stage 1 for path and marks the job TEXT_OK.
func (p *Processor) extractText(ctx context.Context, jobID uuid.UUID, path string) (extract.TextExtractionResult, error) {
	if p.Extractor == nil {
		return extract.TextExtractionResult{}, fmt.Errorf("no text extractor configured")
	}
	res, err := p.Extractor.Extract(ctx, path)
	if err != nil {
		return res, fmt.Errorf("extract %s: %w", path, err)
	}
	if res.Confidence > 0 && res.Confidence < minConfidence {
		p.Logger.Warn("pipeline.extract.low_confidence", "job_id", jobID, "path", path, "confidence", res.Confidence)
	}
	if err := p.recordText(ctx, jobID, res.Method, res.Pages, res.Confidence); err != nil {
		return res, err
	}
	return res, nil
}

func (p *Processor) recordText(ctx context.Context, jobID uuid.UUID, method string, pages int, confidence float32) error {
	if p.Jobs == nil {
		return nil
	}
	return p.Jobs.FinishText(ctx, jobID, method, pages, confidence)
}
