package extract

import (
	"context"
	"time"
)

// TextExtractor is stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // "PDF" | "IMAGE" | "TXT"
	Method     string // "pdf-blocks" | "pdf-text" | "pdf-ocr" | "image-ocr" | "text"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// StaticExtractor returns fixed text for any path. Useful when the caller
// already holds the text, e.g. a request body.
type StaticExtractor struct {
	Text       string
	SourceType string
}

func (s StaticExtractor) Extract(_ context.Context, _ string) (TextExtractionResult, error) {
	return TextExtractionResult{Text: s.Text, Pages: 1, SourceType: s.SourceType, Method: "text"}, nil
}
