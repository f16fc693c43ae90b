// Package schedule turns block-annotated operating-room schedule text into
// per-OR lists of case entries.
//
// Text arrives as the reading order of text blocks pulled off a PDF page or an
// OCR pass, with "=====" lines between blocks. Parsing runs in three steps:
// Prepare isolates one logical record per block, a builder walks the blocks
// with two cursors (document and current block) assigning lines to fields,
// and Assemble wraps the result with the detected facility.
//
// A Parser keeps no state between documents and never fails: unrecognised
// lines are skipped and incomplete cases are dropped.
package schedule

import (
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/or-schedule/constants"
)

// Parser parses schedule documents. It is safe for concurrent use; each call
// to Parse builds its own state.
type Parser struct {
	logger     *slog.Logger
	facilities []string
	legacyPop  bool
}

type Option func(*Parser)

func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithFacilities replaces the facility names used for company detection.
func WithFacilities(names []string) Option {
	return func(p *Parser) {
		if len(names) > 0 {
			p.facilities = names
		}
	}
}

// WithLegacyWorklistPop makes worklist reconciliation discard the label after
// the one it assigns, as older releases did.
func WithLegacyWorklistPop() Option {
	return func(p *Parser) { p.legacyPop = true }
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		logger:     slog.Default(),
		facilities: constants.KnownFacilities,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse extracts the schedule from text.
func (p *Parser) Parse(text string) (Result, Stats) {
	start := time.Now()
	text = strings.ReplaceAll(text, "\r\n", "\n")

	company := DetectCompany(text, p.facilities)
	b := newBuilder(Prepare(text), p.logger, p.legacyPop)
	b.run()

	p.logger.Debug("schedule.parse.ok",
		"or_sections", b.sections.Len(),
		"entries", b.stats.Entries,
		"rejected", b.stats.Rejected,
		"malformed_metadata", b.stats.MalformedMetadata,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Assemble(company, b.sections), b.stats
}

// Parse runs a default Parser over text.
func Parse(text string) (Result, Stats) {
	return NewParser().Parse(text)
}
