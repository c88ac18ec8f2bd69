package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"invomatch/internal/domain"
	"invomatch/internal/match"
	"invomatch/internal/port"
	"invomatch/internal/record"
)

// MatchResult is the full output of one reconciliation run: both canonical
// records for side-by-side display plus the verdict.
type MatchResult struct {
	Invoice       *record.Canonical   `json:"invoice"`
	PurchaseOrder *record.Canonical   `json:"purchase_order"`
	Verdict       domain.MatchVerdict `json:"verdict"`
}

// Pipeline runs render → extract → normalize for both documents and joins
// them in the matcher. All state lives within a single run; nothing is
// shared across runs except the extractor's HTTP client.
type Pipeline struct {
	renderer  port.DocumentRenderer
	extractor port.FieldExtractor
	matcher   *match.Matcher
}

// New creates a Pipeline.
func New(renderer port.DocumentRenderer, extractor port.FieldExtractor, matcher *match.Matcher) *Pipeline {
	return &Pipeline{
		renderer:  renderer,
		extractor: extractor,
		matcher:   matcher,
	}
}

// Run processes an invoice and a purchase order together. The two documents
// are rendered and extracted concurrently; a failure on either side cancels
// the other and the run reports nothing partial.
func (p *Pipeline) Run(ctx context.Context, invoice, po domain.SourceDocument) (*MatchResult, error) {
	start := time.Now()

	var invRec, poRec *record.Canonical
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, err := p.processDocument(gctx, invoice)
		if err != nil {
			return err
		}
		invRec = rec
		return nil
	})
	g.Go(func() error {
		rec, err := p.processDocument(gctx, po)
		if err != nil {
			return err
		}
		poRec = rec
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	verdict := p.matcher.Match(invRec, poRec)
	log.Printf("pipeline: run complete in %s: status=%s, discrepancies=%d",
		time.Since(start), verdict.Status, len(verdict.Discrepancies))

	return &MatchResult{
		Invoice:       invRec,
		PurchaseOrder: poRec,
		Verdict:       verdict,
	}, nil
}

func (p *Pipeline) processDocument(ctx context.Context, doc domain.SourceDocument) (*record.Canonical, error) {
	content, err := p.renderer.Render(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", doc.Kind, err)
	}
	rec, err := p.extractor.Extract(ctx, content, doc.Kind)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", doc.Kind, err)
	}
	// Normalization never fails: unparsable values flow into the matcher
	// as incomplete data rather than aborting the run.
	return record.Normalize(rec), nil
}
