package port

import (
	"context"

	"invomatch/internal/domain"
	"invomatch/internal/record"
)

// FieldExtractor abstracts the external model call that turns rendered
// content into a structured record. Implementations must be safe for
// concurrent use: both documents of a run are extracted in parallel.
type FieldExtractor interface {
	Extract(ctx context.Context, content domain.RenderedContent, kind domain.DocumentKind) (*record.Extracted, error)
}
