package port

import (
	"context"

	"invomatch/internal/domain"
)

// DocumentRenderer turns an uploaded document into model-ready content:
// the PDF text layer when it is reliable, rasterized page images otherwise.
type DocumentRenderer interface {
	Render(ctx context.Context, doc domain.SourceDocument) (domain.RenderedContent, error)
}
