package domain

// SourceDocument is one uploaded document, held only for the duration of a run.
type SourceDocument struct {
	Kind      DocumentKind
	MediaType MediaType
	FileName  string
	Bytes     []byte
}

// RenderedContent is the model-ready form of a SourceDocument: either the
// document's own text layer or a set of rasterized page images.
type RenderedContent interface {
	isRenderedContent()
}

// TextContent carries text extracted from a digitally generated PDF.
// Page boundaries are preserved as form-feed markers.
type TextContent struct {
	Text  string
	Pages int
}

func (TextContent) isRenderedContent() {}

// PageImage is a single rasterized page, PNG-encoded.
type PageImage struct {
	PNG    []byte
	Width  int
	Height int
}

// ImageContent carries rasterized pages in document order.
type ImageContent struct {
	Pages []PageImage
}

func (ImageContent) isRenderedContent() {}

// Discrepancy is one detected field-level mismatch between invoice and PO.
type Discrepancy struct {
	Field        string          `json:"field"`
	Kind         DiscrepancyKind `json:"kind"`
	InvoiceValue string          `json:"invoice_value"`
	POValue      string          `json:"po_value"`
	Delta        string          `json:"delta,omitempty"`
	Message      string          `json:"message"`
}

// MatchVerdict is the terminal output of one reconciliation run.
type MatchVerdict struct {
	Status        MatchStatus   `json:"status"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}
