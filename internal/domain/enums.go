package domain

// MediaType represents the allowed upload formats.
type MediaType string

const (
	MediaTypePDF MediaType = "pdf"
	MediaTypeJPG MediaType = "jpg"
	MediaTypePNG MediaType = "png"
)

// AllowedContentTypes maps MIME content types back to MediaType.
var AllowedContentTypes = map[string]MediaType{
	"application/pdf": MediaTypePDF,
	"image/jpeg":      MediaTypeJPG,
	"image/png":       MediaTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to MediaType.
var AllowedExtensions = map[string]MediaType{
	"pdf":  MediaTypePDF,
	"jpg":  MediaTypeJPG,
	"jpeg": MediaTypeJPG,
	"png":  MediaTypePNG,
}

// IsPDF reports whether the media type is a PDF.
func (m MediaType) IsPDF() bool { return m == MediaTypePDF }

// DocumentKind distinguishes the two sides of a reconciliation run.
type DocumentKind string

const (
	KindInvoice       DocumentKind = "invoice"
	KindPurchaseOrder DocumentKind = "purchase_order"
)

// MatchStatus is the terminal verdict of a reconciliation run.
type MatchStatus string

const (
	StatusApproved    MatchStatus = "approved"
	StatusNeedsReview MatchStatus = "needs_review"
)

// DiscrepancyKind classifies a single field-level mismatch.
type DiscrepancyKind string

const (
	DiscrepancyTextMismatch    DiscrepancyKind = "text_mismatch"
	DiscrepancyAmountMismatch  DiscrepancyKind = "amount_mismatch"
	DiscrepancyDateMismatch    DiscrepancyKind = "date_mismatch"
	DiscrepancyMissingLineItem DiscrepancyKind = "missing_line_item"
	DiscrepancyExtraLineItem   DiscrepancyKind = "extra_line_item"
	DiscrepancyIncompleteData  DiscrepancyKind = "incomplete_data"
)
