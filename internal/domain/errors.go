package domain

import "errors"

var (
	ErrEmptyDocument         = errors.New("document is empty")
	ErrDocumentUnreadable    = errors.New("document is malformed or unreadable")
	ErrUnsupportedFileType   = errors.New("unsupported file type")
	ErrFileTooLarge          = errors.New("file exceeds maximum allowed size")
	ErrExtractionAuth        = errors.New("extraction service rejected credentials")
	ErrExtractionParse       = errors.New("extraction response did not match the expected structure")
	ErrExtractionUnavailable = errors.New("extraction service unavailable after retries")
	ErrMissingDocument       = errors.New("both an invoice and a purchase order are required")
)
