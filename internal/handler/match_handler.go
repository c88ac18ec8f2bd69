package handler

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"invomatch/internal/domain"
	"invomatch/internal/pipeline"
	"invomatch/internal/report"
)

// MatchHandler handles reconciliation requests.
type MatchHandler struct {
	pipeline    *pipeline.Pipeline
	maxFileSize int64
}

// NewMatchHandler creates a new MatchHandler. maxUploadMB caps each uploaded
// file individually.
func NewMatchHandler(p *pipeline.Pipeline, maxUploadMB int64) *MatchHandler {
	return &MatchHandler{
		pipeline:    p,
		maxFileSize: maxUploadMB * 1024 * 1024,
	}
}

// Match handles POST /api/v1/match
// @Summary Reconcile an invoice against a purchase order
// @Description Upload an invoice and a purchase order (PDF, JPG or PNG); both are parsed and compared field by field
// @Tags match
// @Accept multipart/form-data
// @Produce json
// @Param invoice formData file true "Invoice document"
// @Param purchase_order formData file true "Purchase order document"
// @Param format query string false "Set to xlsx for a downloadable workbook"
// @Success 200 {object} APIResponse{data=pipeline.MatchResult} "Reconciliation result"
// @Failure 400 {object} APIResponse "Missing, empty, unreadable or unsupported document"
// @Failure 413 {object} APIResponse "File too large"
// @Failure 502 {object} APIResponse "Extraction provider failure"
// @Failure 503 {object} APIResponse "Extraction temporarily unavailable"
// @Router /match [post]
func (h *MatchHandler) Match(c *gin.Context) {
	invoice, err := h.readDocument(c, "invoice", domain.KindInvoice)
	if err != nil {
		HandleError(c, err)
		return
	}
	po, err := h.readDocument(c, "purchase_order", domain.KindPurchaseOrder)
	if err != nil {
		HandleError(c, err)
		return
	}

	result, err := h.pipeline.Run(c.Request.Context(), invoice, po)
	if err != nil {
		HandleError(c, err)
		return
	}

	if c.Query("format") == "xlsx" {
		h.respondXLSX(c, result)
		return
	}
	RespondOK(c, result)
}

func (h *MatchHandler) readDocument(c *gin.Context, field string, kind domain.DocumentKind) (domain.SourceDocument, error) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		return domain.SourceDocument{}, fmt.Errorf("%w: %s", domain.ErrMissingDocument, field)
	}
	defer func() { _ = file.Close() }()

	mediaType, err := detectMediaType(header)
	if err != nil {
		return domain.SourceDocument{}, err
	}
	if header.Size > h.maxFileSize {
		return domain.SourceDocument{}, domain.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		return domain.SourceDocument{}, fmt.Errorf("reading %s upload: %w", field, err)
	}
	if int64(len(data)) > h.maxFileSize {
		return domain.SourceDocument{}, domain.ErrFileTooLarge
	}
	if len(data) == 0 {
		return domain.SourceDocument{}, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, field)
	}

	return domain.SourceDocument{
		Kind:      kind,
		MediaType: mediaType,
		FileName:  header.Filename,
		Bytes:     data,
	}, nil
}

// detectMediaType decides the upload's type from its Content-Type header,
// falling back to the file extension when the client sent a generic type.
func detectMediaType(header *multipart.FileHeader) (domain.MediaType, error) {
	contentType := header.Header.Get("Content-Type")
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if mt, ok := domain.AllowedContentTypes[strings.TrimSpace(contentType)]; ok {
		return mt, nil
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	if mt, ok := domain.AllowedExtensions[ext]; ok {
		return mt, nil
	}
	return "", domain.ErrUnsupportedFileType
}

func (h *MatchHandler) respondXLSX(c *gin.Context, result *pipeline.MatchResult) {
	c.Header("Content-Disposition", `attachment; filename="reconciliation.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := report.WriteXLSX(c.Writer, result); err != nil {
		// Headers are already out; all we can do is log.
		requestID, _ := c.Get("request_id")
		log.Printf("[%v] writing xlsx report: %v", requestID, err)
	}
}
