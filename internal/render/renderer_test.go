package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invomatch/internal/config"
	"invomatch/internal/domain"
)

// stubRunner scripts pdftotext/pdftoppm behavior per test.
type stubRunner struct {
	text       string
	textErr    error
	rasterErr  error
	rasterized bool
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	if strings.Contains(name, "pdftotext") {
		if s.textErr != nil {
			return nil, []byte("Syntax Error: not a PDF"), s.textErr
		}
		return []byte(s.text), nil, nil
	}
	if strings.Contains(name, "pdftoppm") {
		if s.rasterErr != nil {
			return nil, []byte("boom"), s.rasterErr
		}
		s.rasterized = true
		// Emit two fake pages where pdftoppm would.
		prefix := args[len(args)-1]
		for i := 1; i <= 2; i++ {
			if err := writePNG(fmt.Sprintf("%s-%d.png", prefix, i), 100, 140); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	}
	return nil, nil, fmt.Errorf("unexpected command %s", name)
}

func writePNG(path string, w, h int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h)))
}

func pdfDoc() domain.SourceDocument {
	return domain.SourceDocument{
		Kind:      domain.KindInvoice,
		MediaType: domain.MediaTypePDF,
		FileName:  "invoice.pdf",
		Bytes:     []byte("%PDF-1.7 fake"),
	}
}

func TestRenderEmptyDocument(t *testing.T) {
	r := NewRendererWithRunner(config.RenderConfig{}, &stubRunner{})
	_, err := r.Render(context.Background(), domain.SourceDocument{
		Kind:      domain.KindInvoice,
		MediaType: domain.MediaTypePDF,
	})
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestRenderTextPDF(t *testing.T) {
	body := strings.Repeat("INVOICE line item description 42.00\n", 20)
	runner := &stubRunner{text: body}
	r := NewRendererWithRunner(config.RenderConfig{}, runner)

	content, err := r.Render(context.Background(), pdfDoc())
	require.NoError(t, err)

	text, ok := content.(domain.TextContent)
	require.True(t, ok, "expected text content, got %T", content)
	assert.Equal(t, body, text.Text)
	assert.Equal(t, 1, text.Pages)
	assert.False(t, runner.rasterized, "a reliable text layer should not be rasterized")
}

func TestRenderScannedPDFFallsBackToImages(t *testing.T) {
	// A scanned PDF yields only whitespace from pdftotext.
	runner := &stubRunner{text: " \f \f "}
	r := NewRendererWithRunner(config.RenderConfig{}, runner)

	content, err := r.Render(context.Background(), pdfDoc())
	require.NoError(t, err)

	images, ok := content.(domain.ImageContent)
	require.True(t, ok, "expected image content, got %T", content)
	require.Len(t, images.Pages, 2)
	assert.True(t, runner.rasterized)
	assert.Equal(t, 100, images.Pages[0].Width)
	assert.Equal(t, 140, images.Pages[0].Height)
	assert.NotEmpty(t, images.Pages[0].PNG)
}

func TestRenderSparseTextFallsBack(t *testing.T) {
	// Plenty of ink on page one but nothing on the remaining pages: the
	// page-coverage ratio fails even though the char count passes.
	text := strings.Repeat("x", 500) + "\f \f \f "
	runner := &stubRunner{text: text}
	r := NewRendererWithRunner(config.RenderConfig{}, runner)

	content, err := r.Render(context.Background(), pdfDoc())
	require.NoError(t, err)
	_, ok := content.(domain.ImageContent)
	assert.True(t, ok, "expected fallback to images, got %T", content)
}

func TestRenderUnreadablePDF(t *testing.T) {
	runner := &stubRunner{textErr: errors.New("exit status 1")}
	r := NewRendererWithRunner(config.RenderConfig{}, runner)

	_, err := r.Render(context.Background(), pdfDoc())
	assert.ErrorIs(t, err, domain.ErrDocumentUnreadable)
}

func TestRenderRasterizeFailure(t *testing.T) {
	runner := &stubRunner{text: "", rasterErr: errors.New("exit status 1")}
	r := NewRendererWithRunner(config.RenderConfig{}, runner)

	_, err := r.Render(context.Background(), pdfDoc())
	assert.ErrorIs(t, err, domain.ErrDocumentUnreadable)
}

func TestRenderImageUpload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 400, 300))))

	r := NewRendererWithRunner(config.RenderConfig{MinImagePx: 800}, &stubRunner{})
	content, err := r.Render(context.Background(), domain.SourceDocument{
		Kind:      domain.KindPurchaseOrder,
		MediaType: domain.MediaTypePNG,
		FileName:  "po.png",
		Bytes:     buf.Bytes(),
	})
	require.NoError(t, err)

	images, ok := content.(domain.ImageContent)
	require.True(t, ok)
	require.Len(t, images.Pages, 1)
	// 400x300 upscaled so the longest side reaches 800.
	assert.Equal(t, 800, images.Pages[0].Width)
	assert.Equal(t, 600, images.Pages[0].Height)
}

func TestRenderCorruptImage(t *testing.T) {
	r := NewRendererWithRunner(config.RenderConfig{}, &stubRunner{})
	_, err := r.Render(context.Background(), domain.SourceDocument{
		Kind:      domain.KindInvoice,
		MediaType: domain.MediaTypeJPG,
		Bytes:     []byte("definitely not a jpeg"),
	})
	assert.ErrorIs(t, err, domain.ErrDocumentUnreadable)
}
