package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"

	"invomatch/internal/config"
	"invomatch/internal/domain"
)

// Renderer converts an uploaded document into model-ready content. Digitally
// generated PDFs keep their text layer; scanned PDFs and raster uploads
// become page images for the model to read.
type Renderer struct {
	cfg    config.RenderConfig
	runner Runner
}

// NewRenderer creates a Renderer that shells out to poppler for PDF work.
func NewRenderer(cfg config.RenderConfig) *Renderer {
	return newRenderer(cfg, execRunner{})
}

// NewRendererWithRunner creates a Renderer with a custom command runner (for testing).
func NewRendererWithRunner(cfg config.RenderConfig, runner Runner) *Renderer {
	return newRenderer(cfg, runner)
}

func newRenderer(cfg config.RenderConfig, runner Runner) *Renderer {
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 200
	}
	if cfg.MinTextPageRatio <= 0 {
		cfg.MinTextPageRatio = 0.5
	}
	if cfg.MinImagePx <= 0 {
		cfg.MinImagePx = 1200
	}
	return &Renderer{cfg: cfg, runner: runner}
}

// Render implements port.DocumentRenderer.
func (r *Renderer) Render(ctx context.Context, doc domain.SourceDocument) (domain.RenderedContent, error) {
	if len(doc.Bytes) == 0 {
		return nil, fmt.Errorf("%s: %w", doc.Kind, domain.ErrEmptyDocument)
	}
	if doc.MediaType.IsPDF() {
		return r.renderPDF(ctx, doc)
	}
	return r.renderImage(doc)
}

func (r *Renderer) renderPDF(ctx context.Context, doc domain.SourceDocument) (domain.RenderedContent, error) {
	tmpDir, err := os.MkdirTemp("", "invomatch-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	pdfPath := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(pdfPath, doc.Bytes, 0o600); err != nil {
		return nil, fmt.Errorf("writing temp pdf: %w", err)
	}

	text, pages, err := r.pdfText(ctx, pdfPath)
	if err != nil {
		// pdftotext rejects files that are not PDFs at all; a structurally
		// valid but scanned PDF succeeds with empty output instead.
		return nil, fmt.Errorf("%s: %w", doc.Kind, domain.ErrDocumentUnreadable)
	}
	if r.textReliable(text, pages) {
		return domain.TextContent{Text: text, Pages: pages}, nil
	}

	images, err := r.rasterize(ctx, pdfPath, filepath.Join(tmpDir, "page"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Kind, domain.ErrDocumentUnreadable)
	}
	return domain.ImageContent{Pages: images}, nil
}

// pdfText extracts the PDF text layer. Form feeds separate pages.
func (r *Renderer) pdfText(ctx context.Context, path string) (string, int, error) {
	out, _, err := r.runner.Run(ctx, r.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, err
	}
	text := string(out)
	pages := 1 + strings.Count(text, "\f")
	return text, pages, nil
}

// textReliable applies the fallback threshold: enough non-whitespace overall
// and enough of the pages contributing text. Scanned PDFs typically fail
// both.
func (r *Renderer) textReliable(text string, pages int) bool {
	if countInk(text) < r.cfg.MinTextChars {
		return false
	}
	if pages <= 0 {
		return false
	}
	withText := 0
	for _, page := range strings.Split(text, "\f") {
		if countInk(page) > 0 {
			withText++
		}
	}
	return float64(withText)/float64(pages) >= r.cfg.MinTextPageRatio
}

func countInk(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// rasterize renders every page to PNG at the configured DPI.
func (r *Renderer) rasterize(ctx context.Context, pdfPath, prefix string) ([]domain.PageImage, error) {
	args := []string{"-r", fmt.Sprintf("%d", r.cfg.DPI), "-png"}
	if r.cfg.MaxPages > 0 {
		args = append(args, "-f", "1", "-l", fmt.Sprintf("%d", r.cfg.MaxPages))
	}
	args = append(args, pdfPath, prefix)
	if _, _, err := r.runner.Run(ctx, r.cfg.Pdftoppm, args...); err != nil {
		return nil, err
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages")
	}

	pages := make([]domain.PageImage, 0, len(matches))
	for _, path := range matches {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading rendered page: %w", err)
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("decoding rendered page: %w", err)
		}
		pages = append(pages, domain.PageImage{PNG: raw, Width: cfg.Width, Height: cfg.Height})
	}
	return pages, nil
}

// renderImage normalizes a raster upload: EXIF orientation is corrected and
// small images are upscaled so line-item tables stay legible to the model.
// No OCR happens here.
func (r *Renderer) renderImage(doc domain.SourceDocument) (domain.RenderedContent, error) {
	img, err := imaging.Decode(bytes.NewReader(doc.Bytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Kind, domain.ErrDocumentUnreadable)
	}

	bounds := img.Bounds()
	longest := bounds.Dx()
	if bounds.Dy() > longest {
		longest = bounds.Dy()
	}
	if longest < r.cfg.MinImagePx {
		if bounds.Dx() >= bounds.Dy() {
			img = imaging.Resize(img, r.cfg.MinImagePx, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, r.cfg.MinImagePx, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding normalized image: %w", err)
	}
	b := img.Bounds()
	return domain.ImageContent{Pages: []domain.PageImage{{
		PNG:    buf.Bytes(),
		Width:  b.Dx(),
		Height: b.Dy(),
	}}}, nil
}
