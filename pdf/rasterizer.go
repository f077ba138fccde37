// Package pdf turns rendered HTML into PDF artifacts and bundles batch output
// into zip archives.
package pdf

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/phpdave11/gofpdf"
)

// Options control the page geometry of a generated document.
type Options struct {
	PageSize    string `json:"page_size"`   // A4 (default) or Letter
	Orientation string `json:"orientation"` // Portrait (default) or Landscape
}

func (o Options) pageSize() string {
	if strings.EqualFold(o.PageSize, "letter") {
		return "Letter"
	}
	return "A4"
}

func (o Options) orientation() string {
	if strings.EqualFold(o.Orientation, "landscape") {
		return "L"
	}
	return "P"
}

// Rasterizer converts rendered HTML markup into a PDF file on disk. The
// generation pipeline only depends on this interface.
type Rasterizer interface {
	Rasterize(htmlStr, outputPath string, opts Options) error
}

// HTMLRasterizer renders the basic-HTML subset gofpdf understands. Every call
// builds a fresh document.
type HTMLRasterizer struct {
	fontFile string
}

// NewHTMLRasterizer renders with the built-in Helvetica font by default.
// fontFile may name a TTF to embed instead; the core fonts only cover the
// Latin-1 range, so datasets with Cyrillic text need an embedded font to
// produce legible output.
func NewHTMLRasterizer(fontFile string) *HTMLRasterizer {
	return &HTMLRasterizer{fontFile: fontFile}
}

func (r *HTMLRasterizer) Rasterize(htmlStr, outputPath string, opts Options) error {
	doc := gofpdf.New(opts.orientation(), "mm", opts.pageSize(), "")

	family := "Helvetica"
	if r.fontFile != "" {
		family = strings.TrimSuffix(filepath.Base(r.fontFile), filepath.Ext(r.fontFile))
		// The HTML writer toggles bold/italic, so every style has to resolve.
		for _, style := range []string{"", "B", "I", "BI"} {
			doc.AddUTF8Font(family, style, r.fontFile)
		}
	}

	doc.AddPage()
	doc.SetFont(family, "", 11)

	_, lineHt := doc.GetFontSize()
	writer := doc.HTMLBasicNew()
	writer.Write(lineHt*1.3, htmlStr)

	if err := doc.Error(); err != nil {
		return fmt.Errorf("rasterizing PDF: %w", err)
	}
	if err := doc.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	return nil
}
