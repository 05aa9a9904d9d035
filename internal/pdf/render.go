// Package pdf assembles a layout.Document into the final PDF artifact.
// It draws exactly what the layout prescribes; all geometry decisions are
// made upstream.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"photosheet/internal/layout"
)

const (
	bodyFont   = "Arial"
	footerY    = -15.0
	footerH    = 10.0
	headerSize = 12.0
	footerSize = 8.0
)

// ImageOpener resolves a staged image key to its JPEG content.
// *staging.Scope satisfies this.
type ImageOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Render walks the document page by page and produces the complete PDF in
// memory. Any image open or embed failure aborts the whole render; no
// partial artifact is ever returned.
func Render(ctx context.Context, doc layout.Document, images ImageOpener) ([]byte, error) {
	// fpdf emits a blank page for documents closed without AddPage; refuse
	// instead, callers signal the no-images case themselves.
	if len(doc.Pages) == 0 {
		return nil, errors.New("document has no pages")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(layout.Margin, layout.Margin, layout.Margin)
	// Cells are positioned absolutely; fpdf must never insert pages on its own.
	pdf.SetAutoPageBreak(false, 0)

	pdf.SetFooterFunc(func() {
		pdf.SetY(footerY)
		pdf.SetFont(bodyFont, "I", footerSize)
		pdf.CellFormat(0, footerH, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	// Core fonts are cp1252; translate the UTF-8 label for cell text.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, cell := range page.Cells {
			switch cell.Kind {
			case layout.HeaderCell:
				pdf.SetFont(bodyFont, "B", headerSize)
				pdf.SetXY(cell.X, cell.Y)
				pdf.CellFormat(cell.W, cell.H, tr(cell.Text), "1", 0, cell.Align, false, 0, "")

			case layout.ImageCell:
				pdf.Rect(cell.X, cell.Y, cell.W, cell.H, "D")
				if err := embed(ctx, pdf, cell.Image, images); err != nil {
					return nil, err
				}

			case layout.DataCell:
				pdf.SetXY(cell.X, cell.Y)
				pdf.CellFormat(cell.W, cell.H, "", "1", 0, "", false, 0, "")
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func embed(ctx context.Context, pdf *fpdf.Fpdf, p *layout.Placement, images ImageOpener) error {
	rc, err := images.Open(ctx, p.Key)
	if err != nil {
		return fmt.Errorf("open staged image %q: %w", p.Key, err)
	}
	defer rc.Close()

	opt := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader(p.Key, opt, rc)
	if pdf.Err() {
		return fmt.Errorf("embed image %q: %w", p.Key, pdf.Error())
	}
	pdf.ImageOptions(p.Key, p.X, p.Y, p.W, p.H, false, opt, 0, "")
	if pdf.Err() {
		return fmt.Errorf("place image %q: %w", p.Key, pdf.Error())
	}
	return nil
}
