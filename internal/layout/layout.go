// Package layout turns an ordered set of images into a page-structured
// description of a landscape A4 photo sheet: two bordered image rows per
// page, each paired with an empty notes cell, under a repeated header row.
// The package is pure geometry; it never touches pixels or PDF syntax.
package layout

// All dimensions are millimetres on a landscape A4 page.
const (
	PageWidth  = 297.0
	PageHeight = 210.0

	Margin          = 10.0
	ImageColWidth   = 80.0
	DataColWidth    = 190.0
	RowHeight       = 90.0
	HeaderRowHeight = 10.0

	// ImageInset is the padding between an image row's border and the
	// image drawn inside it.
	ImageInset = 2.0

	// RowsPerPage is fixed: the sheet format places two photos per page.
	RowsPerPage = 2
)

// NotesHeader is the static label of the second header column.
const NotesHeader = "Notes / Data"

// FitMode selects how an image occupies its inset draw box.
type FitMode int

const (
	// FitStretch distorts the image to fill the box exactly. This is the
	// legacy sheet behavior and the default.
	FitStretch FitMode = iota
	// FitContain scales the image to the largest aspect-preserving size
	// that fits, centered in the box.
	FitContain
)

// ParseFitMode maps a configuration string to a FitMode, defaulting to
// FitStretch for anything unrecognized.
func ParseFitMode(s string) FitMode {
	if s == "contain" {
		return FitContain
	}
	return FitStretch
}

// ImageSource identifies one staged image and its pixel dimensions.
// Key refers to an object in the request's staging scope.
type ImageSource struct {
	Key    string
	Name   string
	Width  int
	Height int
}

// CellKind discriminates the draw operations a page is composed of.
type CellKind int

const (
	HeaderCell CellKind = iota
	ImageCell
	DataCell
)

// Placement is the box an image is drawn into, inset within its cell.
type Placement struct {
	Key        string
	X, Y, W, H float64
}

// Cell is one bordered draw operation. Image cells additionally carry the
// placement of the image inside the border box.
type Cell struct {
	Kind       CellKind
	X, Y, W, H float64
	Text       string
	Align      string
	Image      *Placement
}

// Page is the ordered list of cells for one physical page.
type Page struct {
	Cells []Cell
}

// ImageRows counts the image rows on the page.
func (p Page) ImageRows() int {
	n := 0
	for _, c := range p.Cells {
		if c.Kind == ImageCell {
			n++
		}
	}
	return n
}

// Document is an immutable ordered sequence of pages.
type Document struct {
	Label string
	Pages []Page
}

// PageRows returns the image-row count of every page in order.
func (d Document) PageRows() []int {
	rows := make([]int, len(d.Pages))
	for i, p := range d.Pages {
		rows[i] = p.ImageRows()
	}
	return rows
}

// Images counts image placements across the whole document.
func (d Document) Images() int {
	n := 0
	for _, p := range d.Pages {
		n += p.ImageRows()
	}
	return n
}

// rowTop is the y coordinate where image row r starts on any page.
func rowTop(r int) float64 {
	return Margin + HeaderRowHeight + float64(r)*RowHeight
}

// BuildDocument partitions images into consecutive pairs, one page per pair,
// preserving input order. An empty input yields a zero-page document and no
// error; deciding whether that is reportable belongs to the caller.
func BuildDocument(images []ImageSource, label string, fit FitMode) Document {
	doc := Document{Label: label}

	for start := 0; start < len(images); start += RowsPerPage {
		end := start + RowsPerPage
		if end > len(images) {
			end = len(images)
		}
		doc.Pages = append(doc.Pages, buildPage(images[start:end], label, fit))
	}
	return doc
}

func buildPage(batch []ImageSource, label string, fit FitMode) Page {
	cells := make([]Cell, 0, 2+2*len(batch))

	cells = append(cells,
		Cell{Kind: HeaderCell, X: Margin, Y: Margin, W: ImageColWidth, H: HeaderRowHeight, Text: label, Align: "C"},
		Cell{Kind: HeaderCell, X: Margin + ImageColWidth, Y: Margin, W: DataColWidth, H: HeaderRowHeight, Text: NotesHeader, Align: "L"},
	)

	for r, img := range batch {
		y := rowTop(r)
		cells = append(cells,
			Cell{
				Kind: ImageCell,
				X:    Margin, Y: y, W: ImageColWidth, H: RowHeight,
				Image: place(img, Margin, y, fit),
			},
			Cell{
				Kind: DataCell,
				X:    Margin + ImageColWidth, Y: y, W: DataColWidth, H: RowHeight,
			},
		)
	}
	return Page{Cells: cells}
}

// place computes the image draw box inside the cell whose top-left corner is
// (cellX, cellY). The box is the cell minus the inset on all sides; under
// FitContain it shrinks further to preserve the source aspect ratio.
func place(img ImageSource, cellX, cellY float64, fit FitMode) *Placement {
	boxX := cellX + ImageInset
	boxY := cellY + ImageInset
	boxW := ImageColWidth - 2*ImageInset
	boxH := RowHeight - 2*ImageInset

	if fit == FitContain && img.Width > 0 && img.Height > 0 {
		scale := boxW / float64(img.Width)
		if s := boxH / float64(img.Height); s < scale {
			scale = s
		}
		w := float64(img.Width) * scale
		h := float64(img.Height) * scale
		boxX += (boxW - w) / 2
		boxY += (boxH - h) / 2
		boxW, boxH = w, h
	}

	return &Placement{Key: img.Key, X: boxX, Y: boxY, W: boxW, H: boxH}
}
