// Package imaging decodes uploaded raster images and flattens them for PDF
// embedding. PDF image XObjects carry no alpha channel in the encoding this
// service emits, so every source is composited over an opaque white
// background and re-encoded as baseline JPEG.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	// Stdlib decoders.
	_ "image/gif"
	_ "image/png"

	// Extra decoders so the uploader is not limited to JPEG/PNG.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// jpegQuality balances artifact size against visible compression noise for
// photographic content.
const jpegQuality = 90

// Flattened is an opaque, JPEG-encoded image ready for embedding, together
// with its pixel dimensions for aspect-fit placement.
type Flattened struct {
	Data   []byte
	Format string // source format as reported by the decoder
	Width  int
	Height int
}

// Flatten decodes data in any registered format and returns an opaque JPEG
// rendition. Transparent regions are composited over white, matching what a
// transparent image looks like on paper.
func Flatten(data []byte) (*Flattened, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("decode image: empty %dx%d bounds", b.Dx(), b.Dy())
	}

	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), src, b.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return &Flattened{
		Data:   buf.Bytes(),
		Format: format,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}
