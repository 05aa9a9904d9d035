package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFlattenOpaquePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}

	flat, err := Flatten(encodePNG(t, img))
	require.NoError(t, err)

	assert.Equal(t, "png", flat.Format)
	assert.Equal(t, 40, flat.Width)
	assert.Equal(t, 30, flat.Height)

	// Output must be a decodable JPEG of the same dimensions.
	out, err := jpeg.Decode(bytes.NewReader(flat.Data))
	require.NoError(t, err)
	assert.Equal(t, 40, out.Bounds().Dx())
	assert.Equal(t, 30, out.Bounds().Dy())
}

func TestFlattenCompositesAlphaOverWhite(t *testing.T) {
	// Fully transparent source must flatten to white, not black.
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))

	flat, err := Flatten(encodePNG(t, img))
	require.NoError(t, err)

	out, err := jpeg.Decode(bytes.NewReader(flat.Data))
	require.NoError(t, err)

	r, g, b, _ := out.At(4, 4).RGBA()
	// JPEG is lossy; allow a small tolerance around pure white.
	assert.Greater(t, r>>8, uint32(245))
	assert.Greater(t, g>>8, uint32(245))
	assert.Greater(t, b>>8, uint32(245))
}

func TestFlattenNonZeroOriginBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 7, 25, 17))
	flat, err := Flatten(encodePNG(t, img))
	require.NoError(t, err)

	assert.Equal(t, 20, flat.Width)
	assert.Equal(t, 10, flat.Height)
}

func TestFlattenJPEGInput(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	flat, err := Flatten(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "jpeg", flat.Format)
	assert.Equal(t, 10, flat.Width)
}

func TestFlattenRejectsGarbage(t *testing.T) {
	_, err := Flatten([]byte("not an image at all"))
	assert.Error(t, err)

	_, err = Flatten(nil)
	assert.Error(t, err)
}
