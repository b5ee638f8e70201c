package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAnnotate verifies the caption lands in the top-left corner of a copy.
func TestAnnotate(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	src := solid(640, 480, white)
	before := make([]uint8, len(src.Pix))
	copy(before, src.Pix)

	out := Annotate(src, "Arjuna (97.3%)", DefaultOverlayStyle)

	assert.Equal(t, image.Rect(0, 0, 640, 480), out.Bounds())
	assert.Equal(t, before, src.Pix, "source must not be modified")
	assert.NotEqual(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(1, 1), "caption band")
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(639, 479))
}

// TestAnnotateEdgeCases covers empty captions, tiny frames and offset bounds.
func TestAnnotateEdgeCases(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		src := solid(20, 20, color.White)
		out := Annotate(src, "", DefaultOverlayStyle)
		assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(0, 0))
	})

	t.Run("caption wider than frame", func(t *testing.T) {
		src := solid(8, 8, color.White)
		assert.NotPanics(t, func() {
			out := Annotate(src, "Bagong (12.0%) with a very long caption", DefaultOverlayStyle)
			assert.Equal(t, image.Rect(0, 0, 8, 8), out.Bounds())
		})
	})

	t.Run("offset bounds", func(t *testing.T) {
		src := solid(100, 100, color.White).SubImage(image.Rect(50, 50, 100, 100))
		out := Annotate(src, "x", OverlayStyle{Foreground: color.Black, Background: color.Black, Scale: 2})
		assert.Equal(t, image.Rect(0, 0, 50, 50), out.Bounds())
		assert.Equal(t, color.RGBA{A: 255}, out.RGBAAt(0, 0))
	})
}
