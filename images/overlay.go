package images

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// OverlayStyle controls how a caption is burned into a frame.
type OverlayStyle struct {
	// Foreground is the text color.
	Foreground color.Color
	// Background is the color of the band behind the text.
	Background color.Color
	// Padding around the text, in unscaled font pixels.
	Padding int
	// Scale multiplies the glyph size. Zero picks a scale from the frame height.
	Scale int
}

// DefaultOverlayStyle is green text on a translucent black band.
var DefaultOverlayStyle = OverlayStyle{
	Foreground: color.RGBA{R: 0, G: 255, B: 0, A: 255},
	Background: color.RGBA{R: 0, G: 0, B: 0, A: 170},
	Padding:    4,
}

// Annotate returns a copy of img with text burned into its top-left corner.
//
// Arguments:
//   - img: The source frame. It is not modified.
//   - text: The caption to draw.
//   - style: Colors, padding and scale of the caption.
//
// Returns:
//   - *image.RGBA: A zero-origin copy of the frame with the caption.
func Annotate(img image.Image, text string, style OverlayStyle) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	if text == "" || b.Empty() {
		return dst
	}

	label := renderCaption(text, style)

	scale := style.Scale
	if scale <= 0 {
		scale = b.Dy() / 240
		if scale < 1 {
			scale = 1
		}
	}

	lb := label.Bounds()
	target := image.Rect(0, 0, lb.Dx()*scale, lb.Dy()*scale).Intersect(dst.Bounds())
	xdraw.NearestNeighbor.Scale(dst, target, label, image.Rect(0, 0, target.Dx()/scale, target.Dy()/scale), xdraw.Over, nil)

	return dst
}

// renderCaption draws text at 1x onto its own small canvas.
func renderCaption(text string, style OverlayStyle) *image.RGBA {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Face: face}
	width := drawer.MeasureString(text).Ceil()

	pad := style.Padding
	canvas := image.NewRGBA(image.Rect(0, 0, width+2*pad, face.Height+2*pad))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(style.Background), image.Point{}, draw.Src)

	drawer.Dst = canvas
	drawer.Src = image.NewUniform(style.Foreground)
	drawer.Dot = fixed.P(pad, pad+face.Ascent)
	drawer.DrawString(text)

	return canvas
}
