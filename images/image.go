// Package images - Decoding, color conversion and encoding for classifier input frames.
package images

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/gif" // registers GIF decoding
	"image/jpeg"
	_ "image/png" // registers PNG decoding

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // registers BMP decoding
	_ "golang.org/x/image/webp" // registers WebP decoding
)

// ImageFormat represents supported image formats.
type ImageFormat string

const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatBMP is the BMP image format.
	FormatBMP ImageFormat = "bmp"
	// FormatGIF is the GIF image format (first frame only).
	FormatGIF ImageFormat = "gif"
)

// DefaultJPEGQuality is the quality used when re-encoding annotated frames.
const DefaultJPEGQuality = 80

// ErrEmptyImage is returned when there are no bytes to decode.
var ErrEmptyImage = errors.New("empty image data")

// Decode decodes an encoded image and reports its format.
//
// Arguments:
//   - data: The encoded image bytes (JPEG, PNG, WebP, BMP or GIF).
//
// Returns:
//   - image.Image: The decoded image.
//   - ImageFormat: The detected format.
//   - error: An error if the data is empty or not a supported image.
func Decode(data []byte) (image.Image, ImageFormat, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to decode image")
	}
	return img, ImageFormat(format), nil
}

// ToRGB converts any image to a zero-origin, opaque, non-premultiplied raster.
//
// Alpha is dropped: every returned pixel has A=255 and keeps the color it was
// stored with, so transparent areas of a cut-out keep their RGB values instead
// of turning black once the raster is resized. An opaque *image.NRGBA that
// already starts at the origin is returned as is.
//
// Arguments:
//   - img: The image to convert.
//
// Returns:
//   - *image.NRGBA: The converted image.
func ToRGB(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	switch src := img.(type) {
	case *image.NRGBA:
		if b.Min == (image.Point{}) && src.Opaque() {
			return src
		}
		for y := 0; y < b.Dy(); y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()*4], src.Pix[i:i+b.Dx()*4])
		}
	case *image.NRGBA64:
		for y := 0; y < b.Dy(); y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()*4]
			for j := range row {
				// High byte of each big-endian 16-bit sample.
				row[j] = src.Pix[i+j*2]
			}
		}
	default:
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	}

	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// EncodeJPEG encodes an image as JPEG.
//
// Arguments:
//   - img: The image to encode.
//   - quality: JPEG quality 1-100; out-of-range values fall back to DefaultJPEGQuality.
//
// Returns:
//   - []byte: The encoded bytes.
//   - error: An error if encoding fails.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errors.Wrap(err, "failed to encode jpeg")
	}
	return buf.Bytes(), nil
}
