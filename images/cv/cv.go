// Package cv - Conversions between OpenCV mats and Go images for the local viewer.
package cv

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// MatToImage converts a frame captured by OpenCV into a Go image.
//
// OpenCV captures in BGR channel order; gocv's ToImage swaps the channels into RGB
// for 3-channel mats, so the result is ready for ToRGB and preprocessing.
//
// Arguments:
//   - mat: The captured frame.
//
// Returns:
//   - image.Image: The RGB frame.
//   - error: An error if the frame is empty or of an unsupported type.
func MatToImage(mat gocv.Mat) (image.Image, error) {
	if mat.Empty() {
		return nil, errors.New("empty frame")
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert frame")
	}
	return img, nil
}

// ImageToMat converts an RGB Go image back into a BGR mat for display.
//
// **The caller owns the returned mat and must Close it.**
func ImageToMat(img image.Image) (gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to convert image to mat")
	}
	return mat, nil
}
