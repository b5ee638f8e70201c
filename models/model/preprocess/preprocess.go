// Package preprocess - Image to tensor pipelines for the classifier families.
package preprocess

import (
	"image"
	"image/draw"
	"math"

	"github.com/nfnt/resize"
	"github.com/nvr-ai/wayang/images"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ModelConfig defines preprocessing configuration for a specific model family.
type ModelConfig struct {
	// Name of the pipeline for debugging purposes.
	Name string
	// InputWidth is the expected width of the model input.
	InputWidth int
	// InputHeight is the expected height of the model input.
	InputHeight int
	// InputChannels is the number of channels (3 for RGB).
	InputChannels int
	// ResizeMode defines how the source image is fitted to the input size.
	ResizeMode ResizeMode
	// NormalizationType defines how to normalize pixel values.
	NormalizationType NormalizationType
	// MeanValues for standardization, in [0, 1] units.
	MeanValues []float32
	// StdValues for standardization, in [0, 1] units.
	StdValues []float32
	// ChannelOrder defines the tensor layout (CHW or HWC).
	ChannelOrder ChannelOrder
	// Interpolation is the resampling filter used when resizing.
	Interpolation resize.InterpolationFunction
}

// ResizeMode defines how an image is fitted to the model input.
type ResizeMode int

const (
	// ResizeStretch resizes straight to the target size, ignoring aspect ratio. No cropping.
	ResizeStretch ResizeMode = iota
	// ResizeShortSideCenterCrop resizes the short side to the target and center-crops the long side.
	ResizeShortSideCenterCrop
)

// NormalizationType defines how pixel values are normalized.
type NormalizationType int

const (
	// NormalizeZeroToOne scales pixel values to [0, 1].
	NormalizeZeroToOne NormalizationType = iota
	// NormalizeStandardize scales to [0, 1] and then applies channel-wise (x - mean) / std.
	NormalizeStandardize
)

// ChannelOrder defines the ordering of image channels.
type ChannelOrder int

const (
	// ChannelOrderCHW is Channel-Height-Width ordering (PyTorch exports).
	ChannelOrderCHW ChannelOrder = iota
	// ChannelOrderHWC is Height-Width-Channel ordering (Keras exports).
	ChannelOrderHWC
)

// PreprocessingResult contains the preprocessed tensor and metadata.
type PreprocessingResult struct {
	// Data is the preprocessed float32 tensor data.
	Data []float32
	// Shape is the tensor shape including the batch dimension.
	Shape []int64
	// OriginalWidth is the image width before preprocessing.
	OriginalWidth int
	// OriginalHeight is the image height before preprocessing.
	OriginalHeight int
	// Crop is the region of the resized image that was kept.
	Crop image.Rectangle
}

// Preprocessor turns decoded images into model input tensors.
type Preprocessor struct {
	config *ModelConfig
}

// NewPreprocessor creates a new preprocessor with the given configuration.
//
// Arguments:
//   - config: The model-specific preprocessing configuration.
//
// Returns:
//   - *Preprocessor: A configured Preprocessor instance.
func NewPreprocessor(config *ModelConfig) *Preprocessor {
	return &Preprocessor{config: config}
}

// Config returns the configuration the preprocessor was built with.
func (p *Preprocessor) Config() *ModelConfig {
	return p.config
}

// Preprocess performs all preprocessing steps on a decoded image.
//
// Arguments:
//   - img: The decoded image. Any color model is accepted; it is converted to RGB.
//
// Returns:
//   - *PreprocessingResult: The tensor and its shape.
//   - error: An error if the configuration or the image is unusable.
func (p *Preprocessor) Preprocess(img image.Image) (*PreprocessingResult, error) {
	if err := p.validate(img); err != nil {
		return nil, errors.Wrap(err, "input validation failed")
	}

	bounds := img.Bounds()
	rgb := images.ToRGB(img)

	fitted, crop := p.fit(rgb)

	data := p.imageToTensor(fitted)
	p.normalize(data)

	c, h, w := p.config.InputChannels, p.config.InputHeight, p.config.InputWidth
	shape := []int64{1, int64(h), int64(w), int64(c)}

	if p.config.ChannelOrder == ChannelOrderCHW {
		chw, err := toCHW(data, h, w, c)
		if err != nil {
			return nil, errors.Wrap(err, "layout conversion failed")
		}
		data = chw
		shape = []int64{1, int64(c), int64(h), int64(w)}
	}

	return &PreprocessingResult{
		Data:           data,
		Shape:          shape,
		OriginalWidth:  bounds.Dx(),
		OriginalHeight: bounds.Dy(),
		Crop:           crop,
	}, nil
}

func (p *Preprocessor) validate(img image.Image) error {
	if img == nil {
		return errors.New("image is nil")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return errors.Errorf("invalid image dimensions: %dx%d", b.Dx(), b.Dy())
	}
	if p.config.InputChannels != 3 {
		return errors.Errorf("unsupported channel count: %d", p.config.InputChannels)
	}
	if p.config.NormalizationType == NormalizeStandardize &&
		(len(p.config.MeanValues) != p.config.InputChannels || len(p.config.StdValues) != p.config.InputChannels) {
		return errors.New("mean/std must have one value per channel")
	}
	return nil
}

// fit resizes (and crops, for the patch pipeline) the image to the model input size.
func (p *Preprocessor) fit(img *image.NRGBA) (*image.NRGBA, image.Rectangle) {
	w, h := p.config.InputWidth, p.config.InputHeight

	if p.config.ResizeMode == ResizeStretch {
		resized := resize.Resize(uint(w), uint(h), img, p.config.Interpolation)
		return images.ToRGB(resized), image.Rect(0, 0, w, h)
	}

	// Short side to the target, aspect ratio kept.
	b := img.Bounds()
	var resized image.Image
	if b.Dx() <= b.Dy() {
		resized = resize.Resize(uint(w), 0, img, p.config.Interpolation)
	} else {
		resized = resize.Resize(0, uint(h), img, p.config.Interpolation)
	}

	// Offsets round half to even.
	rb := resized.Bounds()
	left := rb.Min.X + int(math.RoundToEven(float64(rb.Dx()-w)/2))
	top := rb.Min.Y + int(math.RoundToEven(float64(rb.Dy()-h)/2))
	crop := image.Rect(left, top, left+w, top+h)

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), resized, crop.Min, draw.Src)
	return dst, crop
}

// imageToTensor converts an image to an HWC float32 tensor with values in [0, 255].
func (p *Preprocessor) imageToTensor(img *image.NRGBA) []float32 {
	w, h := p.config.InputWidth, p.config.InputHeight
	out := make([]float32, w*h*3)

	idx := 0
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			out[idx] = float32(row[x*4])
			out[idx+1] = float32(row[x*4+1])
			out[idx+2] = float32(row[x*4+2])
			idx += 3
		}
	}
	return out
}

// normalize applies normalization in-place to an HWC tensor.
func (p *Preprocessor) normalize(data []float32) {
	for i := range data {
		data[i] /= 255.0
	}
	if p.config.NormalizationType != NormalizeStandardize {
		return
	}
	c := p.config.InputChannels
	for i := range data {
		ch := i % c
		data[i] = (data[i] - p.config.MeanValues[ch]) / p.config.StdValues[ch]
	}
}

// toCHW transposes an HWC tensor into CHW order.
func toCHW(data []float32, h, w, c int) ([]float32, error) {
	t := tensor.New(tensor.WithShape(h, w, c), tensor.WithBacking(data))
	if err := t.T(2, 0, 1); err != nil {
		return nil, err
	}
	if err := t.Transpose(); err != nil {
		return nil, err
	}
	out, ok := t.Data().([]float32)
	if !ok {
		return nil, errors.Errorf("unexpected tensor backing %T", t.Data())
	}
	return out, nil
}

// GetKerasConfig returns the resize-normalize configuration used by the Keras models.
//
// Arguments:
//   - inputSize: The square input size.
//
// Returns:
//   - *ModelConfig: Stretch to size with bicubic resampling, scale to [0, 1], HWC.
func GetKerasConfig(inputSize int) *ModelConfig {
	return &ModelConfig{
		Name:              "keras",
		InputWidth:        inputSize,
		InputHeight:       inputSize,
		InputChannels:     3,
		ResizeMode:        ResizeStretch,
		NormalizationType: NormalizeZeroToOne,
		ChannelOrder:      ChannelOrderHWC,
		Interpolation:     resize.Bicubic,
	}
}

// GetDeiTConfig returns the resize-crop-normalize configuration used by the DeiT patch model.
//
// Arguments:
//   - inputSize: The square input size.
//
// Returns:
//   - *ModelConfig: Short side to size, center crop, (x - 0.5) / 0.5, CHW.
func GetDeiTConfig(inputSize int) *ModelConfig {
	return &ModelConfig{
		Name:              "deit",
		InputWidth:        inputSize,
		InputHeight:       inputSize,
		InputChannels:     3,
		ResizeMode:        ResizeShortSideCenterCrop,
		NormalizationType: NormalizeStandardize,
		MeanValues:        []float32{0.5, 0.5, 0.5},
		StdValues:         []float32{0.5, 0.5, 0.5},
		ChannelOrder:      ChannelOrderCHW,
		Interpolation:     resize.Bilinear,
	}
}
