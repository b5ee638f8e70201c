package preprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/nfnt/resize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
)

// createBandedImage returns an image whose left quarter is red, middle half green
// and right quarter blue, so stretch and center-crop fits can be told apart.
func createBandedImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			switch {
			case x < width/4:
				img.SetNRGBA(x, y, red)
			case x < width*3/4:
				img.SetNRGBA(x, y, green)
			default:
				img.SetNRGBA(x, y, blue)
			}
		}
	}
	return img
}

func createSolidImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// hwc returns the RGB triple at (x, y) of an HWC tensor.
func hwc(data []float32, size, x, y int) [3]float32 {
	i := (y*size + x) * 3
	return [3]float32{data[i], data[i+1], data[i+2]}
}

// chw returns the RGB triple at (x, y) of a CHW tensor.
func chw(data []float32, size, x, y int) [3]float32 {
	plane := size * size
	i := y*size + x
	return [3]float32{data[i], data[plane+i], data[2*plane+i]}
}

// TestPreprocessKeras validates the resize-normalize pipeline.
//
// The output must be HWC with values in [0, 1] scaled from the source pixel.
func TestPreprocessKeras(t *testing.T) {
	p := NewPreprocessor(GetKerasConfig(224))
	result, err := p.Preprocess(createSolidImage(640, 480, color.NRGBA{R: 120, G: 80, B: 40, A: 255}))
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 224, 224, 3}, result.Shape)
	assert.Len(t, result.Data, 224*224*3)
	assert.Equal(t, 640, result.OriginalWidth)
	assert.Equal(t, 480, result.OriginalHeight)
	assert.Equal(t, image.Rect(0, 0, 224, 224), result.Crop)

	px := hwc(result.Data, 224, 100, 100)
	assert.InDelta(t, 120.0/255, px[0], 1e-3)
	assert.InDelta(t, 80.0/255, px[1], 1e-3)
	assert.InDelta(t, 40.0/255, px[2], 1e-3)

	for _, v := range result.Data {
		require.True(t, v >= 0 && v <= 1, "value %v out of [0, 1]", v)
	}
}

// TestPreprocessDeiT validates the resize-crop-normalize pipeline.
//
// The output must be CHW with (x - 0.5) / 0.5 applied, so values land in [-1, 1].
func TestPreprocessDeiT(t *testing.T) {
	p := NewPreprocessor(GetDeiTConfig(224))
	result, err := p.Preprocess(createSolidImage(300, 300, color.NRGBA{R: 255, G: 0, B: 128, A: 255}))
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3, 224, 224}, result.Shape)
	assert.Len(t, result.Data, 3*224*224)

	px := chw(result.Data, 224, 50, 170)
	assert.InDelta(t, 1.0, px[0], 1e-3)
	assert.InDelta(t, -1.0, px[1], 1e-3)
	assert.InDelta(t, (128.0/255-0.5)/0.5, px[2], 1e-3)

	for _, v := range result.Data {
		require.True(t, v >= -1 && v <= 1, "value %v out of [-1, 1]", v)
	}
}

// TestStretchVersusCenterCrop checks that the two families see different regions
// of the same wide image.
func TestStretchVersusCenterCrop(t *testing.T) {
	img := createBandedImage(448, 224)

	keras, err := NewPreprocessor(GetKerasConfig(224)).Preprocess(img)
	require.NoError(t, err)
	deit, err := NewPreprocessor(GetDeiTConfig(224)).Preprocess(img)
	require.NoError(t, err)

	// Stretch keeps the whole width: both outer bands survive.
	left := hwc(keras.Data, 224, 10, 112)
	right := hwc(keras.Data, 224, 213, 112)
	assert.InDelta(t, 1.0, left[0], 1e-3, "red band at the left edge")
	assert.InDelta(t, 1.0, right[2], 1e-3, "blue band at the right edge")

	// The center crop drops both outer quarters.
	assert.Equal(t, image.Rect(112, 0, 336, 224), deit.Crop)
	for _, x := range []int{10, 112, 213} {
		px := chw(deit.Data, 224, x, 112)
		assert.InDelta(t, -1.0, px[0], 1e-3, "x=%d red", x)
		assert.InDelta(t, 1.0, px[1], 1e-3, "x=%d green", x)
		assert.InDelta(t, -1.0, px[2], 1e-3, "x=%d blue", x)
	}
}

// TestCenterCropGeometry checks the crop window for landscape and portrait inputs.
func TestCenterCropGeometry(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		crop   image.Rectangle
	}{
		{name: "square", width: 224, height: 224, crop: image.Rect(0, 0, 224, 224)},
		{name: "landscape", width: 1000, height: 500, crop: image.Rect(112, 0, 336, 224)},
		{name: "portrait", width: 224, height: 448, crop: image.Rect(0, 112, 224, 336)},
		{name: "small", width: 112, height: 56, crop: image.Rect(112, 0, 336, 224)},
		{name: "overshoot one rounds down", width: 225, height: 224, crop: image.Rect(0, 0, 224, 224)},
		{name: "overshoot three rounds up", width: 227, height: 224, crop: image.Rect(2, 0, 226, 224)},
		{name: "portrait overshoot one", width: 224, height: 225, crop: image.Rect(0, 0, 224, 224)},
	}

	p := NewPreprocessor(GetDeiTConfig(224))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.Preprocess(createSolidImage(tt.width, tt.height, green))
			require.NoError(t, err)
			assert.Equal(t, tt.crop, result.Crop)
			assert.Len(t, result.Data, 3*224*224)
		})
	}
}

// TestPreprocessDoesNotMutateInput verifies the source pixels are left untouched.
func TestPreprocessDoesNotMutateInput(t *testing.T) {
	img := createBandedImage(320, 200)
	before := make([]uint8, len(img.Pix))
	copy(before, img.Pix)

	for _, cfg := range []*ModelConfig{GetKerasConfig(224), GetDeiTConfig(224)} {
		_, err := NewPreprocessor(cfg).Preprocess(img)
		require.NoError(t, err)
	}
	assert.Equal(t, before, img.Pix)
}

// TestPreprocessDeterministic verifies identical inputs produce identical tensors.
func TestPreprocessDeterministic(t *testing.T) {
	img := createBandedImage(333, 217)
	p := NewPreprocessor(GetDeiTConfig(224))

	a, err := p.Preprocess(img)
	require.NoError(t, err)
	b, err := p.Preprocess(img)
	require.NoError(t, err)
	assert.Equal(t, a.Data, b.Data)
}

// TestPreprocessSubImage verifies images with a non-zero origin are handled.
func TestPreprocessSubImage(t *testing.T) {
	full := createBandedImage(400, 400)
	sub := full.SubImage(image.Rect(150, 50, 250, 150))

	result, err := NewPreprocessor(GetKerasConfig(224)).Preprocess(sub)
	require.NoError(t, err)
	assert.Equal(t, 100, result.OriginalWidth)

	px := hwc(result.Data, 224, 112, 112)
	assert.InDelta(t, 1.0, px[1], 1e-3, "the sub image is entirely green")
}

// TestPreprocessColorModels verifies non-RGB inputs are converted.
func TestPreprocessColorModels(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range gray.Pix {
		gray.Pix[i] = 51
	}
	rgba := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := 0; i < len(rgba.Pix); i += 4 {
		rgba.Pix[i], rgba.Pix[i+3] = 255, 255
	}

	result, err := NewPreprocessor(GetKerasConfig(224)).Preprocess(gray)
	require.NoError(t, err)
	px := hwc(result.Data, 224, 0, 0)
	assert.InDelta(t, 0.2, px[0], 1e-3)
	assert.InDelta(t, 0.2, px[1], 1e-3)
	assert.InDelta(t, 0.2, px[2], 1e-3)

	result, err = NewPreprocessor(GetKerasConfig(224)).Preprocess(rgba)
	require.NoError(t, err)
	px = hwc(result.Data, 224, 5, 5)
	assert.InDelta(t, 1.0, px[0], 1e-3)
	assert.InDelta(t, 0.0, px[1], 1e-3)
}

// TestPreprocessTransparentPixels verifies alpha is dropped rather than
// premultiplied, so fully transparent pixels keep their stored color.
func TestPreprocessTransparentPixels(t *testing.T) {
	img := createSolidImage(448, 448, color.NRGBA{R: 200, G: 100, B: 50, A: 0})

	keras, err := NewPreprocessor(GetKerasConfig(224)).Preprocess(img)
	require.NoError(t, err)
	px := hwc(keras.Data, 224, 100, 100)
	assert.InDelta(t, 200.0/255, px[0], 1e-3)
	assert.InDelta(t, 100.0/255, px[1], 1e-3)
	assert.InDelta(t, 50.0/255, px[2], 1e-3)

	deit, err := NewPreprocessor(GetDeiTConfig(224)).Preprocess(img)
	require.NoError(t, err)
	px = chw(deit.Data, 224, 100, 100)
	assert.InDelta(t, (200.0/255-0.5)/0.5, px[0], 1e-3)
	assert.InDelta(t, (100.0/255-0.5)/0.5, px[1], 1e-3)
	assert.InDelta(t, (50.0/255-0.5)/0.5, px[2], 1e-3)
}

// TestPreprocessInvalidInput covers the validation errors.
func TestPreprocessInvalidInput(t *testing.T) {
	badChannels := GetKerasConfig(224)
	badChannels.InputChannels = 1

	badMean := GetDeiTConfig(224)
	badMean.MeanValues = []float32{0.5}

	tests := []struct {
		name   string
		config *ModelConfig
		img    image.Image
	}{
		{name: "nil image", config: GetKerasConfig(224), img: nil},
		{name: "empty image", config: GetDeiTConfig(224), img: image.NewNRGBA(image.Rect(0, 0, 0, 10))},
		{name: "unsupported channels", config: badChannels, img: createSolidImage(8, 8, red)},
		{name: "mean length mismatch", config: badMean, img: createSolidImage(8, 8, red)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewPreprocessor(tt.config).Preprocess(tt.img)
			assert.Error(t, err)
			assert.Nil(t, result)
		})
	}
}

// TestPipelineResampling checks each family resizes with the filter its training pipeline used.
func TestPipelineResampling(t *testing.T) {
	assert.Equal(t, resize.Bicubic, GetKerasConfig(224).Interpolation)
	assert.Equal(t, resize.Bilinear, GetDeiTConfig(224).Interpolation)
}

// TestToCHW checks the layout transpose on a tiny tensor.
func TestToCHW(t *testing.T) {
	// 1x2 image: pixel0 = (1,2,3), pixel1 = (4,5,6)
	out, err := toCHW([]float32{1, 2, 3, 4, 5, 6}, 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, out)
}
