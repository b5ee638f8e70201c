package model

import (
	"testing"

	"github.com/nvr-ai/wayang/models/model/preprocess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLookup covers every registered variant and an unregistered identifier.
func TestLookup(t *testing.T) {
	tests := []struct {
		name       Name
		family     Family
		file       string
		activation Activation
		order      preprocess.ChannelOrder
		resize     preprocess.ResizeMode
	}{
		{
			name:       ModelNameEfficientNetV2S,
			family:     ModelFamilyKeras,
			file:       "wayang_efficientnetv2s.onnx",
			activation: ActivationProbabilities,
			order:      preprocess.ChannelOrderHWC,
			resize:     preprocess.ResizeStretch,
		},
		{
			name:       ModelNameMobileNetV3Large,
			family:     ModelFamilyKeras,
			file:       "wayang_mobilenetv3large.onnx",
			activation: ActivationProbabilities,
			order:      preprocess.ChannelOrderHWC,
			resize:     preprocess.ResizeStretch,
		},
		{
			name:       ModelNameDeiTSmall,
			family:     ModelFamilyTimm,
			file:       "wayang_deit_small.onnx",
			activation: ActivationLogits,
			order:      preprocess.ChannelOrderCHW,
			resize:     preprocess.ResizeShortSideCenterCrop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name.String(), func(t *testing.T) {
			v, err := Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.name, v.Name)
			assert.Equal(t, tt.family, v.Family)
			assert.Equal(t, tt.file, v.File)
			assert.Equal(t, tt.activation, v.Activation)
			require.NotNil(t, v.Pipeline)
			assert.Equal(t, tt.order, v.Pipeline.ChannelOrder)
			assert.Equal(t, tt.resize, v.Pipeline.ResizeMode)
			assert.Equal(t, InputSize, v.Pipeline.InputWidth)
			assert.Equal(t, InputSize, v.Pipeline.InputHeight)
			assert.NotEmpty(t, v.DisplayName)
		})
	}

	_, err := Lookup("resnet50")
	var unknown *UnknownModelError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, Name("resnet50"), unknown.Name)
}

// TestParseName verifies identifiers are trimmed and validated.
func TestParseName(t *testing.T) {
	name, err := ParseName("  deit_small\n")
	require.NoError(t, err)
	assert.Equal(t, ModelNameDeiTSmall, name)

	for _, raw := range []string{"", "DeiT_Small", "efficientnet"} {
		_, err := ParseName(raw)
		var unknown *UnknownModelError
		assert.ErrorAs(t, err, &unknown, "raw=%q", raw)
	}
}

// TestNamesOrder verifies the presentation order and that callers get a copy.
func TestNamesOrder(t *testing.T) {
	want := []Name{ModelNameEfficientNetV2S, ModelNameMobileNetV3Large, ModelNameDeiTSmall}
	assert.Equal(t, want, Names())

	names := Names()
	names[0] = "mutated"
	assert.Equal(t, want, Names())

	variants := Variants()
	require.Len(t, variants, 3)
	for i, v := range variants {
		assert.Equal(t, want[i], v.Name)
	}
	assert.Equal(t, ModelNameEfficientNetV2S, DefaultName)
}

// TestSortNames verifies unknown identifiers sort last and ties stay stable.
func TestSortNames(t *testing.T) {
	names := []Name{"zzz", ModelNameDeiTSmall, "aaa", ModelNameEfficientNetV2S, ModelNameMobileNetV3Large}
	SortNames(names)
	assert.Equal(t, []Name{ModelNameEfficientNetV2S, ModelNameMobileNetV3Large, ModelNameDeiTSmall, "zzz", "aaa"}, names)
}

// TestLoaderFunc verifies the adapter forwards its arguments.
func TestLoaderFunc(t *testing.T) {
	var gotPath string
	var gotName Name
	loader := LoaderFunc(func(v Variant, path string) (Handle, error) {
		gotName, gotPath = v.Name, path
		return nil, nil
	})

	v, err := Lookup(ModelNameMobileNetV3Large)
	require.NoError(t, err)
	_, err = loader.Load(v, "models/x.onnx")
	require.NoError(t, err)
	assert.Equal(t, ModelNameMobileNetV3Large, gotName)
	assert.Equal(t, "models/x.onnx", gotPath)
}

// TestErrorMessages verifies the errors name the model and unwrap to their cause.
func TestErrorMessages(t *testing.T) {
	cause := assert.AnError

	load := &ModelLoadError{Name: ModelNameDeiTSmall, Path: "models/wayang_deit_small.onnx", Err: cause}
	assert.Contains(t, load.Error(), "deit_small")
	assert.Contains(t, load.Error(), "models/wayang_deit_small.onnx")
	assert.ErrorIs(t, load, cause)

	pred := &PredictionError{Name: ModelNameEfficientNetV2S, Err: cause}
	assert.Contains(t, pred.Error(), "efficientnetv2s")
	assert.ErrorIs(t, pred, cause)

	assert.Contains(t, (&UnknownModelError{Name: "foo"}).Error(), `"foo"`)
}
