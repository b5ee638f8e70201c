// Package model - Definitions for the wayang classifier variants and their handles.
package model

import (
	"sort"
	"strings"

	"github.com/nvr-ai/wayang/models/model/preprocess"
)

// Family is the family of models, named after the framework the weights were trained in.
type Family string

const (
	// ModelFamilyKeras is the Keras model family (EfficientNet, MobileNet).
	ModelFamilyKeras Family = "keras"
	// ModelFamilyTimm is the timm/PyTorch model family (DeiT).
	ModelFamilyTimm Family = "timm"
)

// Name is the unique identifier of a model.
type Name string

const (
	// ModelNameEfficientNetV2S is the name of the EfficientNetV2-S model.
	ModelNameEfficientNetV2S Name = "efficientnetv2s"
	// ModelNameMobileNetV3Large is the name of the MobileNetV3-Large model.
	ModelNameMobileNetV3Large Name = "mobilenetv3large"
	// ModelNameDeiTSmall is the name of the DeiT-Small patch model.
	ModelNameDeiTSmall Name = "deit_small"
)

// String returns the identifier as a string.
func (n Name) String() string {
	return string(n)
}

// Activation describes what the model's raw output vector holds.
type Activation int

const (
	// ActivationProbabilities means the graph ends in a softmax already.
	ActivationProbabilities Activation = iota
	// ActivationLogits means the graph emits unnormalized scores.
	ActivationLogits
)

// Variant ties a model identifier to the conventions its handle expects.
//
// Each variant carries its own preprocessing pipeline and output convention, so
// the adapter dispatches on the variant rather than on raw identifier strings.
type Variant struct {
	Name        Name                    `json:"name" yaml:"name"`
	DisplayName string                  `json:"display_name" yaml:"display_name"`
	Family      Family                  `json:"family" yaml:"family"`
	File        string                  `json:"file" yaml:"file"`
	Pipeline    *preprocess.ModelConfig `json:"-" yaml:"-"`
	Activation  Activation              `json:"-" yaml:"-"`
	Inputs      []string                `json:"inputs" yaml:"inputs"`
	Outputs     []string                `json:"outputs" yaml:"outputs"`
}

// InputSize is the square input resolution shared by all three models.
const InputSize = 224

var variants = map[Name]Variant{
	ModelNameEfficientNetV2S: {
		Name:        ModelNameEfficientNetV2S,
		DisplayName: "EfficientNetV2S (Keras)",
		Family:      ModelFamilyKeras,
		File:        "wayang_efficientnetv2s.onnx",
		Pipeline:    preprocess.GetKerasConfig(InputSize),
		Activation:  ActivationProbabilities,
	},
	ModelNameMobileNetV3Large: {
		Name:        ModelNameMobileNetV3Large,
		DisplayName: "MobileNetV3Large (Keras)",
		Family:      ModelFamilyKeras,
		File:        "wayang_mobilenetv3large.onnx",
		Pipeline:    preprocess.GetKerasConfig(InputSize),
		Activation:  ActivationProbabilities,
	},
	ModelNameDeiTSmall: {
		Name:        ModelNameDeiTSmall,
		DisplayName: "DeiT-Small (PyTorch)",
		Family:      ModelFamilyTimm,
		File:        "wayang_deit_small.onnx",
		Pipeline:    preprocess.GetDeiTConfig(InputSize),
		Activation:  ActivationLogits,
	},
}

// order is the presentation order used by the UI.
var order = []Name{ModelNameEfficientNetV2S, ModelNameMobileNetV3Large, ModelNameDeiTSmall}

// DefaultName is the model selected when the caller does not pick one.
const DefaultName = ModelNameEfficientNetV2S

// Lookup returns the variant registered under name.
//
// Arguments:
//   - name: The model identifier.
//
// Returns:
//   - Variant: The variant for the identifier.
//   - error: *UnknownModelError if the identifier is not one of the three models.
func Lookup(name Name) (Variant, error) {
	v, ok := variants[name]
	if !ok {
		return Variant{}, &UnknownModelError{Name: name}
	}
	return v, nil
}

// ParseName validates a raw identifier coming from a UI boundary.
func ParseName(s string) (Name, error) {
	name := Name(strings.TrimSpace(s))
	if _, err := Lookup(name); err != nil {
		return "", err
	}
	return name, nil
}

// Names returns all model identifiers in presentation order.
func Names() []Name {
	out := make([]Name, len(order))
	copy(out, order)
	return out
}

// Variants returns all variants in presentation order.
func Variants() []Variant {
	out := make([]Variant, 0, len(order))
	for _, n := range order {
		out = append(out, variants[n])
	}
	return out
}

// SortNames orders names by presentation order, unknown names last.
func SortNames(names []Name) {
	rank := make(map[Name]int, len(order))
	for i, n := range order {
		rank[n] = i
	}
	sort.SliceStable(names, func(i, j int) bool {
		ri, ok := rank[names[i]]
		if !ok {
			ri = len(order)
		}
		rj, ok := rank[names[j]]
		if !ok {
			rj = len(order)
		}
		return ri < rj
	})
}

// Handle is a loaded, ready-to-infer instance of one pretrained classifier.
//
// Implementations must be safe for concurrent use; no per-call state may live on the handle.
type Handle interface {
	// Run executes the model on a preprocessed tensor and returns the raw output vector.
	Run(input []float32, shape []int64) ([]float32, error)
	// Close releases the native resources owned by the handle.
	Close() error
}

// Loader creates handles from model artifacts on disk.
type Loader interface {
	Load(variant Variant, path string) (Handle, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(variant Variant, path string) (Handle, error)

// Load calls f(variant, path).
func (f LoaderFunc) Load(variant Variant, path string) (Handle, error) {
	return f(variant, path)
}
