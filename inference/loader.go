package inference

import (
	"os"

	"github.com/nvr-ai/wayang/inference/providers"
	"github.com/nvr-ai/wayang/logger"
	"github.com/nvr-ai/wayang/models"
	"github.com/nvr-ai/wayang/models/model"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// TensorNames overrides the input and output tensor names of one model.
type TensorNames struct {
	Inputs  []string `json:"inputs" yaml:"inputs"`
	Outputs []string `json:"outputs" yaml:"outputs"`
}

// ONNXLoader creates classifier sessions from .onnx artifacts.
type ONNXLoader struct {
	// Runtime configures the environment and session options.
	Runtime providers.Config
	// Names optionally pins tensor names per model. Unset names are read from the artifact.
	Names map[model.Name]TensorNames
}

// NewONNXLoader creates a loader for the given runtime configuration.
func NewONNXLoader(runtime providers.Config, names map[model.Name]TensorNames) *ONNXLoader {
	return &ONNXLoader{Runtime: runtime, Names: names}
}

// Load opens the artifact at path and creates a session for variant.
//
// Order of operations:
//  1. Artifact check: the file exists and is not empty.
//  2. Environment setup: the shared library is loaded once per process.
//  3. Graph inspection: the output must carry one score per label.
//  4. Session creation with the configured execution provider.
//
// Returns:
//   - model.Handle: A *Session.
//   - error: A *model.ModelLoadError for any failure.
func (l *ONNXLoader) Load(variant model.Variant, path string) (model.Handle, error) {
	fail := func(err error) (model.Handle, error) {
		return nil, &model.ModelLoadError{Name: variant.Name, Path: path, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fail(errors.Wrap(err, "model artifact not found"))
	}
	if info.IsDir() {
		return fail(errors.New("model artifact is a directory"))
	}
	if info.Size() == 0 {
		return fail(errors.New("model artifact is empty"))
	}

	if err := providers.InitializeEnvironment(l.Runtime); err != nil {
		return fail(err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return fail(errors.Wrap(err, "model artifact is not a readable ONNX graph"))
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return fail(errors.Errorf("graph declares %d inputs and %d outputs", len(inputs), len(outputs)))
	}
	if err := checkOutputDims(outputs[0].Dimensions, models.Labels.Len()); err != nil {
		return fail(err)
	}

	inNames, outNames := l.tensorNames(variant, inputs, outputs)

	options, err := providers.NewSessionOptions(l.Runtime)
	if err != nil {
		return fail(err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(path, inNames, outNames, options)
	if err != nil {
		return fail(errors.Wrap(err, "error creating ORT session"))
	}

	logger.Debug("onnx", "%s: inputs=%v outputs=%v backend=%s", variant.Name, inNames, outNames, l.Runtime.Backend)
	return &Session{
		name:    variant.Name,
		classes: int64(models.Labels.Len()),
		session: session,
	}, nil
}

func (l *ONNXLoader) tensorNames(variant model.Variant, inputs, outputs []ort.InputOutputInfo) ([]string, []string) {
	inNames := variant.Inputs
	outNames := variant.Outputs
	if override, ok := l.Names[variant.Name]; ok {
		if len(override.Inputs) > 0 {
			inNames = override.Inputs
		}
		if len(override.Outputs) > 0 {
			outNames = override.Outputs
		}
	}
	if len(inNames) == 0 {
		inNames = []string{inputs[0].Name}
	}
	if len(outNames) == 0 {
		outNames = []string{outputs[0].Name}
	}
	return inNames, outNames
}

// checkOutputDims verifies the last output dimension matches the label count.
// Dynamic dimensions (-1) are accepted.
func checkOutputDims(dims ort.Shape, classes int) error {
	if len(dims) == 0 {
		return errors.New("output has no dimensions")
	}
	last := dims[len(dims)-1]
	if last != -1 && last != int64(classes) {
		return errors.Errorf("output dimension %d does not match %d labels", last, classes)
	}
	return nil
}
