package postprocess

import (
	"github.com/chewxy/math32"
	"github.com/nvr-ai/wayang/models/model"
	"github.com/pkg/errors"
)

// Softmax converts logits into a probability vector.
//
// The maximum is subtracted before exponentiation so large logits do not overflow.
func Softmax(logits []float32) []float32 {
	out := make([]float32, len(logits))
	if len(logits) == 0 {
		return out
	}

	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	var sum float32
	for i, v := range logits {
		out[i] = math32.Exp(v - maxVal)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Normalize turns a raw model output into a probability vector over classes entries.
//
// Logits always go through Softmax. Outputs that are already probabilities pass through
// unchanged unless some value falls outside [0, 1], in which case they are softmaxed as well.
//
// Arguments:
//   - output: The raw output vector of the model.
//   - activation: What the model's final layer emits.
//   - classes: The expected vector length.
//
// Returns:
//   - []float32: The probabilities.
//   - error: If the vector has the wrong length or holds NaN or Inf values.
func Normalize(output []float32, activation model.Activation, classes int) ([]float32, error) {
	if len(output) != classes {
		return nil, errors.Errorf("output has %d values, expected %d", len(output), classes)
	}
	for i, v := range output {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return nil, errors.Errorf("output[%d] is not finite: %v", i, v)
		}
	}

	if activation == model.ActivationLogits {
		return Softmax(output), nil
	}

	for _, v := range output {
		if v < 0 || v > 1 {
			return Softmax(output), nil
		}
	}
	probs := make([]float32, len(output))
	copy(probs, output)
	return probs, nil
}

// Clamp bounds a confidence to [0, 1].
func Clamp(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
