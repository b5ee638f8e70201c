// Package inference - Classifier sessions and the unified prediction adapter.
package inference

import (
	"sync"

	"github.com/nvr-ai/wayang/models/model"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// Session is a loaded ONNX Runtime classifier that implements model.Handle.
//
// It wraps a dynamic session: tensors are created per call, so Run is safe to
// call from multiple goroutines.
type Session struct {
	name    model.Name
	classes int64

	mu      sync.RWMutex
	session *ort.DynamicAdvancedSession
}

// Run executes the model on one preprocessed tensor.
//
// Arguments:
//   - input: The tensor data, already laid out for the model.
//   - shape: The tensor shape including the batch dimension.
//
// Returns:
//   - []float32: A copy of the raw output vector.
//   - error: An error if the session is closed or the runtime rejects the input.
func (s *Session) Run(input []float32, shape []int64) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil, errors.Errorf("session for %s is closed", s.name)
	}

	in, err := ort.NewTensor(ort.NewShape(shape...), input)
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, s.classes))
	if err != nil {
		return nil, errors.Wrap(err, "error creating output tensor")
	}
	defer out.Destroy()

	if err := s.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return nil, errors.Wrapf(err, "error running %s", s.name)
	}

	data := out.GetData()
	result := make([]float32, len(data))
	copy(result, data)
	return result, nil
}

// Close releases the native session. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	if err != nil {
		return errors.Wrap(err, "error destroying ORT session")
	}
	return nil
}
