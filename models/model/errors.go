package model

import "fmt"

// ModelLoadError is returned when a model artifact is missing or cannot be loaded.
// It is a startup-time failure; the model is never retried.
type ModelLoadError struct {
	Name Name
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("failed to load model %s from %s: %v", e.Name, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// UnknownModelError is returned when a caller asks for an identifier that is not registered.
type UnknownModelError struct {
	Name Name
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model: %q", string(e.Name))
}

// PredictionError is returned when a model fails while running inference or
// produces an output that cannot be turned into a label.
type PredictionError struct {
	Name Name
	Err  error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction with model %s failed: %v", e.Name, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PredictionError) Unwrap() error {
	return e.Err
}
