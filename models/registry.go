// Package models - registry for the loaded wayang classifiers.
package models

import (
	"path/filepath"
	"sync"

	"github.com/nvr-ai/wayang/logger"
	"github.com/nvr-ai/wayang/models/model"
	"github.com/pkg/errors"
)

// Registry owns the three classifier handles and loads each at most once per process.
//
// The registry is constructed once and passed to whichever component needs it;
// there is no package-level model cache.
type Registry struct {
	dir     string
	loader  model.Loader
	mu      sync.Mutex
	entries map[model.Name]*entry
	closed  bool
}

type entry struct {
	once   sync.Once
	handle model.Handle
	err    error
	// ready is guarded by Registry.mu.
	ready bool
}

// NewRegistry creates a registry that loads artifacts from dir with loader.
//
// Arguments:
//   - dir: The directory holding the model artifacts (the models/<file> convention).
//   - loader: Creates handles from artifacts.
//
// Returns:
//   - *Registry: The registry. Nothing is loaded until Get or LoadAll is called.
func NewRegistry(dir string, loader model.Loader) *Registry {
	return &Registry{
		dir:     dir,
		loader:  loader,
		entries: make(map[model.Name]*entry, len(model.Names())),
	}
}

// Path returns the artifact path for a variant.
func (r *Registry) Path(v model.Variant) string {
	return filepath.Join(r.dir, v.File)
}

// Get returns the loaded handle for name, loading it on first use.
//
// Repeated calls with the same identifier return the same instance. A failed load
// is remembered and returned again without touching the disk.
//
// Arguments:
//   - name: The model identifier.
//
// Returns:
//   - model.Handle: The ready-to-infer handle.
//   - error: *model.UnknownModelError or *model.ModelLoadError.
func (r *Registry) Get(name model.Name) (model.Handle, error) {
	variant, err := model.Lookup(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, &model.ModelLoadError{Name: name, Path: r.Path(variant), Err: errors.New("registry is closed")}
	}
	e, ok := r.entries[name]
	if !ok {
		e = &entry{}
		r.entries[name] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		h, err := r.load(variant)

		r.mu.Lock()
		defer r.mu.Unlock()
		if err == nil && r.closed {
			_ = h.Close()
			h, err = nil, &model.ModelLoadError{Name: name, Path: r.Path(variant), Err: errors.New("registry is closed")}
		}
		e.handle, e.err = h, err
		e.ready = err == nil
	})
	return e.handle, e.err
}

func (r *Registry) load(variant model.Variant) (model.Handle, error) {
	path := r.Path(variant)
	logger.Info("registry", "loading %s from %s", variant.Name, path)

	h, err := r.loader.Load(variant, path)
	if err != nil {
		var loadErr *model.ModelLoadError
		if errors.As(err, &loadErr) {
			return nil, loadErr
		}
		return nil, &model.ModelLoadError{Name: variant.Name, Path: path, Err: err}
	}
	if h == nil {
		return nil, &model.ModelLoadError{Name: variant.Name, Path: path, Err: errors.New("loader returned no handle")}
	}

	logger.Info("registry", "loaded %s", variant.Name)
	return h, nil
}

// LoadAll eagerly loads every model, stopping at the first failure.
//
// Returns:
//   - error: The first *model.ModelLoadError encountered, if any.
func (r *Registry) LoadAll() error {
	for _, name := range model.Names() {
		if _, err := r.Get(name); err != nil {
			return err
		}
	}
	return nil
}

// Loaded returns the identifiers whose handles are loaded and usable.
func (r *Registry) Loaded() []model.Name {
	r.mu.Lock()
	defer r.mu.Unlock()

	var names []model.Name
	for name, e := range r.entries {
		if e.ready {
			names = append(names, name)
		}
	}
	model.SortNames(names)
	return names
}

// Close releases every loaded handle. Subsequent Get calls fail.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var firstErr error
	for name, e := range r.entries {
		if !e.ready {
			continue
		}
		if err := e.handle.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "closing %s", name)
		}
	}
	return firstErr
}
