package providers

import (
	"os"
	"sync"

	"github.com/nvr-ai/wayang/logger"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	envMu   sync.Mutex
	envErr  error
	envDone bool
)

// InitializeEnvironment loads the onnxruntime shared library and prepares its internals.
//
// It runs once per process. Later calls return the outcome of the first one.
//
// Arguments:
//   - cfg: The runtime configuration; only SharedLibraryPath is used.
//
// Returns:
//   - error: An error if the library is missing or fails to initialize.
func InitializeEnvironment(cfg Config) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envDone {
		return envErr
	}
	envDone = true

	libPath := GetSharedLibPath(cfg.SharedLibraryPath)
	if _, err := os.Stat(libPath); err != nil {
		envErr = errors.Wrapf(err, "onnxruntime library not found at %s", libPath)
		return envErr
	}

	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		envErr = errors.Wrap(err, "error initializing ORT environment")
		return envErr
	}

	logger.Info("onnx", "runtime %s initialized from %s", ort.GetVersion(), libPath)
	return nil
}

// DestroyEnvironment tears down the runtime if it was initialized.
func DestroyEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	if !ort.IsInitialized() {
		return nil
	}
	envDone = false
	envErr = nil
	return ort.DestroyEnvironment()
}
