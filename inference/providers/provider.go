// Package providers - ONNX Runtime environment, execution providers and session options.
package providers

import (
	"runtime"
	"strings"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// ProviderBackend represents different ONNX Runtime execution providers.
type ProviderBackend string

const (
	// CPUProviderBackend runs on the default CPU execution provider.
	CPUProviderBackend ProviderBackend = "cpu"
	// CoreMLProviderBackend uses Apple CoreML for macOS acceleration.
	CoreMLProviderBackend ProviderBackend = "coreml"
	// CUDAProviderBackend uses NVIDIA CUDA for GPU acceleration.
	CUDAProviderBackend ProviderBackend = "cuda"
	// OpenVINOProviderBackend uses Intel OpenVINO for inference optimization.
	OpenVINOProviderBackend ProviderBackend = "openvino"
)

// Config holds the runtime settings shared by every classifier session.
type Config struct {
	// Backend selects the execution provider. CPU is always appended last by ONNX Runtime.
	Backend ProviderBackend `json:"backend" yaml:"backend"`
	// SharedLibraryPath overrides the onnxruntime shared library location.
	SharedLibraryPath string `json:"shared_library_path" yaml:"shared_library_path"`
	// IntraOpNumThreads sets threads for parallelizing ops. 0 lets the runtime decide.
	IntraOpNumThreads int `json:"intra_op_num_threads" yaml:"intra_op_num_threads"`
	// InterOpNumThreads sets threads for parallelizing independent ops. 0 lets the runtime decide.
	InterOpNumThreads int `json:"inter_op_num_threads" yaml:"inter_op_num_threads"`
	// GraphOptimization is one of disable_all, basic, extended, all.
	GraphOptimization string `json:"graph_optimization" yaml:"graph_optimization"`
	// CoreML holds CoreML provider options.
	CoreML CoreMLOptions `json:"coreml" yaml:"coreml"`
	// CUDA holds CUDA provider options.
	CUDA CUDAOptions `json:"cuda" yaml:"cuda"`
	// OpenVINO holds OpenVINO provider options.
	OpenVINO OpenVINOOptions `json:"openvino" yaml:"openvino"`
}

// DefaultConfig returns a CPU configuration with extended graph optimizations.
func DefaultConfig() Config {
	return Config{
		Backend:           CPUProviderBackend,
		IntraOpNumThreads: max(1, runtime.NumCPU()/2),
		InterOpNumThreads: 1,
		GraphOptimization: "extended",
		OpenVINO: OpenVINOOptions{
			DeviceType: "CPU",
			Precision:  "FP32",
		},
	}
}

// Validate checks the configuration for values ONNX Runtime would reject.
func (c Config) Validate() error {
	switch c.Backend {
	case CPUProviderBackend, CoreMLProviderBackend, CUDAProviderBackend, OpenVINOProviderBackend:
	default:
		return errors.Errorf("no matching provider backend registered: %q", c.Backend)
	}
	if c.IntraOpNumThreads < 0 {
		return errors.Errorf("intra_op_num_threads must be >= 0, got %d", c.IntraOpNumThreads)
	}
	if c.InterOpNumThreads < 0 {
		return errors.Errorf("inter_op_num_threads must be >= 0, got %d", c.InterOpNumThreads)
	}
	if _, err := ParseGraphOptimizationLevel(c.GraphOptimization); err != nil {
		return err
	}
	return nil
}

// ParseGraphOptimizationLevel maps a configuration string to the runtime level.
// An empty string selects the extended level.
func ParseGraphOptimizationLevel(s string) (ort.GraphOptimizationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disable_all", "none":
		return ort.GraphOptimizationLevelDisableAll, nil
	case "basic":
		return ort.GraphOptimizationLevelEnableBasic, nil
	case "", "extended":
		return ort.GraphOptimizationLevelEnableExtended, nil
	case "all":
		return ort.GraphOptimizationLevelEnableAll, nil
	default:
		return ort.GraphOptimizationLevelEnableExtended, errors.Errorf("unknown graph optimization level: %q", s)
	}
}
