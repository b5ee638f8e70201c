package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, CPUProviderBackend, cfg.Backend)
	assert.GreaterOrEqual(t, cfg.IntraOpNumThreads, 1)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "tpu" }},
		{name: "empty backend", mutate: func(c *Config) { c.Backend = "" }},
		{name: "negative intra", mutate: func(c *Config) { c.IntraOpNumThreads = -1 }},
		{name: "negative inter", mutate: func(c *Config) { c.InterOpNumThreads = -2 }},
		{name: "bad optimization level", mutate: func(c *Config) { c.GraphOptimization = "turbo" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseGraphOptimizationLevel(t *testing.T) {
	tests := map[string]ort.GraphOptimizationLevel{
		"":            ort.GraphOptimizationLevelEnableExtended,
		"disable_all": ort.GraphOptimizationLevelDisableAll,
		"BASIC":       ort.GraphOptimizationLevelEnableBasic,
		" extended ":  ort.GraphOptimizationLevelEnableExtended,
		"all":         ort.GraphOptimizationLevelEnableAll,
	}
	for in, want := range tests {
		got, err := ParseGraphOptimizationLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestCoreMLFlags(t *testing.T) {
	assert.Equal(t, uint32(0), CoreMLOptions{}.Flags())
	assert.Equal(t, uint32(0x5), CoreMLOptions{CPUOnly: true, OnlyANE: true}.Flags())
}

func TestCUDAOptionsMap(t *testing.T) {
	m := CUDAOptions{DeviceID: 1, ArenaExtendStrategy: 1, CudnnConvAlgoSearch: "HEURISTIC"}.Map()
	assert.Equal(t, "1", m["device_id"])
	assert.Equal(t, "kSameAsRequested", m["arena_extend_strategy"])
	assert.Equal(t, "HEURISTIC", m["cudnn_conv_algo_search"])
	assert.NotContains(t, m, "gpu_mem_limit")
}

func TestOpenVINOOptionsMap(t *testing.T) {
	m := OpenVINOOptions{DeviceType: "GPU", Precision: "FP16"}.Map()
	assert.Equal(t, map[string]string{"device_type": "GPU", "precision": "FP16"}, m)
}

func TestGetSharedLibPath(t *testing.T) {
	assert.Equal(t, "/opt/ort.so", GetSharedLibPath("/opt/ort.so"))

	t.Setenv(SharedLibraryEnv, "/usr/lib/libonnxruntime.so")
	assert.Equal(t, "/usr/lib/libonnxruntime.so", GetSharedLibPath(""))

	t.Setenv(SharedLibraryEnv, "")
	assert.NotEmpty(t, GetSharedLibPath(""))
}
