package providers

// CoreMLOptions contains arguments for the CoreML provider.
// See: https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
type CoreMLOptions struct {
	// CPUOnly limits CoreML to running on CPU only.
	CPUOnly bool `json:"cpu_only" yaml:"cpu_only"`
	// EnableOnSubgraph lets CoreML run on subgraphs in the body of control flow operators.
	EnableOnSubgraph bool `json:"enable_on_subgraph" yaml:"enable_on_subgraph"`
	// OnlyANE restricts CoreML to devices with an Apple Neural Engine.
	OnlyANE bool `json:"only_ane" yaml:"only_ane"`
}

// CoreML provider flags, mirroring COREMLFlags in coreml_provider_factory.h.
const (
	coreMLFlagUseCPUOnly       uint32 = 0x001
	coreMLFlagEnableOnSubgraph uint32 = 0x002
	coreMLFlagOnlyEnableOnANE  uint32 = 0x004
)

// Flags packs the options into the bitmask expected by the legacy CoreML API.
func (o CoreMLOptions) Flags() uint32 {
	var flags uint32
	if o.CPUOnly {
		flags |= coreMLFlagUseCPUOnly
	}
	if o.EnableOnSubgraph {
		flags |= coreMLFlagEnableOnSubgraph
	}
	if o.OnlyANE {
		flags |= coreMLFlagOnlyEnableOnANE
	}
	return flags
}
