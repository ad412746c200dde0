package ir

// Version constants recorded alongside journaled runs.
const (
	// DescriptorVersion is the node encoding version (see DomainInput, DomainCombine).
	DescriptorVersion = "1"

	// EngineVersion is the RILL engine version.
	EngineVersion = "0.1.0"
)
