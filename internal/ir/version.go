package ir

// Version constants for persisted registries.
const (
	// RegistryFormatVersion is bumped whenever the stored view layout changes.
	RegistryFormatVersion = "1"

	// ToolVersion is the fetchview version recorded alongside stored registries.
	ToolVersion = "0.1.0"
)
