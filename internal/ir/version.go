package ir

// Version constants for the group spec format and the tool.
const (
	// SpecVersion is the GroupSpec schema version.
	SpecVersion = "1"

	// ToolVersion is the verifly version.
	ToolVersion = "0.1.0"
)
