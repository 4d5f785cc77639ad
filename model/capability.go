// Package model provides capability-based model selection for pipeline stages.
// Instead of hardcoding model names, stages specify capabilities (extraction, drafting)
// and the registry resolves them to available models with fallback chains.
package model

// Capability represents a semantic capability for model selection.
// Instead of specifying "qwen2.5:14b", stages specify "extraction" or "drafting".
type Capability string

const (
	// CapabilityExtraction is for structured-field extraction from free text.
	CapabilityExtraction Capability = "extraction"

	// CapabilityDrafting is for long-form plan generation.
	CapabilityDrafting Capability = "drafting"

	// CapabilityFast is for quick responses, simple tasks.
	CapabilityFast Capability = "fast"
)

// StageCapabilities maps pipeline stages to their default capability.
// Used when no explicit capability is specified.
var StageCapabilities = map[string]Capability{
	"parse": CapabilityExtraction,
	"plan":  CapabilityDrafting,
}

// CapabilityForStage returns the default capability for a given stage.
// Returns CapabilityFast as fallback for unknown stages.
func CapabilityForStage(stage string) Capability {
	if cap, ok := StageCapabilities[stage]; ok {
		return cap
	}
	return CapabilityFast
}

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityExtraction, CapabilityDrafting, CapabilityFast:
		return true
	}
	return false
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning empty for invalid values.
func ParseCapability(s string) Capability {
	c := Capability(s)
	if c.IsValid() {
		return c
	}
	return ""
}
