package domain

// PromptType selects the instructional template used for an analysis run.
// Templates are enumerated; free-form prompt text is rejected at the API
// boundary.
type PromptType string

const (
	PromptTypeDefault        PromptType = "default"
	PromptTypeQuick          PromptType = "quick"
	PromptTypeMethodology    PromptType = "methodology"
	PromptTypeContradictions PromptType = "contradictions"
	PromptTypeComparison     PromptType = "comparison"
	PromptTypeBatch          PromptType = "batch"
)

// isValidPromptType checks if a PromptType is valid.
func isValidPromptType(t PromptType) bool {
	switch t {
	case PromptTypeDefault, PromptTypeQuick, PromptTypeMethodology,
		PromptTypeContradictions, PromptTypeComparison, PromptTypeBatch:
		return true
	}
	return false
}

// ValidatePromptType validates a PromptType value.
func ValidatePromptType(t PromptType) error {
	if !isValidPromptType(t) {
		return ErrInvalidPromptType
	}
	return nil
}
