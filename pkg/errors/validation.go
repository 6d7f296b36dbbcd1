package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds element, flow and lane identifiers.
const maxIDLength = 256

// ValidateID validates a model identifier (element, flow, lane or process id).
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters or null bytes
//   - No whitespace (ids are XML NCName-like in BPMN)
//   - Maximum length of 256 characters
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "id cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "id %q too long (max %d characters)", truncate(id, 32), maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "id %q contains invalid control characters", id)
		}
		if unicode.IsSpace(r) {
			return New(ErrCodeInvalidID, "id %q contains whitespace", id)
		}
	}

	return nil
}

// ValidateFilename validates a model filename for safety.
// It ensures the filename carries a supported extension.
func ValidateFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidFormat, "filename cannot be empty")
	}

	lower := strings.ToLower(filename)
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		if strings.HasSuffix(lower, ext) {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported model file %q (want .json, .yaml or .yml)", filename)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
