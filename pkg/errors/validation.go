package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxIdentifierLength bounds ids read from configuration and request paths.
const maxIdentifierLength = 128

// ValidateIdentifier validates an id of a building, section, block group or
// block. The kind is only used in messages ("building", "section", ...).
//
// The validation rules:
//   - No empty ids
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateIdentifier(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidConfig, "%s id cannot be empty", kind)
	}

	if len(id) > maxIdentifierLength {
		return New(ErrCodeInvalidConfig, "%s id too long (max %d characters)", kind, maxIdentifierLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "%s id %q contains control characters", kind, id)
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidConfig, "%s id %q contains invalid characters: %q", kind, id, pattern)
		}
	}

	return nil
}

// ValidateParameterName validates the key of a parameter map. Any
// non-empty name without control characters is accepted.
func ValidateParameterName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "parameter name cannot be empty")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "parameter name %q contains control characters", name)
		}
	}
	return nil
}

// uuidRegex matches the canonical textual form of a plan id.
var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidatePlanID validates a plan id taken from a request path.
func ValidatePlanID(id string) error {
	if !uuidRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid plan id: %q", id)
	}
	return nil
}
