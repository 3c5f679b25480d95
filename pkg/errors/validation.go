package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateExperimentName validates an experiment name for safety.
// Experiment names become directory names and database keys, so the rules
// are conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateExperimentName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "experiment name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "experiment name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "experiment name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "experiment name contains invalid characters: %q", pattern)
		}
	}

	if !experimentNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid experiment name: %q", name)
	}

	return nil
}

// experimentNameRegex matches names made of letters, digits, dots, dashes and underscores.
var experimentNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateVariant validates a record variant name.
func ValidateVariant(variant string) error {
	switch variant {
	case "nohold", "hold":
		return nil
	default:
		return New(ErrCodeInvalidInput, "invalid variant %q (must be one of: nohold, hold)", variant)
	}
}

// ValidateURL validates a backend URL string (cache or record store).
// Only redis and mongodb schemes are accepted.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	for _, scheme := range []string{"redis://", "rediss://", "mongodb://", "mongodb+srv://"} {
		if strings.HasPrefix(rawURL, scheme) {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use a redis or mongodb scheme")
}
