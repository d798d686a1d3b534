package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// circuitNameRegex matches circuit basenames such as "ami33" or "n100_2".
var circuitNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateCircuitName validates a circuit name used to build input file
// paths (<root>/<name>.blk.csv and friends). It rejects anything that
// could escape the data root.
func ValidateCircuitName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "circuit name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidName, "circuit name too long (max 128 characters)")
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidName, "circuit name cannot contain %q", "..")
	}
	if !circuitNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid circuit name: %q", name)
	}
	return nil
}

// ValidateEntityName validates a block or terminal name from circuit data.
// Names are opaque identifiers; only empty names and control characters
// are rejected.
func ValidateEntityName(name string) error {
	if name == "" {
		return New(ErrCodeMissingField, "entity name cannot be empty")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "entity name %q contains control characters", name)
		}
	}
	return nil
}

// ValidatePositive checks that a named numeric field is finite and > 0.
func ValidatePositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return New(ErrCodeInvalidConfig, "%s must be positive, got %v", field, v)
	}
	return nil
}

// ValidateFraction checks that a named field lies in (0, 1].
func ValidateFraction(field string, v float64) error {
	if math.IsNaN(v) || v <= 0 || v > 1 {
		return New(ErrCodeInvalidConfig, "%s must be in (0, 1], got %v", field, v)
	}
	return nil
}
