package rules

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error with context
type ValidationError struct {
	Field      string
	Message    string
	JSONPath   string
	Suggestion string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration error at %s: %s", e.JSONPath, e.Message))
	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\nSuggestion: %s", e.Suggestion))
	}
	return sb.String()
}

// UndefinedVariable creates a ValidationError for undefined environment variables
func UndefinedVariable(varName, jsonPath string) *ValidationError {
	return &ValidationError{
		Field:      "env variable",
		Message:    fmt.Sprintf("undefined environment variable referenced: %s", varName),
		JSONPath:   jsonPath,
		Suggestion: fmt.Sprintf("Set the environment variable %s before starting the server", varName),
	}
}

// UnsupportedField creates a ValidationError for unknown or unsupported fields
func UnsupportedField(fieldName, message, jsonPath, suggestion string) *ValidationError {
	return &ValidationError{
		Field:      fieldName,
		Message:    message,
		JSONPath:   jsonPath,
		Suggestion: suggestion,
	}
}

// PositiveInt validates that value is at least 1
// Returns nil if valid, *ValidationError if invalid
func PositiveInt(value int, fieldName, jsonPath, suggestion string) *ValidationError {
	if value < 1 {
		return &ValidationError{
			Field:      fieldName,
			Message:    fmt.Sprintf("%s must be at least 1, got %d", fieldName, value),
			JSONPath:   jsonPath,
			Suggestion: suggestion,
		}
	}
	return nil
}

// IntRange validates that value lies in [min, max]
func IntRange(value, min, max int, fieldName, jsonPath string) *ValidationError {
	if value < min || value > max {
		return &ValidationError{
			Field:      fieldName,
			Message:    fmt.Sprintf("%s must be between %d and %d, got %d", fieldName, min, max, value),
			JSONPath:   jsonPath,
			Suggestion: fmt.Sprintf("Use a value between %d and %d", min, max),
		}
	}
	return nil
}

// NonNegativeWeight validates a ranking weight
func NonNegativeWeight(value int, fieldName, jsonPath string) *ValidationError {
	if value < 0 {
		return &ValidationError{
			Field:      fieldName,
			Message:    fmt.Sprintf("%s cannot be negative, got %d", fieldName, value),
			JSONPath:   jsonPath,
			Suggestion: "Use 0 to ignore this signal, or a positive weight",
		}
	}
	return nil
}

// DurationRange validates that d lies in [min, max]
func DurationRange(d, min, max time.Duration, fieldName, jsonPath string) *ValidationError {
	if d < min || d > max {
		return &ValidationError{
			Field:      fieldName,
			Message:    fmt.Sprintf("%s must be between %s and %s, got %s", fieldName, min, max, d),
			JSONPath:   jsonPath,
			Suggestion: fmt.Sprintf("Use a duration string such as %q", "250ms"),
		}
	}
	return nil
}
