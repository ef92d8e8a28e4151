package rules

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Field:      "default_limit",
		Message:    "default_limit must be at least 1, got 0",
		JSONPath:   "server.default_limit",
		Suggestion: "Use a positive number",
	}

	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "Configuration error at server.default_limit: "))
	assert.Contains(t, msg, "\nSuggestion: Use a positive number")

	err.Suggestion = ""
	assert.NotContains(t, err.Error(), "Suggestion")
}

func TestPositiveInt(t *testing.T) {
	assert.Nil(t, PositiveInt(1, "n", "a.n", ""))
	assert.Nil(t, PositiveInt(50, "n", "a.n", ""))

	err := PositiveInt(0, "n", "a.n", "Use 1 or more")
	require.NotNil(t, err)
	assert.Equal(t, "a.n", err.JSONPath)
	assert.Contains(t, err.Message, "must be at least 1, got 0")
	assert.Equal(t, "Use 1 or more", err.Suggestion)
}

func TestIntRange(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		shouldErr bool
	}{
		{"lower bound", 1, false},
		{"upper bound", 1000, false},
		{"inside", 10, false},
		{"below", 0, true},
		{"negative", -5, true},
		{"above", 1001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := IntRange(tt.value, 1, 1000, "default_limit", "server.default_limit")
			if !tt.shouldErr {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, "default_limit", err.Field)
			assert.Equal(t, "server.default_limit", err.JSONPath)
			assert.Contains(t, err.Message, "must be between 1 and 1000")
		})
	}
}

func TestNonNegativeWeight(t *testing.T) {
	assert.Nil(t, NonNegativeWeight(0, "tag_weight", "ranking.tag_weight"))
	assert.Nil(t, NonNegativeWeight(3, "tag_weight", "ranking.tag_weight"))

	err := NonNegativeWeight(-1, "tag_weight", "ranking.tag_weight")
	require.NotNil(t, err)
	assert.Contains(t, err.Message, "cannot be negative")
}

func TestDurationRange(t *testing.T) {
	assert.Nil(t, DurationRange(250*time.Millisecond, 10*time.Millisecond, time.Minute, "d", "x.d"))

	err := DurationRange(time.Millisecond, 10*time.Millisecond, time.Minute, "d", "x.d")
	require.NotNil(t, err)
	assert.Contains(t, err.Message, "between 10ms and 1m0s, got 1ms")
}

func TestUndefinedVariable(t *testing.T) {
	err := UndefinedVariable("AGENTS_HOME", "registry.agent_dir")
	assert.Equal(t, "registry.agent_dir", err.JSONPath)
	assert.Contains(t, err.Message, "AGENTS_HOME")
	assert.Contains(t, err.Suggestion, "AGENTS_HOME")
}
