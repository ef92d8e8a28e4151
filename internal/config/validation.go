package config

import (
	"math"
	"os"
	"regexp"
	"time"

	"github.com/orchestr8/orchestr8-mcp/internal/config/rules"
	"github.com/orchestr8/orchestr8-mcp/internal/logger"
)

// ValidationError is an alias for rules.ValidationError
type ValidationError = rules.ValidationError

// Variable expression pattern: ${VARIABLE_NAME}
var varExprPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

var logValidation = logger.New("config:validation")

// Bounds for tunables.
const (
	MaxDefaultLimit    = 1000
	MinMaxMessageBytes = 1024
	MaxMaxMessageBytes = 64 << 20
	MinWatchDebounce   = 10 * time.Millisecond
	MaxWatchDebounce   = time.Minute
)

// expandVariable expands ${VAR} expressions in a string
// Returns the expanded string and error if any variable is undefined
func expandVariable(value, jsonPath string) (string, error) {
	var undefinedVars []string

	result := varExprPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		if envValue, exists := os.LookupEnv(varName); exists {
			logValidation.Printf("Expanded variable: %s (found in environment)", varName)
			return envValue
		}
		undefinedVars = append(undefinedVars, varName)
		return match
	})

	if len(undefinedVars) > 0 {
		logValidation.Printf("Variable expansion failed: undefined variables=%v", undefinedVars)
		return "", rules.UndefinedVariable(undefinedVars[0], jsonPath)
	}
	return result, nil
}

// expandVariables expands the path-valued fields, the only ones where
// environment references make sense.
func (c *Config) expandVariables() error {
	fields := []struct {
		value *string
		path  string
	}{
		{&c.Registry.AgentDir, "registry.agent_dir"},
		{&c.Logging.LogDir, "logging.log_dir"},
	}
	for _, f := range fields {
		expanded, err := expandVariable(*f.value, f.path)
		if err != nil {
			return err
		}
		*f.value = expanded
	}
	return nil
}

// Validate checks every tunable and returns the first problem found.
func (c *Config) Validate() error {
	logValidation.Print("Validating configuration")

	if err := rules.IntRange(c.Server.DefaultLimit, 1, MaxDefaultLimit, "default_limit", "server.default_limit"); err != nil {
		return err
	}
	if err := rules.IntRange(c.Server.MaxMessageBytes, MinMaxMessageBytes, MaxMaxMessageBytes, "max_message_bytes", "server.max_message_bytes"); err != nil {
		return err
	}
	if c.Registry.AgentDir == "" {
		return &ValidationError{
			Field:      "agent_dir",
			Message:    "agent_dir cannot be empty",
			JSONPath:   "registry.agent_dir",
			Suggestion: "Remove the key to use the default 'agents' directory",
		}
	}
	if c.Registry.ManifestQuery == "" {
		return &ValidationError{
			Field:      "manifest_query",
			Message:    "manifest_query cannot be empty",
			JSONPath:   "registry.manifest_query",
			Suggestion: "Remove the key to use the default '.agents[]?'",
		}
	}
	if err := rules.DurationRange(c.Registry.WatchDebounce.Duration, MinWatchDebounce, MaxWatchDebounce, "watch_debounce", "registry.watch_debounce"); err != nil {
		return err
	}
	if err := rules.NonNegativeWeight(c.Ranking.Tag, "tag_weight", "ranking.tag_weight"); err != nil {
		return err
	}
	if err := rules.NonNegativeWeight(c.Ranking.Description, "description_weight", "ranking.description_weight"); err != nil {
		return err
	}
	if c.Ranking.Tag == 0 && c.Ranking.Description == 0 {
		return &ValidationError{
			Field:      "ranking",
			Message:    "tag_weight and description_weight cannot both be 0, no agent would ever match",
			JSONPath:   "ranking",
			Suggestion: "Set at least one weight to a positive value",
		}
	}
	if c.Ranking.Tag > math.MaxInt16 || c.Ranking.Description > math.MaxInt16 {
		return &ValidationError{
			Field:      "ranking",
			Message:    "ranking weights must not exceed 32767",
			JSONPath:   "ranking",
			Suggestion: "Weights only matter relative to each other; use small values",
		}
	}

	logValidation.Print("Configuration is valid")
	return nil
}
