// Package sanitize redacts credentials from strings and decoded JSON values
// before they reach a log sink.
package sanitize

import (
	"regexp"
	"strings"
)

// Redacted replaces every secret value.
const Redacted = "[REDACTED]"

// SecretPatterns detects secrets embedded in free text.
var SecretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(token|key|secret|password|auth)[=:]\s*[^\s]{8,}`),
	regexp.MustCompile(`ghp_[a-zA-Z0-9]{36,}`),                                  // GitHub PATs
	regexp.MustCompile(`github_pat_[a-zA-Z0-9]{22}_[a-zA-Z0-9]{59}`),            // GitHub fine-grained PATs
	regexp.MustCompile(`sk-(ant-)?[a-zA-Z0-9_-]{20,}`),                          // Anthropic / OpenAI keys
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`),                    // Bearer tokens
	regexp.MustCompile(`[a-f0-9]{32,}`),                                         // long hex strings
	regexp.MustCompile(`[a-zA-Z0-9_-]{20,}\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), // JWTs
	// "field":"value" pairs inside JSON text
	regexp.MustCompile(`(?i)"(token|password|passwd|apikey|api_key|api-key|secret|client_secret|authorization|access_token|refresh_token|private_key|credentials?)"\s*:\s*"[^"]+"`),
}

var keyValueSeparator = regexp.MustCompile(`[=:]\s*`)

// secretFieldNames are object keys whose values are always redacted.
var secretFieldNames = []string{
	"password", "passwd", "token", "apikey", "api_key", "api-key",
	"secret", "authorization", "credential", "private_key",
}

// SanitizeString replaces potential secrets in s. For key=value or key: value
// matches the key is kept.
func SanitizeString(s string) string {
	result := s
	for _, pattern := range SecretPatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			if parts := keyValueSeparator.Split(match, 2); len(parts) == 2 {
				return parts[0] + "=" + Redacted
			}
			return Redacted
		})
	}
	return result
}

// IsSecretField reports whether an object key names a credential.
func IsSecretField(key string) bool {
	lower := strings.ToLower(key)
	for _, name := range secretFieldNames {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

// SanitizeValue walks a value produced by encoding/json and redacts secrets in
// place. Maps and slices are modified; the (possibly replaced) value is
// returned so scalars can be sanitized too.
func SanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return SanitizeString(val)
	case map[string]any:
		for key, inner := range val {
			if s, ok := inner.(string); ok && s != "" && IsSecretField(key) {
				val[key] = Redacted
				continue
			}
			val[key] = SanitizeValue(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = SanitizeValue(inner)
		}
		return val
	default:
		return v
	}
}
