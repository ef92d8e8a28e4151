package logger

import "github.com/orchestr8/orchestr8-mcp/internal/logger/sanitize"

// truncateAndSanitize redacts secrets, then truncates to maxLength bytes.
func truncateAndSanitize(payload string, maxLength int) string {
	sanitized := sanitize.SanitizeString(payload)
	if len(sanitized) > maxLength {
		return sanitized[:maxLength] + "..."
	}
	return sanitized
}
