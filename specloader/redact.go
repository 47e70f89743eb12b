package specloader

import "strings"

// sensitivePatterns mirrors the original loader's redaction rule (spec.md
// §4.1): any variable name containing one of these, case-insensitively,
// must never have its value reproduced verbatim in a diagnostic.
var sensitivePatterns = []string{
	"API_KEY", "SECRET", "PASSWORD", "TOKEN", "CREDENTIAL", "PRIVATE_KEY", "ACCESS_KEY",
}

// IsSensitive reports whether varName matches one of the sensitive
// substrings, case-insensitively.
func IsSensitive(varName string) bool {
	upper := strings.ToUpper(varName)

	for _, pattern := range sensitivePatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}

	return false
}

// Redact returns value unchanged unless varName is sensitive, in which case
// it returns the first 3 characters followed by "***" (for values longer
// than 8 characters) or the literal "[REDACTED]" otherwise.
func Redact(varName, value string) string {
	if !IsSensitive(varName) {
		return value
	}

	if len(value) > 8 {
		return value[:3] + "***"
	}

	return "[REDACTED]"
}
