package logger

import (
	"regexp"
	"strings"
)

const redactedValue = "[REDACTED]"

// sensitiveDataPatterns match credentials that may leak into free-form messages
var sensitiveDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9-._~+/]+=*)`),
	regexp.MustCompile(`(?i)(x-api-key[\s:=]+)([^;,\s]+)`),
	regexp.MustCompile(`(?i)((api[_-]?key|token|secret|passw(or)?d|dsn)[\s:=]+)([^;,\s]{5,})`),
	// base64 audio payloads are large and never useful in logs
	regexp.MustCompile(`(data:audio/[a-z0-9.+-]+;base64,)[A-Za-z0-9+/=]{16,}`),
}

// sensitiveKeywords mark field keys whose string values are always redacted
var sensitiveKeywords = []string{
	"password", "secret", "token", "api_key", "apikey", "x-api-key", "authorization", "dsn",
}

// RedactSensitiveData replaces credentials in input with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}
	for _, pattern := range sensitiveDataPatterns {
		input = pattern.ReplaceAllString(input, "${1}"+redactedValue)
	}
	return input
}

func isSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(keyLower, keyword) {
			return true
		}
	}
	return false
}
