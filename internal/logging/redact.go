package logging

import "regexp"

// Patterns for credentials that must never reach the logs: the account
// API key appears in request URLs and in persisted account records.
var secretPatterns = []*regexp.Regexp{
	// api_key query parameter or JSON field
	regexp.MustCompile(`(?i)(api_key)["']?[=:]\s*["']?([a-zA-Z0-9]{16,})`),
	// Basic auth in URLs
	regexp.MustCompile(`(https?://)([^:/@\s]+):([^@/\s]+)@`),
	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+([a-zA-Z0-9._-]{20,})`),
}

// Redact masks credentials embedded in a string before it is logged.
func Redact(s string) string {
	out := s
	out = secretPatterns[0].ReplaceAllString(out, `$1=[REDACTED]`)
	out = secretPatterns[1].ReplaceAllString(out, `$1$2:[REDACTED]@`)
	out = secretPatterns[2].ReplaceAllString(out, `Bearer [REDACTED]`)
	return out
}
