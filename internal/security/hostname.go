package security

import (
	"regexp"
	"strings"
)

// HostnameValidator validates website domains before persistence.
// Deliberately conservative: lowercase letters, digits and hyphens per
// label, at least one dot, two-letter-or-longer TLD. No scheme, port,
// path, wildcard or IP literal.
type HostnameValidator struct {
	pattern *regexp.Regexp
}

// ValidationError represents a hostname validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewHostnameValidator creates a new hostname validator
func NewHostnameValidator() *HostnameValidator {
	return &HostnameValidator{
		pattern: regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`),
	}
}

// Validate checks a domain string. The input is trimmed and lowercased
// before matching; the normalized form is what should be persisted.
func (v *HostnameValidator) Validate(domain string) error {
	domain = Normalize(domain)
	if domain == "" {
		return &ValidationError{Message: "empty domain"}
	}
	if len(domain) > 253 {
		return &ValidationError{Message: "domain exceeds 253 characters"}
	}
	if !v.pattern.MatchString(domain) {
		return &ValidationError{Message: "invalid hostname format"}
	}
	return nil
}

// Normalize lowercases and trims a domain string
func Normalize(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}
