package owner

import (
	"regexp"
	"strings"
)

const maxTagValueLength = 100

var (
	emailPattern = regexp.MustCompile(`^[\w.+-]+@[\w.-]+\.\w{2,}$`)

	acceptedTagValue = regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)

	// technicalPatterns match identifiers and infrastructure names that are
	// never a team or system name.
	technicalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[0-9]+$`),
		regexp.MustCompile(`(?i)^[a-f0-9]{8,}$`),
		regexp.MustCompile(`^vault-token`),
		regexp.MustCompile(`^terraform`),
		regexp.MustCompile(`^eks-`),
		regexp.MustCompile(`^aws-`),
		regexp.MustCompile(`^k8s-`),
		regexp.MustCompile(`^[a-z]+-[a-z]+-[0-9]+`),
		regexp.MustCompile(`^[0-9]{10,}$`),
		regexp.MustCompile(`^[a-zA-Z0-9_-]{20,}$`),
	}

	placeholders = map[string]struct{}{
		"unknown":   {},
		"n/a":       {},
		"none":      {},
		"null":      {},
		"undefined": {},
	}
)

// IsEmail reports whether value is shaped like an email address.
func IsEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// ValidTagValue reports whether a trimmed tag value can be used as an owner key.
func ValidTagValue(value string) bool {
	if value == "" || len(value) > maxTagValueLength {
		return false
	}
	if _, ok := placeholders[strings.ToLower(value)]; ok {
		return false
	}
	for _, p := range technicalPatterns {
		if p.MatchString(value) {
			return false
		}
	}
	return acceptedTagValue.MatchString(value)
}
