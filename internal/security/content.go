package security

import (
	"fmt"
	"strings"
)

// injectionPatterns are substrings that indicate script injection or
// prompt manipulation attempts in element content. Matching is
// case-insensitive.
var injectionPatterns = []string{
	// script injection
	"<script",
	"javascript:",
	"vbscript:",
	"data:text/html",
	"eval(",
	"exec(",
	"onload=",
	"onerror=",
	"onclick=",

	// prompt manipulation aimed at AI consumers of element content
	"ignore previous instructions",
	"ignore all previous instructions",
	"disregard your instructions",
	"you are now in developer mode",
	"system prompt:",
}

// ValidateContent checks element text for potentially malicious content.
// It detects control characters, null bytes, script injection, and common
// prompt manipulation phrasing.
//
// Usage example:
//
//	if err := security.ValidateContent(element.Content); err != nil {
//	    return fmt.Errorf("suspicious content detected: %w", err)
//	}
func ValidateContent(content string) error {
	// Control characters other than newlines and tabs
	for _, r := range content {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			return fmt.Errorf("content contains control characters")
		}
	}

	if strings.Contains(content, "\x00") {
		return fmt.Errorf("content contains null bytes")
	}

	lowerContent := strings.ToLower(content)
	for _, pattern := range injectionPatterns {
		if strings.Contains(lowerContent, pattern) {
			return fmt.Errorf("content contains potentially malicious pattern: %s", pattern)
		}
	}

	return nil
}

// ValidateField validates a single metadata field value such as a name or
// description. Fields are held to the same content rules as bodies plus a
// length limit.
func ValidateField(value string, maxLength int, fieldName string) error {
	if maxLength > 0 && len(value) > maxLength {
		return fmt.Errorf("%s too long (%d characters, max %d)", fieldName, len(value), maxLength)
	}
	if err := ValidateContent(value); err != nil {
		return fmt.Errorf("%s contains invalid content: %w", fieldName, err)
	}
	return nil
}
