package elements

import (
	"fmt"
	"strings"

	"dollhouse/pkg/fileops"
)

// DeriveIdentifier converts an element display name into a filesystem safe
// identifier: lowercase, hyphen separated, no special characters.
//
// Usage example:
//
//	id, err := elements.DeriveIdentifier("Creative Writer!")
//	// id is "creative-writer"
func DeriveIdentifier(name string) (string, error) {
	sanitized, err := fileops.SanitizeIdentifier(name, MaxNameLength)
	if err != nil {
		return "", fmt.Errorf("cannot derive identifier from %q: %w", name, err)
	}

	id := strings.ToLower(sanitized)
	id = strings.ReplaceAll(id, "_", "-")
	id = strings.ReplaceAll(id, ".", "-")
	for strings.Contains(id, "--") {
		id = strings.ReplaceAll(id, "--", "-")
	}
	id = strings.Trim(id, "-")

	if id == "" {
		return "", fmt.Errorf("identifier becomes empty after sanitization: %q", name)
	}

	return id, nil
}

// UniqueIdentifier derives an identifier for name that does not collide
// with any key in taken, appending a numeric suffix when needed.
//
// Usage example:
//
//	id, err := elements.UniqueIdentifier("Creative Writer", existing)
//	// "creative-writer", or "creative-writer-2" if taken
func UniqueIdentifier(name string, taken map[string]bool) (string, error) {
	base, err := DeriveIdentifier(name)
	if err != nil {
		return "", err
	}

	if !taken[base] {
		return base, nil
	}

	for counter := 2; ; counter++ {
		candidate := fmt.Sprintf("%s-%d", base, counter)
		if !taken[candidate] {
			return candidate, nil
		}
	}
}

// FileNameFor returns the portfolio filename for an element identifier.
func FileNameFor(identifier string) string {
	return identifier + ".md"
}
