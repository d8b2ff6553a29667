package security

import (
	"fmt"
	"unicode"
)

// Bidirectional override and embedding controls. These can make displayed
// text differ from stored text, hiding malicious instructions.
var bidiControls = map[rune]bool{
	'\u202A': true, // LEFT-TO-RIGHT EMBEDDING
	'\u202B': true, // RIGHT-TO-LEFT EMBEDDING
	'\u202C': true, // POP DIRECTIONAL FORMATTING
	'\u202D': true, // LEFT-TO-RIGHT OVERRIDE
	'\u202E': true, // RIGHT-TO-LEFT OVERRIDE
	'\u2066': true, // LEFT-TO-RIGHT ISOLATE
	'\u2067': true, // RIGHT-TO-LEFT ISOLATE
	'\u2068': true, // FIRST STRONG ISOLATE
	'\u2069': true, // POP DIRECTIONAL ISOLATE
}

// Zero-width characters that can smuggle content past human review.
var zeroWidthChars = map[rune]bool{
	'\u200B': true, // ZERO WIDTH SPACE
	'\u200C': true, // ZERO WIDTH NON-JOINER
	'\u200D': true, // ZERO WIDTH JOINER
	'\u2060': true, // WORD JOINER
	'\uFEFF': true, // ZERO WIDTH NO-BREAK SPACE
}

// ValidateUnicode checks content for deceptive Unicode constructs:
// bidirectional overrides, zero-width characters, and private-use
// codepoints.
//
// Usage example:
//
//	if err := security.ValidateUnicode(memory.Content); err != nil {
//	    return fmt.Errorf("deceptive unicode detected: %w", err)
//	}
func ValidateUnicode(content string) error {
	for i, r := range content {
		if bidiControls[r] {
			return fmt.Errorf("content contains bidirectional control character U+%04X at offset %d", r, i)
		}
		if zeroWidthChars[r] {
			return fmt.Errorf("content contains zero-width character U+%04X at offset %d", r, i)
		}
		if unicode.In(r, unicode.Co) {
			return fmt.Errorf("content contains private-use character U+%04X at offset %d", r, i)
		}
	}
	return nil
}

// ValidateIdentifierScript checks an identifier for mixed-script confusion.
// Identifiers mixing Latin with Cyrillic or Greek letters are rejected
// since lookalike characters can spoof element names.
func ValidateIdentifierScript(identifier string) error {
	var hasLatin, hasCyrillic, hasGreek bool

	for _, r := range identifier {
		switch {
		case unicode.In(r, unicode.Latin):
			hasLatin = true
		case unicode.In(r, unicode.Cyrillic):
			hasCyrillic = true
		case unicode.In(r, unicode.Greek):
			hasGreek = true
		}
	}

	scripts := 0
	for _, present := range []bool{hasLatin, hasCyrillic, hasGreek} {
		if present {
			scripts++
		}
	}
	if scripts > 1 {
		return fmt.Errorf("identifier mixes multiple scripts: %q", identifier)
	}

	return nil
}
