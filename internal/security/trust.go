package security

import "fmt"

// TrustLevel describes how much a memory element's content can be trusted.
// Memories ingest external text (web content, tool output, imported notes),
// so their content passes through a validation lifecycle before agents are
// allowed to consume it by default.
type TrustLevel string

const (
	// TrustUntrusted marks freshly ingested content that has not been
	// validated yet.
	TrustUntrusted TrustLevel = "untrusted"

	// TrustValidated marks content that passed content and Unicode
	// validation.
	TrustValidated TrustLevel = "validated"

	// TrustQuarantined marks content that failed validation. Quarantined
	// memories are hidden from listings unless explicitly requested.
	TrustQuarantined TrustLevel = "quarantined"
)

// String returns the string representation of the trust level.
func (t TrustLevel) String() string {
	return string(t)
}

// IsValid checks if the trust level is one of the known levels.
func (t TrustLevel) IsValid() bool {
	switch t {
	case TrustUntrusted, TrustValidated, TrustQuarantined:
		return true
	}
	return false
}

// ParseTrustLevel converts a string into a TrustLevel.
func ParseTrustLevel(s string) (TrustLevel, error) {
	t := TrustLevel(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid trust level %q (must be %q, %q, or %q)",
			s, TrustUntrusted, TrustValidated, TrustQuarantined)
	}
	return t, nil
}

// ClassifyContent runs content and Unicode validation over memory content
// and returns the resulting trust level. Validation failures produce
// TrustQuarantined along with the triggering error.
func ClassifyContent(content string) (TrustLevel, error) {
	if err := ValidateContent(content); err != nil {
		return TrustQuarantined, err
	}
	if err := ValidateUnicode(content); err != nil {
		return TrustQuarantined, err
	}
	return TrustValidated, nil
}
