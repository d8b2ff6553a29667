package elements

import "fmt"

// ElementType identifies the kind of AI customization element.
type ElementType string

const (
	// ElementTypePersona is a behavioral profile shaping how an AI responds.
	ElementTypePersona ElementType = "persona"

	// ElementTypeSkill is a discrete capability description.
	ElementTypeSkill ElementType = "skill"

	// ElementTypeTemplate is a reusable response structure.
	ElementTypeTemplate ElementType = "template"

	// ElementTypeAgent is a goal-oriented autonomous actor definition.
	ElementTypeAgent ElementType = "agent"

	// ElementTypeMemory is persistent context carried across sessions.
	// Memories carry a trust level since they ingest external content.
	ElementTypeMemory ElementType = "memory"

	// ElementTypeEnsemble groups other elements into a combined activation.
	ElementTypeEnsemble ElementType = "ensemble"
)

// AllElementTypes lists every supported element type in display order.
func AllElementTypes() []ElementType {
	return []ElementType{
		ElementTypePersona,
		ElementTypeSkill,
		ElementTypeTemplate,
		ElementTypeAgent,
		ElementTypeMemory,
		ElementTypeEnsemble,
	}
}

// String returns the string representation of the element type.
func (t ElementType) String() string {
	return string(t)
}

// IsValid checks if the element type is one of the supported types.
func (t ElementType) IsValid() bool {
	switch t {
	case ElementTypePersona, ElementTypeSkill, ElementTypeTemplate,
		ElementTypeAgent, ElementTypeMemory, ElementTypeEnsemble:
		return true
	}
	return false
}

// DirName returns the portfolio subdirectory name for this element type.
func (t ElementType) DirName() string {
	if t == ElementTypeMemory {
		return "memories"
	}
	return string(t) + "s"
}

// ParseElementType converts a string into an ElementType. Both singular
// type names and their plural directory forms are accepted.
func ParseElementType(s string) (ElementType, error) {
	t := ElementType(s)
	if t.IsValid() {
		return t, nil
	}

	if s == ElementTypeMemory.DirName() {
		return ElementTypeMemory, nil
	}

	// Accept plural directory names too
	if len(s) > 1 && s[len(s)-1] == 's' {
		t = ElementType(s[:len(s)-1])
		if t.IsValid() {
			return t, nil
		}
	}

	return "", fmt.Errorf("unknown element type %q", s)
}
