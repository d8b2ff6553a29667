package elements

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"dollhouse/internal/security"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// Validation limits for element metadata fields.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	MaxElementFileSize   = 10 * 1024 * 1024 // 10 MiB
)

// Metadata is the YAML frontmatter carried by every element file.
type Metadata struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Type        string   `yaml:"type,omitempty"`
	Author      string   `yaml:"author,omitempty"`
	Version     string   `yaml:"version,omitempty"`
	Created     string   `yaml:"created,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`

	// TrustLevel is only meaningful for memory elements.
	TrustLevel security.TrustLevel `yaml:"trust_level,omitempty"`
}

// Element is a parsed AI customization element: its type, frontmatter
// metadata, and markdown body.
type Element struct {
	Type     ElementType
	Metadata Metadata

	// Content is the markdown body without frontmatter.
	Content string

	// FileName is the base filename this element was loaded from, empty
	// for elements not yet persisted.
	FileName string
}

// Parse parses raw element file content into an Element of the given type.
// The content must carry YAML frontmatter with at least name and
// description fields.
func Parse(raw []byte, elementType ElementType) (*Element, error) {
	if !elementType.IsValid() {
		return nil, fmt.Errorf("unknown element type %q", elementType)
	}
	if len(raw) > MaxElementFileSize {
		return nil, fmt.Errorf("element content exceeds %d byte limit", MaxElementFileSize)
	}

	var matter Metadata
	body, err := frontmatter.Parse(bytes.NewReader(raw), &matter)
	if err != nil {
		return nil, fmt.Errorf("no valid frontmatter found: %w", err)
	}

	// A type field in the frontmatter must agree with the requested type
	if matter.Type != "" && matter.Type != elementType.String() {
		return nil, fmt.Errorf("frontmatter type %q does not match element type %q", matter.Type, elementType)
	}

	elem := &Element{
		Type:     elementType,
		Metadata: matter,
		Content:  string(body),
	}

	if err := elem.Validate(); err != nil {
		return nil, err
	}

	return elem, nil
}

// New creates a fresh element with the given identity, stamping the
// creation date and defaulting memory trust to untrusted.
func New(elementType ElementType, name, description, author, content string) (*Element, error) {
	elem := &Element{
		Type: elementType,
		Metadata: Metadata{
			Name:        name,
			Description: description,
			Type:        elementType.String(),
			Author:      author,
			Version:     "1.0.0",
			Created:     time.Now().UTC().Format("2006-01-02"),
		},
		Content: content,
	}

	if elementType == ElementTypeMemory {
		elem.Metadata.TrustLevel = security.TrustUntrusted
	}

	if err := elem.Validate(); err != nil {
		return nil, err
	}
	return elem, nil
}

// Validate checks the element's metadata and content against the field
// limits and content security rules.
func (e *Element) Validate() error {
	if !e.Type.IsValid() {
		return fmt.Errorf("unknown element type %q", e.Type)
	}

	name := strings.TrimSpace(e.Metadata.Name)
	if name == "" {
		return fmt.Errorf("element name cannot be empty")
	}
	if err := security.ValidateField(name, MaxNameLength, "name"); err != nil {
		return err
	}
	if err := security.ValidateIdentifierScript(name); err != nil {
		return fmt.Errorf("element name rejected: %w", err)
	}

	description := strings.TrimSpace(e.Metadata.Description)
	if description == "" {
		return fmt.Errorf("element description cannot be empty")
	}
	if err := security.ValidateField(description, MaxDescriptionLength, "description"); err != nil {
		return err
	}

	if e.Metadata.TrustLevel != "" && !e.Metadata.TrustLevel.IsValid() {
		return fmt.Errorf("invalid trust level %q", e.Metadata.TrustLevel)
	}
	if e.Metadata.TrustLevel != "" && e.Type != ElementTypeMemory {
		return fmt.Errorf("trust level is only valid on memory elements")
	}

	// Memory bodies are classified through the trust lifecycle instead of
	// being rejected outright; every other type must carry a clean body.
	if e.Type != ElementTypeMemory {
		if err := security.ValidateContent(e.Content); err != nil {
			return fmt.Errorf("element content rejected: %w", err)
		}
		if err := security.ValidateUnicode(e.Content); err != nil {
			return fmt.Errorf("element content rejected: %w", err)
		}
	}

	return nil
}

// IsQuarantined reports whether this is a quarantined memory element.
func (e *Element) IsQuarantined() bool {
	return e.Type == ElementTypeMemory && e.Metadata.TrustLevel == security.TrustQuarantined
}

// ValidateTrust runs content validation over a memory element and updates
// its trust level. Non-memory elements are left untouched. An existing
// quarantine is never lifted here; that takes an explicit trust edit.
func (e *Element) ValidateTrust() error {
	if e.Type != ElementTypeMemory {
		return nil
	}
	level, err := security.ClassifyContent(e.Content)
	if e.Metadata.TrustLevel == security.TrustQuarantined && level == security.TrustValidated {
		return nil
	}
	e.Metadata.TrustLevel = level
	return err
}

// Serialize renders the element back to file form: YAML frontmatter
// between "---" fences followed by the markdown body.
func (e *Element) Serialize() ([]byte, error) {
	meta := e.Metadata
	if meta.Type == "" {
		meta.Type = e.Type.String()
	}

	metaBytes, err := yaml.Marshal(&meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(metaBytes)
	buf.WriteString("---\n")
	if e.Content != "" && !strings.HasPrefix(e.Content, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString(e.Content)

	return buf.Bytes(), nil
}
