// Package security provides content validation for element and session note
// files before they are stored, indexed, or exposed to AI tooling.
//
// The package covers three concerns:
//   - content.go: injection pattern detection in element text
//   - unicode.go: detection of deceptive Unicode (bidi overrides, zero-width
//     characters, private-use codepoints, mixed-script identifiers)
//   - trust.go: the trust lifecycle for memory elements
package security
