// Package fileops provides secure, atomic file operations for the portfolio.
//
// The package groups four concerns:
//
//   - Atomic writes and copies (copy.go): temp-file + rename so a destination
//     file either appears fully written or not at all.
//
//   - Path validation (validation.go): traversal checks, reserved/system
//     directory protection, storage-path rules, filename and identifier
//     sanitization, and file size limits.
//
//   - Directory scanning (dirscan.go): a scanner confined to an os.Root with
//     depth limits, skip patterns, and loop detection.
//
//   - Symlink handling (symlink.go): detection, resolution, and boundary
//     validation for links inside the portfolio.
//
// All functions are standalone and safe to use from any package; none of them
// depend on application configuration or logging.
package fileops
