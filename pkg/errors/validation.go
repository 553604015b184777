package errors

import (
	"strings"
	"unicode"
)

// ValidateDocumentName validates a document name for safety and
// correctness. The rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 200 characters
func ValidateDocumentName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidDocument, "document name cannot be empty")
	}
	if len(name) > 200 {
		return New(ErrCodeInvalidDocument, "document name too long (max 200 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDocument, "document name contains control characters")
		}
	}
	return nil
}

// ValidateElementID validates a lane/node/wire identifier. Identifiers
// appear in store keys and file names, so path separators and control
// characters are rejected.
func ValidateElementID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "element ID cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "element ID too long (max 128 characters)")
	}
	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidInput, "element ID cannot contain path separators")
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "element ID contains invalid characters")
		}
	}
	return nil
}

// ValidateSnapshotName validates a user-supplied snapshot name.
func ValidateSnapshotName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "snapshot name cannot be empty")
	}
	if len(name) > 100 {
		return New(ErrCodeInvalidInput, "snapshot name too long (max 100 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "snapshot name contains control characters")
		}
	}
	return nil
}
