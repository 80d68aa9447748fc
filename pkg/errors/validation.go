package errors

import (
	"strings"
	"unicode"
)

// MaxTitleLength bounds map titles accepted from users.
const MaxTitleLength = 256

// ValidateMapID validates a map identifier for safety.
// Map IDs become file names and database keys, so the rules are conservative:
//   - No empty IDs
//   - Maximum length of 128 characters
//   - Only ASCII letters, digits, '-' and '_'
func ValidateMapID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "map id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "map id too long (max 128 characters)")
	}

	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return New(ErrCodeInvalidInput, "map id contains invalid character %q", r)
		}
	}

	return nil
}

// ValidateTitle validates a user-supplied map title.
// Empty titles are allowed; the map falls back to its default title.
func ValidateTitle(title string) error {
	if len(title) > MaxTitleLength {
		return New(ErrCodeInvalidInput, "title too long (max %d characters)", MaxTitleLength)
	}

	for _, r := range title {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "title contains invalid control characters")
		}
	}

	return nil
}

// ValidateNodeText validates a user-supplied node label. Newlines and tabs
// are allowed since they collapse to spaces when the text is wrapped.
func ValidateNodeText(text string) error {
	for _, r := range text {
		if unicode.IsControl(r) && !strings.ContainsRune("\n\t\r", r) {
			return New(ErrCodeInvalidInput, "text contains invalid control characters")
		}
	}
	return nil
}
