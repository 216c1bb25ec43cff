package errors

import (
	"strings"
	"unicode"
)

// ValidateColorHex validates a #RGB or #RRGGBB color string.
func ValidateColorHex(hex string) error {
	if !strings.HasPrefix(hex, "#") {
		return New(ErrCodeInvalidInput, "color must start with '#': %q", hex)
	}
	digits := hex[1:]
	if len(digits) != 3 && len(digits) != 6 {
		return New(ErrCodeInvalidInput, "color must have 3 or 6 hex digits: %q", hex)
	}
	for _, r := range digits {
		if !unicode.Is(unicode.ASCII_Hex_Digit, r) {
			return New(ErrCodeInvalidInput, "color contains non-hex digit: %q", hex)
		}
	}
	return nil
}

// ValidateText validates text element content.
//
// Validation rules:
//   - Content cannot be empty or whitespace only
//   - Maximum length of 500 characters
//   - No control characters other than newline and tab
func ValidateText(content string) error {
	if strings.TrimSpace(content) == "" {
		return New(ErrCodeValidation, "text cannot be empty")
	}

	const maxTextLength = 500
	if len([]rune(content)) > maxTextLength {
		return New(ErrCodeValidation, "text too long (max %d characters)", maxTextLength)
	}

	for _, r := range content {
		if r == '\n' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeValidation, "text contains invalid control characters")
		}
	}
	return nil
}

// ValidateSourceURI validates an image source URI.
// It accepts http(s) URLs, file URLs, data URIs and relative or absolute
// filesystem paths without traversal sequences.
func ValidateSourceURI(uri string) error {
	if uri == "" {
		return New(ErrCodeInvalidInput, "image source cannot be empty")
	}
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return nil
	case strings.HasPrefix(uri, "data:"):
		if !strings.Contains(uri, ",") {
			return New(ErrCodeInvalidInput, "malformed data URI")
		}
		return nil
	}

	path := strings.TrimPrefix(uri, "file://")
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "image path contains invalid characters")
		}
	}
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "image path cannot contain path traversal sequences (..)")
	}
	return nil
}
