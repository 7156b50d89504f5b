package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrPlaceEmpty is returned when the place name is empty or whitespace-only after trim.
var ErrPlaceEmpty = errors.New("place name is required")

// ErrPlaceTooLong is returned when the place name length exceeds the maximum.
var ErrPlaceTooLong = errors.New("place name too long")

// ErrPlaceInvalidChars is returned when the place name contains disallowed characters.
var ErrPlaceInvalidChars = errors.New("place name contains invalid characters")

// ValidatePlace trims the input, enforces a maximum length (in runes), and
// restricts to allowed characters: letters (Unicode), digits, space, comma,
// period, apostrophe, hyphen. Returns the trimmed string or an error suitable
// for 400 INVALID_PLACE responses. Case normalization is left to the callers.
func ValidatePlace(input string, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrPlaceEmpty
	}
	if maxLen > 0 && len(r) > maxLen {
		return "", ErrPlaceTooLong
	}
	for _, c := range r {
		if !isAllowedPlaceRune(c) {
			return "", ErrPlaceInvalidChars
		}
	}
	return s, nil
}

// isAllowedPlaceRune returns true for letters (Unicode), digits, space,
// comma, period, apostrophe, hyphen.
func isAllowedPlaceRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '.', '\'', '-':
		return true
	}
	return false
}
