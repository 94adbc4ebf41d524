package browse

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// MinSearchLength is the shortest non-empty search term sent to the source.
	// An empty term is valid and clears the text filter.
	MinSearchLength = 2
	// MaxSearchLength caps sanitized search input.
	MaxSearchLength = 256
)

// ValidationError reports input rejected before any request was issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// RuneLength skips empty values, so "" passes and only 1..Min-1 runes fail.
var searchTermRules = []validation.Rule{
	validation.RuneLength(MinSearchLength, 0).Error(fmt.Sprintf("minimum %d characters", MinSearchLength)),
}

// ValidateSearchTerm checks an already sanitized term.
func ValidateSearchTerm(term string) error {
	if err := validation.Validate(term, searchTermRules...); err != nil {
		return &ValidationError{Field: "search", Reason: err.Error()}
	}
	return nil
}

// SanitizeSearchInput trims, flattens whitespace and caps the length of raw
// search text.
func SanitizeSearchInput(input string) string {
	input = strings.Join(strings.Fields(input), " ")

	if r := []rune(input); len(r) > MaxSearchLength {
		input = strings.TrimSpace(string(r[:MaxSearchLength]))
	}
	return input
}
