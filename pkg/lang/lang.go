package lang

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Default is the document language used when none is configured.
const Default = "en"

var errEmptyCode = errors.New("language code cannot be empty")

// Normalize validates a BCP 47 language tag and returns its canonical form,
// e.g. "EN-us" becomes "en-US".
func Normalize(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", errEmptyCode
	}

	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}
	return tag.String(), nil
}

// OrDefault normalizes code and falls back to Default when it is blank.
func OrDefault(code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return Default, nil
	}
	return Normalize(code)
}
