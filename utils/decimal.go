// Package utils provides utility functions for the application.
package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLocaleDecimal parses a decimal number that may use a comma as the
// decimal separator, as the upstream tariffs feed does ("1 234,56").
// Spaces and non-breaking spaces are treated as group separators.
// An empty string and the upstream's "-" placeholder parse as zero.
// Any other malformed value is an error; callers treat it as batch-fatal.
func ParseLocaleDecimal(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || trimmed == "-" {
		return 0, nil
	}

	normalized := strings.NewReplacer(" ", "", " ", "", ",", ".").Replace(trimmed)
	if strings.Count(normalized, ".") > 1 {
		return 0, fmt.Errorf("malformed decimal %q", s)
	}

	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed decimal %q: %w", s, err)
	}
	return v, nil
}
