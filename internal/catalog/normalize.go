package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// Only unsigned plain decimals are numeric in this format: no sign, no
// exponent.
var numericPattern = regexp.MustCompile(`^\d+\.?\d*$`)

// Normalize converts a decimal comma to a dot and trims the text.
func Normalize(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
}

// ParseNumber reports the value of raw if it is a valid catalog number.
// Anything else is absent, never an error.
func ParseNumber(raw string) (float64, bool) {
	s := Normalize(raw)
	if !numericPattern.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
