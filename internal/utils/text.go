package utils

import (
	"regexp"
	"strings"
)

// controlChars matches C0 control characters and DEL.
var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// StripControlChars replaces every control character with a space.
func StripControlChars(s string) string {
	return controlChars.ReplaceAllString(s, " ")
}

// CleanText strips control characters and surrounding whitespace.
func CleanText(s string) string {
	return strings.TrimSpace(StripControlChars(s))
}

// CleanOptional cleans the pointed-to text, returning nil when nothing is left.
func CleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := CleanText(*s)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func CleanStrings(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		cleaned = append(cleaned, CleanText(v))
	}
	return cleaned
}
