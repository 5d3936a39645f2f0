package text

import (
	"strings"
)

// NormalizeLineEndings converts Windows and old Mac line endings to "\n" and
// trims surrounding whitespace.
func NormalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return strings.TrimSpace(text)
}

// Lines splits text into lines without trailing line breaks.
func Lines(text string) []string {
	if text == "" {
		return nil
	}

	return strings.Split(text, "\n")
}
