package text

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsCJK reports whether r belongs to a script written without spaces between
// words (Han, Hiragana, Katakana). Hangul is excluded since Korean uses spaces.
func IsCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana)
}

// IsCJKPunct reports whether r is CJK or full-width punctuation.
func IsCJKPunct(r rune) bool {
	return (r >= 0x3000 && r <= 0x303F) || (r >= 0xFF00 && r <= 0xFF65)
}

// FirstRune returns the first non-space rune of s, or utf8.RuneError.
func FirstRune(s string) rune {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// LastRune returns the last non-space rune of s, or utf8.RuneError.
func LastRune(s string) rune {
	s = strings.TrimRightFunc(s, unicode.IsSpace)

	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}
