package merge

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/adrianliechti/docscan/pkg/text"
)

// Boundary is how two adjacent pages are joined.
type Boundary int

const (
	// BoundaryParagraph starts the next page as a new paragraph.
	BoundaryParagraph Boundary = iota

	// BoundaryJoin concatenates the pages directly, for scripts without
	// spaces between words.
	BoundaryJoin

	// BoundaryHyphen drops a trailing hyphen and concatenates, rejoining a
	// word split across the page break.
	BoundaryHyphen

	// BoundarySpace continues the sentence after a single space.
	BoundarySpace
)

func (b Boundary) String() string {
	switch b {
	case BoundaryParagraph:
		return "paragraph"
	case BoundaryJoin:
		return "join"
	case BoundaryHyphen:
		return "hyphen"
	case BoundarySpace:
		return "space"
	}

	return "unknown"
}

// Stitcher decides how consecutive PDF pages are joined. The decision is a
// punctuation and script heuristic, not a linguistic analysis.
type Stitcher struct {
	// TerminalPunctuation ends a sentence. A page ending with one of these
	// runes is followed by a paragraph break.
	TerminalPunctuation string

	// Closers are skipped when looking for terminal punctuation, so that
	// 「好。」 still counts as a finished sentence.
	Closers string

	// Dehyphenate rejoins Latin words split with a trailing hyphen.
	Dehyphenate bool
}

func DefaultStitcher() *Stitcher {
	return &Stitcher{
		TerminalPunctuation: ".!?…。！？．｡",
		Closers:             "\"'”’」』)）]】》",

		Dehyphenate: true,
	}
}

// Boundary classifies the page break between prev and next.
func (s *Stitcher) Boundary(prev, next string) Boundary {
	if strings.TrimSpace(prev) == "" || strings.TrimSpace(next) == "" {
		return BoundaryParagraph
	}

	if text.TrailingBlock(prev) != text.BlockParagraph || text.LeadingBlock(next) != text.BlockParagraph {
		return BoundaryParagraph
	}

	last := s.lastSignificantRune(prev)
	first := text.FirstRune(next)

	if strings.ContainsRune(s.TerminalPunctuation, last) {
		return BoundaryParagraph
	}

	if isCJKish(text.LastRune(prev)) && isCJKish(first) {
		return BoundaryJoin
	}

	if s.Dehyphenate && last == '-' && unicode.IsLower(first) && endsWithLetterHyphen(prev) {
		return BoundaryHyphen
	}

	if unicode.IsLetter(first) || unicode.IsDigit(first) || strings.ContainsRune("([\"'“‘", first) {
		return BoundarySpace
	}

	return BoundaryParagraph
}

// Join appends next to doc using boundary b.
func (s *Stitcher) Join(doc, next string, b Boundary) string {
	doc = strings.TrimRightFunc(doc, unicode.IsSpace)
	next = strings.TrimLeftFunc(next, unicode.IsSpace)

	if doc == "" {
		return next
	}

	switch b {
	case BoundaryJoin:
		return doc + next
	case BoundaryHyphen:
		return strings.TrimSuffix(doc, "-") + next
	case BoundarySpace:
		return doc + " " + next
	}

	return doc + "\n\n" + next
}

func (s *Stitcher) lastSignificantRune(prev string) rune {
	prev = strings.TrimRightFunc(prev, unicode.IsSpace)
	prev = strings.TrimRightFunc(prev, func(r rune) bool {
		return strings.ContainsRune(s.Closers, r)
	})

	r, _ := utf8.DecodeLastRuneInString(prev)
	return r
}

func isCJKish(r rune) bool {
	return text.IsCJK(r) || text.IsCJKPunct(r)
}

func endsWithLetterHyphen(s string) bool {
	s = strings.TrimSuffix(strings.TrimRightFunc(s, unicode.IsSpace), "-")

	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsLetter(r)
}
