package text

import (
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	gtext "github.com/yuin/goldmark/text"
)

// Block is the kind of a top-level Markdown block.
type Block string

const (
	BlockNone      Block = ""
	BlockParagraph Block = "paragraph"
	BlockHeading   Block = "heading"
	BlockList      Block = "list"
	BlockTable     Block = "table"
	BlockCode      Block = "code"
	BlockQuote     Block = "blockquote"
	BlockRule      Block = "rule"
	BlockHTML      Block = "html"
	BlockOther     Block = "other"
)

var markdownParser parser.Parser = goldmark.New(
	goldmark.WithExtensions(extension.Table),
).Parser()

// LeadingBlock returns the kind of the first block of a Markdown text.
func LeadingBlock(text string) Block {
	doc := parse(text)
	return blockKind(doc.FirstChild())
}

// TrailingBlock returns the kind of the last block of a Markdown text.
func TrailingBlock(text string) Block {
	doc := parse(text)
	return blockKind(doc.LastChild())
}

func parse(text string) ast.Node {
	return markdownParser.Parse(gtext.NewReader([]byte(text)))
}

func blockKind(n ast.Node) Block {
	if n == nil {
		return BlockNone
	}

	switch n.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		return BlockParagraph
	case ast.KindHeading:
		return BlockHeading
	case ast.KindList:
		return BlockList
	case east.KindTable:
		return BlockTable
	case ast.KindFencedCodeBlock, ast.KindCodeBlock:
		return BlockCode
	case ast.KindBlockquote:
		return BlockQuote
	case ast.KindThematicBreak:
		return BlockRule
	case ast.KindHTMLBlock:
		return BlockHTML
	}

	return BlockOther
}

// Horizontal rules: ---, ***, ___
var horizontalRulePattern = regexp.MustCompile(`^[\s]*(-{3,}|\*{3,}|_{3,})[\s]*$`)

// IsHorizontalRule reports whether a single line is a thematic break.
func IsHorizontalRule(line string) bool {
	return horizontalRulePattern.MatchString(line)
}
