package merge

import (
	"regexp"
	"strings"

	"github.com/adrianliechti/docscan/pkg/text"
)

// Rule is one cleanup step applied to the text of every page. Rules are pure
// and run in the order given.
type Rule struct {
	Name  string
	Apply func(string) string
}

func regexpRule(name, pattern, replacement string) Rule {
	re := regexp.MustCompile(pattern)

	return Rule{
		Name: name,
		Apply: func(s string) string {
			return re.ReplaceAllString(s, replacement)
		},
	}
}

const (
	// whitespace, LaTeX spacing commands (\, \; \: \ ) and ties
	latexSpace = `(?:\s|\\[,;: ]|~)*`

	latexNumber = `(\d+(?:\.\d+)?)`

	// \mathrm{g}, \text{ kg}, \mathrm{~g}
	latexUnit = `\\(?:mathrm|text)\{` + latexSpace + `([A-Za-z]+)` + latexSpace + `\}`
)

// DefaultRules removes the markup the recognition model wraps around numbers
// and units, plus separator lines it adds at page edges.
var DefaultRules = []Rule{
	// CRLF and CR become LF; surrounding whitespace is dropped.
	{Name: "line-endings", Apply: text.NormalizeLineEndings},

	// ---, *** or ___ lines at the very start or end of a page.
	{Name: "thematic-break-edges", Apply: trimEdgeRules},

	// $15\mathrm{g}$, $15\,\mathrm{g}$, $15 \text{g}$ -> 15g
	regexpRule("math-number-unit", `\$`+latexSpace+latexNumber+latexSpace+latexUnit+latexSpace+`\$`, "${1}${2}"),

	// 15$\mathrm{g}$ -> 15g
	regexpRule("number-math-unit", latexNumber+`\s*\$`+latexSpace+latexUnit+latexSpace+`\$`, "${1}${2}"),

	// $15\%$, $15\,\%$ -> 15%
	regexpRule("math-number-percent", `\$`+latexSpace+latexNumber+latexSpace+`\\%`+latexSpace+`\$`, "${1}%"),

	// $15$ -> 15
	regexpRule("math-number", `\$`+latexSpace+latexNumber+latexSpace+`\$`, "${1}"),

	// 15\,\mathrm{g} outside math delimiters -> 15g
	regexpRule("number-unit-residue", latexNumber+latexSpace+latexUnit, "${1}${2}"),

	// any remaining \mathrm{g} or \text{kg} -> g, kg
	regexpRule("mathrm-residue", latexUnit, "${1}"),

	{Name: "trim", Apply: strings.TrimSpace},
}

// Clean applies rules to s in order.
func Clean(s string, rules []Rule) string {
	for _, rule := range rules {
		s = rule.Apply(s)
	}

	return s
}

func trimEdgeRules(s string) string {
	lines := text.Lines(s)

	for len(lines) > 0 && text.IsHorizontalRule(lines[0]) {
		lines = lines[1:]
	}

	for len(lines) > 0 && text.IsHorizontalRule(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
