package merge

import (
	"math"
	"regexp"
	"strings"

	"github.com/adrianliechti/docscan/pkg/text"
)

// Furniture detects running headers, footers and page numbers: lines at the
// top or bottom of a page that repeat across pages.
type Furniture struct {
	// MinPages is the number of non-empty pages below which nothing is stripped.
	MinPages int

	// Window is the number of non-empty lines at each edge that are candidates.
	Window int

	// Ratio is the share of pages a line must appear on.
	Ratio float64

	// MinRepeats is the minimum number of pages a line must appear on.
	MinRepeats int
}

func DefaultFurniture() *Furniture {
	return &Furniture{
		MinPages:   3,
		Window:     2,
		Ratio:      0.5,
		MinRepeats: 2,
	}
}

var (
	pageNumberPatterns = []*regexp.Regexp{
		// 12, - 12 -, 3 / 9, 3 of 9; four digit numbers are left alone so
		// a year on its own line survives
		regexp.MustCompile(`(?i)^\s*[-–—]?\s*\d{1,3}\s*(?:(?:/|of)\s*\d+)?\s*[-–—]?\s*$`),

		// Page 3, p. 3, Page 3 of 9
		regexp.MustCompile(`(?i)^\s*[-–—]?\s*(?:page|p\.)\s*\d+\s*(?:(?:/|of)\s*\d+)?\s*[-–—]?\s*$`),

		// 第 3 页, 第3页 共9页
		regexp.MustCompile(`^\s*第\s*\d+\s*页(?:\s*[/，,]?\s*共\s*\d+\s*页)?\s*$`),
	}

	// page-number tokens inside a running header or footer: "Page 3",
	// "第 3 页", or a number set off by a separator at either end of the line
	pageTokenPattern = regexp.MustCompile(`(?i)\b(?:page|p\.)\s*\d+(?:\s*(?:/|of)\s*\d+)?|第\s*\d+\s*页(?:\s*共\s*\d+\s*页)?|^\s*\d+\s*[|·•–—-]|[|·•–—-]\s*\d+\s*$`)
)

func isPageNumber(line string) bool {
	for _, re := range pageNumberPatterns {
		if re.MatchString(line) {
			return true
		}
	}

	return false
}

func isHeading(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#")
}

// furnitureKey folds a line for repeat counting. Only page-number tokens
// are folded, so "Report | 3" and "Report | 4" compare equal while
// "Chapter 1" and "Chapter 2" do not. Headings keep all their digits.
func furnitureKey(line string) string {
	line = strings.ToLower(line)

	if !isHeading(line) {
		line = pageTokenPattern.ReplaceAllString(line, " <n> ")
	}

	line = strings.Map(func(r rune) rune {
		switch r {
		case '#', '*', '_':
			return -1
		}

		return r
	}, line)

	return strings.Join(strings.Fields(line), " ")
}

// edgeLines returns the indices of the first and last window non-empty lines.
func edgeLines(lines []string, window int) []int {
	var head, tail []int

	for i := 0; i < len(lines) && len(head) < window; i++ {
		if strings.TrimSpace(lines[i]) != "" {
			head = append(head, i)
		}
	}

	for i := len(lines) - 1; i >= 0 && len(tail) < window; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			tail = append(tail, i)
		}
	}

	seen := map[int]bool{}
	var result []int

	for _, i := range append(head, tail...) {
		if !seen[i] {
			seen[i] = true
			result = append(result, i)
		}
	}

	return result
}

// Strip returns pages with furniture lines removed. Empty entries stand for
// pages without text and are returned unchanged.
func (f *Furniture) Strip(pages []string) []string {
	result := make([]string, len(pages))
	copy(result, pages)

	var present int

	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			present++
		}
	}

	if present < f.MinPages {
		return result
	}

	counts := map[string]int{}

	for _, p := range pages {
		lines := text.Lines(p)
		seen := map[string]bool{}

		for _, i := range edgeLines(lines, f.Window) {
			key := furnitureKey(lines[i])

			if key == "" || seen[key] {
				continue
			}

			seen[key] = true
			counts[key]++
		}
	}

	threshold := max(f.MinRepeats, int(math.Ceil(f.Ratio*float64(present))))

	for n, p := range pages {
		if strings.TrimSpace(p) == "" {
			continue
		}

		lines := text.Lines(p)
		drop := map[int]bool{}

		for _, i := range edgeLines(lines, f.Window) {
			if (isPageNumber(lines[i]) && !isHeading(lines[i])) || counts[furnitureKey(lines[i])] >= threshold {
				drop[i] = true
			}
		}

		if len(drop) == 0 {
			continue
		}

		var kept []string

		for i, line := range lines {
			if !drop[i] {
				kept = append(kept, line)
			}
		}

		result[n] = strings.TrimSpace(strings.Join(kept, "\n"))
	}

	return result
}
