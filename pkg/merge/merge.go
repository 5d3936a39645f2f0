package merge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/adrianliechti/docscan/pkg/job"
)

var (
	ErrGap       = errors.New("incomplete page set")
	ErrNoContent = errors.New("no page was recognized")
)

// GapError lists the pages (zero-based) that have no recognized text.
type GapError struct {
	Pages []int
}

func (e *GapError) Error() string {
	numbers := make([]string, len(e.Pages))

	for i, p := range e.Pages {
		numbers[i] = strconv.Itoa(p + 1)
	}

	return "incomplete page set: pages " + strings.Join(numbers, ", ") + " not recognized"
}

func (e *GapError) Is(target error) bool {
	return target == ErrGap
}

type Document struct {
	Text string

	Pages int

	// Missing holds the zero-based indices replaced by a placeholder.
	Missing []int

	// Empty holds the zero-based indices of recognized pages that had no
	// text left after cleanup and were left out of the document.
	Empty []int
}

func (d *Document) Complete() bool {
	return len(d.Missing) == 0
}

// Engine reduces page results, in page order, into one document.
type Engine struct {
	strict bool

	rules     []Rule
	stitcher  *Stitcher
	furniture *Furniture
}

func New(options ...Option) *Engine {
	e := &Engine{
		rules:     DefaultRules,
		stitcher:  DefaultStitcher(),
		furniture: DefaultFurniture(),
	}

	for _, option := range options {
		option(e)
	}

	return e
}

// Merge builds the document of j from results, indexed by page. Pages
// without a successful result are replaced by a visible placeholder, or
// reported as a GapError in strict mode.
func (e *Engine) Merge(j *job.Job, results []job.Result) (*Document, error) {
	byIndex := make([]job.Result, j.Len())

	for i := range byIndex {
		byIndex[i] = job.Result{Index: i, Status: job.StatusPending}
	}

	for _, r := range results {
		if r.Index >= 0 && r.Index < len(byIndex) {
			byIndex[r.Index] = r
		}
	}

	doc := &Document{
		Pages: j.Len(),
	}

	texts := make([]string, len(byIndex))

	for i, r := range byIndex {
		if !r.Success() {
			doc.Missing = append(doc.Missing, i)
			continue
		}

		texts[i] = Clean(r.Text, e.rules)
	}

	if len(doc.Missing) == len(byIndex) {
		return nil, ErrNoContent
	}

	if e.strict && len(doc.Missing) > 0 {
		return nil, &GapError{Pages: doc.Missing}
	}

	if j.Mode == job.ModePDF && e.furniture != nil {
		texts = e.furniture.Strip(texts)
	}

	for i, r := range byIndex {
		if r.Success() && texts[i] == "" {
			doc.Empty = append(doc.Empty, i)
		}
	}

	switch j.Mode {
	case job.ModePDF:
		doc.Text = e.mergePDF(j, byIndex, texts)

	case job.ModeFolder:
		doc.Text = e.mergeFolder(j, byIndex, texts)

	default:
		doc.Text = texts[0]
	}

	return doc, nil
}

func (e *Engine) mergePDF(j *job.Job, results []job.Result, texts []string) string {
	var doc, prev string

	for i, page := range texts {
		if !results[i].Success() {
			page = placeholder(i, results[i])
		}

		if page == "" {
			continue
		}

		boundary := BoundaryParagraph

		if doc != "" && results[i].Success() {
			boundary = e.stitcher.Boundary(prev, page)
		}

		doc = e.stitcher.Join(doc, page, boundary)
		prev = page
	}

	return doc
}

func (e *Engine) mergeFolder(j *job.Job, results []job.Result, texts []string) string {
	var sections []string

	for i, page := range texts {
		if !results[i].Success() {
			page = placeholder(i, results[i])
		}

		if page == "" {
			continue
		}

		sections = append(sections, "### "+j.Pages[i].Label+"\n\n"+page)
	}

	return strings.Join(sections, "\n\n---\n\n")
}

func placeholder(index int, r job.Result) string {
	reason := "not processed"

	if r.Status == job.StatusFailed {
		reason = "recognition failed"

		if r.Error != "" {
			reason = firstLine(r.Error, 200)
		}
	}

	return fmt.Sprintf("> [!WARNING] Page %d could not be recognized: %s", index+1, reason)
}

func firstLine(s string, limit int) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")

	if len([]rune(s)) > limit {
		s = string([]rune(s)[:limit]) + "…"
	}

	return s
}
