package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/adrianliechti/docscan/pkg/cache"
	"github.com/adrianliechti/docscan/pkg/dispatcher"
	"github.com/adrianliechti/docscan/pkg/job"
	"github.com/adrianliechti/docscan/pkg/merge"
	"github.com/adrianliechti/docscan/pkg/recognizer"
	"github.com/adrianliechti/docscan/pkg/source"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
)

// OutputSuffix is appended to the input stem to name the merged document.
const OutputSuffix = "_ocr_result.md"

// Pipeline runs one input end to end: load, recognize with resume, merge
// and write the document.
type Pipeline struct {
	provider recognizer.Provider

	root   string
	logger *slog.Logger

	loader     []source.Option
	dispatcher []dispatcher.Option
	merge      []merge.Option
}

type Outcome struct {
	Job *job.Job

	// Output is the path of the written document, empty if none was written.
	Output string

	Report   *dispatcher.Report
	Document *merge.Document

	// Incomplete is set when the document carries placeholders.
	Incomplete bool

	// Failed holds the zero-based indices of terminally failed pages.
	Failed []int

	// Resumable is set when every page has a terminal cache entry, so a
	// rerun recognizes nothing that already succeeded.
	Resumable bool
}

func New(provider recognizer.Provider, options ...Option) *Pipeline {
	p := &Pipeline{
		provider: provider,

		root: ".",
	}

	for _, option := range options {
		option(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// OutputPath returns where the document of j is written.
func (p *Pipeline) OutputPath(j *job.Job) string {
	return filepath.Join(p.root, j.Name+OutputSuffix)
}

// Run processes input. The returned outcome is non-nil whenever the input was
// loaded, including when the run was interrupted or nothing could be merged.
func (p *Pipeline) Run(ctx context.Context, input string) (*Outcome, error) {
	logger := p.logger.With("run", uuid.NewString())

	loader := source.New(slices.Concat(p.loader, []source.Option{source.WithLogger(logger)})...)

	j, err := loader.Load(ctx, input)

	if err != nil {
		return nil, err
	}

	logger = logger.With("job", j.Name)
	logger.Info("job loaded", "mode", j.Mode, "pages", j.Len())

	outcome := &Outcome{
		Job: j,
	}

	store, err := cache.Open(cache.Dir(p.root, j), logger)

	if err != nil {
		return outcome, err
	}

	d := dispatcher.New(p.provider, slices.Concat(p.dispatcher, []dispatcher.Option{dispatcher.WithLogger(logger)})...)

	report, err := d.Run(ctx, j, store)

	outcome.Report = report

	if err != nil {
		return outcome, err
	}

	logger.Info("recognition finished", "cached", report.Cached, "recognized", report.Recognized, "failed", report.Failed)

	outcome.Failed = report.FailedPages()
	outcome.Resumable = store.AllTerminal(j.Len())

	if len(outcome.Failed) > 0 {
		logger.Warn("pages failed", "pages", pageNumbers(outcome.Failed))
	}

	if !outcome.Resumable {
		logger.Warn("cache incomplete, unsaved pages will be recognized again", "unsaved", report.Unsaved)
	}

	doc, err := merge.New(p.merge...).Merge(j, report.Results)

	if err != nil {
		var gap *merge.GapError

		if errors.As(err, &gap) {
			outcome.Incomplete = true
		}

		return outcome, err
	}

	outcome.Document = doc
	outcome.Incomplete = !doc.Complete()

	if len(doc.Empty) > 0 {
		logger.Warn("pages without text", "pages", pageNumbers(doc.Empty))
	}

	output := p.OutputPath(j)

	if err := renameio.WriteFile(output, []byte(doc.Text), 0o644); err != nil {
		return outcome, fmt.Errorf("failed to write document: %w", err)
	}

	outcome.Output = output

	logger.Info("document written", "output", output, "incomplete", outcome.Incomplete)

	return outcome, nil
}

func pageNumbers(pages []int) []int {
	numbers := make([]int, len(pages))

	for i, p := range pages {
		numbers[i] = p + 1
	}

	return numbers
}
