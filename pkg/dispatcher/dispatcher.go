package dispatcher

import (
	"context"
	"log/slog"
	"sync"

	"github.com/adrianliechti/docscan/pkg/job"
	"github.com/adrianliechti/docscan/pkg/recognizer"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"
)

// Store is the page cache as seen by the dispatcher.
type Store interface {
	Get(index int) (job.Result, bool)
	Put(result job.Result) error
}

type Dispatcher struct {
	provider recognizer.Provider
	logger   *slog.Logger

	concurrency int
	maxAttempts int
	retryFailed bool

	backoff func() backoff.BackOff
}

func New(provider recognizer.Provider, options ...Option) *Dispatcher {
	d := &Dispatcher{
		provider: provider,

		concurrency: 10,
		maxAttempts: 3,
		retryFailed: true,

		backoff: defaultBackoff,
	}

	for _, option := range options {
		option(d)
	}

	if d.logger == nil {
		d.logger = slog.Default()
	}

	return d
}

type Report struct {
	Total int

	// Cached pages were served from the cache without a recognition call.
	Cached int

	// Recognized pages succeeded during this run.
	Recognized int

	// Failed pages are terminally failed, cached or not.
	Failed int

	// Unsaved results could not be written to the cache.
	Unsaved int

	Results []job.Result

	Usage job.Usage
}

func (r *Report) FailedPages() []int {
	var pages []int

	for _, result := range r.Results {
		if result.Status == job.StatusFailed {
			pages = append(pages, result.Index)
		}
	}

	return pages
}

// Run recognizes every page of j that has no usable cache entry, with at most
// the configured number of calls in flight. Page failures are recorded, not
// returned; the error is non-nil only when ctx ends the run early, in which
// case the report holds the pages finished so far.
func (d *Dispatcher) Run(ctx context.Context, j *job.Job, store Store) (*Report, error) {
	report := &Report{
		Total:   j.Len(),
		Results: make([]job.Result, j.Len()),
	}

	var worklist []*job.Page

	for _, page := range j.Pages {
		if result, ok := store.Get(page.Index); ok {
			if result.Success() || !d.retryFailed {
				report.Results[page.Index] = result
				report.Cached++

				d.logger.Info("page cached", "page", page.Label, "status", result.Status)
				continue
			}
		}

		report.Results[page.Index] = job.Result{
			Index:  page.Index,
			Status: job.StatusPending,
		}

		worklist = append(worklist, page)
	}

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for _, page := range worklist {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			d.logger.Info("recognizing page", "page", page.Label, "index", page.Index+1, "total", report.Total)

			run := newPageRun(page, d.provider, d.maxAttempts, d.backoff())

			if err := run.run(gctx); err != nil {
				return err
			}

			page.Release()

			result := run.jobResult()

			if result.Success() {
				d.logger.Info("page recognized", "page", page.Label, "attempts", result.Attempts)
			} else {
				d.logger.Warn("page failed", "page", page.Label, "attempts", result.Attempts, "error", result.Error)
			}

			saveErr := store.Put(result)

			if saveErr != nil {
				d.logger.Error("cache write failed", "page", page.Label, "error", saveErr)
			}

			mu.Lock()
			defer mu.Unlock()

			report.Results[page.Index] = result

			if result.Success() {
				report.Recognized++
			}

			if saveErr != nil {
				report.Unsaved++
			}

			return nil
		})
	}

	err := g.Wait()

	if err == nil {
		err = ctx.Err()
	}

	for _, result := range report.Results {
		switch result.Status {
		case job.StatusSuccess:
			report.Usage.Add(result.Usage)
		case job.StatusFailed:
			report.Failed++
		}
	}

	return report, err
}
