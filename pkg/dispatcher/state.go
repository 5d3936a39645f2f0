package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/adrianliechti/docscan/pkg/job"
	"github.com/adrianliechti/docscan/pkg/recognizer"

	"github.com/cenkalti/backoff/v5"
)

type state int

const (
	statePending state = iota
	stateRetrying
	stateSucceeded
	stateFailed
)

func (s state) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateRetrying:
		return "retrying"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	}

	return "unknown"
}

// pageRun drives one page through Pending -> Retrying(n) -> Succeeded | Failed.
// Every step makes exactly one recognition attempt, so attempts never exceed
// maxAttempts and the run always ends in a terminal state unless the context
// is canceled.
type pageRun struct {
	page     *job.Page
	provider recognizer.Provider

	maxAttempts int
	backoff     backoff.BackOff

	state    state
	attempts int
	delay    time.Duration

	result *recognizer.Result
	err    error
}

func newPageRun(page *job.Page, provider recognizer.Provider, maxAttempts int, b backoff.BackOff) *pageRun {
	b.Reset()

	return &pageRun{
		page:     page,
		provider: provider,

		maxAttempts: maxAttempts,
		backoff:     b,

		state: statePending,
	}
}

func (r *pageRun) terminal() bool {
	return r.state == stateSucceeded || r.state == stateFailed
}

// run steps until the page is terminal. It only returns an error when ctx is
// done; the page is then left unfinished.
func (r *pageRun) run(ctx context.Context) error {
	for !r.terminal() {
		if err := r.step(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (r *pageRun) step(ctx context.Context) error {
	if r.state == stateRetrying {
		if err := sleep(ctx, r.delay); err != nil {
			return err
		}
	}

	r.attempts++

	data, err := r.page.Image(ctx)

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		r.fail(fmt.Errorf("load image: %w", err))
		return nil
	}

	input := recognizer.File{
		Name: r.page.Name,

		Content:     data,
		ContentType: r.page.ContentType,
	}

	result, err := r.provider.Recognize(ctx, input, &recognizer.RecognizeOptions{
		Label: r.page.Label,
	})

	if err == nil && (result == nil || result.Text == "") {
		err = recognizer.ErrEmptyResult
	}

	if err == nil {
		r.state = stateSucceeded
		r.result = result
		r.err = nil

		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	r.err = err

	if !recognizer.IsTransient(err) || r.attempts >= r.maxAttempts {
		r.fail(err)
		return nil
	}

	delay := r.backoff.NextBackOff()

	if delay == backoff.Stop {
		r.fail(err)
		return nil
	}

	if after := recognizer.RetryAfter(err); after > delay {
		delay = after
	}

	r.state = stateRetrying
	r.delay = delay

	return nil
}

func (r *pageRun) fail(err error) {
	r.state = stateFailed
	r.err = err
}

func (r *pageRun) jobResult() job.Result {
	result := job.Result{
		Index:    r.page.Index,
		Attempts: r.attempts,
	}

	switch r.state {
	case stateSucceeded:
		result.Status = job.StatusSuccess
		result.Text = r.result.Text
		result.Usage = r.result.Usage

	case stateFailed:
		result.Status = job.StatusFailed
		result.Error = r.err.Error()

	default:
		result.Status = job.StatusPending
	}

	return result
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
