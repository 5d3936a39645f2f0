package dispatcher_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adrianliechti/docscan/pkg/cache"
	"github.com/adrianliechti/docscan/pkg/dispatcher"
	"github.com/adrianliechti/docscan/pkg/job"
	"github.com/adrianliechti/docscan/pkg/recognizer"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/require"
)

// mockRecognizer is a configurable mock for testing
type mockRecognizer struct {
	delay time.Duration

	// fail returns the error for a page label and attempt, nil for success
	fail func(label string, attempt int) error

	mu       sync.Mutex
	attempts map[string]int
	order    []string

	calls    atomic.Int64
	inflight atomic.Int64
	peak     atomic.Int64
}

func (m *mockRecognizer) Recognize(ctx context.Context, input recognizer.File, options *recognizer.RecognizeOptions) (*recognizer.Result, error) {
	m.calls.Add(1)

	current := m.inflight.Add(1)
	defer m.inflight.Add(-1)

	for {
		peak := m.peak.Load()

		if current <= peak || m.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	m.mu.Lock()
	if m.attempts == nil {
		m.attempts = map[string]int{}
	}
	m.attempts[options.Label]++
	attempt := m.attempts[options.Label]
	m.order = append(m.order, options.Label)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.fail != nil {
		if err := m.fail(options.Label, attempt); err != nil {
			return nil, err
		}
	}

	return &recognizer.Result{
		Text:  "text of " + options.Label,
		Usage: &job.Usage{PromptTokens: 2, CompletionTokens: 1, TotalTokens: 3},
	}, nil
}

func newJob(n int) *job.Job {
	j := &job.Job{
		Name:     "doc",
		CacheKey: "doc",
		Mode:     job.ModePDF,
	}

	for i := range n {
		label := fmt.Sprintf("Page %d", i+1)

		j.Pages = append(j.Pages, job.NewPage(i, label, fmt.Sprintf("page-%d.png", i+1), "image/png", func(ctx context.Context) ([]byte, error) {
			return []byte(label), nil
		}))
	}

	return j
}

func openCache(t *testing.T) *cache.Cache {
	t.Helper()

	c, err := cache.Open(filepath.Join(t.TempDir(), ".doc_cache"), nil)
	require.NoError(t, err)

	return c
}

func noBackoff() backoff.BackOff {
	return &backoff.ZeroBackOff{}
}

func TestRunAllPages(t *testing.T) {
	m := &mockRecognizer{}
	c := openCache(t)

	report, err := dispatcher.New(m).Run(context.Background(), newJob(5), c)
	require.NoError(t, err)

	require.Equal(t, 5, report.Total)
	require.Equal(t, 5, report.Recognized)
	require.Equal(t, 0, report.Cached)
	require.Equal(t, 0, report.Failed)
	require.Equal(t, 15, report.Usage.TotalTokens)
	require.True(t, c.AllTerminal(5))

	for i, result := range report.Results {
		require.Equal(t, i, result.Index)
		require.Equal(t, job.StatusSuccess, result.Status)
		require.Equal(t, fmt.Sprintf("text of Page %d", i+1), result.Text)
	}
}

func TestRunConcurrencyBound(t *testing.T) {
	m := &mockRecognizer{delay: 5 * time.Millisecond}

	report, err := dispatcher.New(m, dispatcher.WithConcurrency(3)).Run(context.Background(), newJob(30), openCache(t))
	require.NoError(t, err)

	require.Equal(t, 30, report.Recognized)
	require.Equal(t, int64(30), m.calls.Load())
	require.LessOrEqual(t, m.peak.Load(), int64(3))
}

func TestRunAdmitsInOrder(t *testing.T) {
	m := &mockRecognizer{}

	_, err := dispatcher.New(m, dispatcher.WithConcurrency(1)).Run(context.Background(), newJob(4), openCache(t))
	require.NoError(t, err)

	require.Equal(t, []string{"Page 1", "Page 2", "Page 3", "Page 4"}, m.order)
}

func TestRunFullCacheHit(t *testing.T) {
	c := openCache(t)

	first := &mockRecognizer{}
	_, err := dispatcher.New(first).Run(context.Background(), newJob(6), c)
	require.NoError(t, err)
	require.Equal(t, int64(6), first.calls.Load())

	second := &mockRecognizer{}
	report, err := dispatcher.New(second).Run(context.Background(), newJob(6), c)
	require.NoError(t, err)

	require.Zero(t, second.calls.Load())
	require.Equal(t, 6, report.Cached)
	require.Equal(t, 18, report.Usage.TotalTokens)
}

func TestRunResumesPartialCache(t *testing.T) {
	c := openCache(t)

	for _, i := range []int{0, 2, 5} {
		require.NoError(t, c.Put(job.Result{Index: i, Status: job.StatusSuccess, Text: "cached"}))
	}

	m := &mockRecognizer{}
	report, err := dispatcher.New(m).Run(context.Background(), newJob(8), c)
	require.NoError(t, err)

	require.Equal(t, int64(5), m.calls.Load())
	require.Equal(t, 3, report.Cached)
	require.Equal(t, "cached", report.Results[2].Text)
}

func TestRunPermanentFailure(t *testing.T) {
	m := &mockRecognizer{
		fail: func(label string, attempt int) error {
			if label == "Page 4" {
				return recognizer.ErrEmptyResult
			}

			return nil
		},
	}

	c := openCache(t)

	report, err := dispatcher.New(m, dispatcher.WithBackoff(noBackoff)).Run(context.Background(), newJob(5), c)
	require.NoError(t, err)

	require.Equal(t, 4, report.Recognized)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, []int{3}, report.FailedPages())

	failed := report.Results[3]
	require.Equal(t, job.StatusFailed, failed.Status)
	require.Equal(t, 1, failed.Attempts, "permanent errors are not retried")
	require.Contains(t, failed.Error, "empty")

	cached, ok := c.Get(3)
	require.True(t, ok)
	require.Equal(t, job.StatusFailed, cached.Status)

	for _, i := range []int{0, 1, 2, 4} {
		require.True(t, report.Results[i].Success())
	}
}

func TestRunTransientRecovers(t *testing.T) {
	m := &mockRecognizer{
		fail: func(label string, attempt int) error {
			if label == "Page 2" && attempt < 3 {
				return recognizer.Transient(errors.New("429"), 0)
			}

			return nil
		},
	}

	report, err := dispatcher.New(m, dispatcher.WithMaxAttempts(3), dispatcher.WithBackoff(noBackoff)).Run(context.Background(), newJob(3), openCache(t))
	require.NoError(t, err)

	require.Equal(t, 3, report.Recognized)
	require.Equal(t, 3, report.Results[1].Attempts)
	require.Equal(t, int64(5), m.calls.Load())
}

func TestRunTransientExhausted(t *testing.T) {
	m := &mockRecognizer{
		fail: func(label string, attempt int) error {
			if label == "Page 1" {
				return recognizer.Transient(errors.New("timeout"), 0)
			}

			return nil
		},
	}

	report, err := dispatcher.New(m, dispatcher.WithMaxAttempts(4), dispatcher.WithBackoff(noBackoff)).Run(context.Background(), newJob(2), openCache(t))
	require.NoError(t, err)

	require.Equal(t, job.StatusFailed, report.Results[0].Status)
	require.Equal(t, 4, report.Results[0].Attempts)
	require.True(t, report.Results[1].Success())
}

func TestRunRetriesCachedFailures(t *testing.T) {
	c := openCache(t)
	require.NoError(t, c.Put(job.Result{Index: 1, Status: job.StatusFailed, Error: "timeout"}))

	m := &mockRecognizer{}
	report, err := dispatcher.New(m, dispatcher.WithRetryFailed(false)).Run(context.Background(), newJob(2), c)
	require.NoError(t, err)
	require.Equal(t, int64(1), m.calls.Load())
	require.Equal(t, 1, report.Failed)

	m = &mockRecognizer{}
	report, err = dispatcher.New(m).Run(context.Background(), newJob(2), c)
	require.NoError(t, err)
	require.Equal(t, int64(1), m.calls.Load())
	require.Equal(t, 0, report.Failed)
	require.True(t, c.AllTerminal(2))

	result, _ := c.Get(1)
	require.True(t, result.Success())
}

func TestRunImageLoadFailure(t *testing.T) {
	j := newJob(2)
	j.Pages[0] = job.NewPage(0, "Page 1", "page-1.png", "image/png", func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("render failed")
	})

	m := &mockRecognizer{}
	report, err := dispatcher.New(m).Run(context.Background(), j, openCache(t))
	require.NoError(t, err)

	require.Equal(t, job.StatusFailed, report.Results[0].Status)
	require.Contains(t, report.Results[0].Error, "render failed")
	require.Equal(t, int64(1), m.calls.Load())
}

func TestRunCanceledResumes(t *testing.T) {
	c := openCache(t)

	ctx, cancel := context.WithCancel(context.Background())

	var done atomic.Int64

	m := &mockRecognizer{
		fail: func(label string, attempt int) error {
			if done.Add(1) == 4 {
				cancel()
				return context.Canceled
			}

			return nil
		},
	}

	report, err := dispatcher.New(m, dispatcher.WithConcurrency(1)).Run(ctx, newJob(10), c)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 3, report.Recognized)

	persisted := 0

	for i := range 10 {
		if _, ok := c.Get(i); ok {
			persisted++
		}
	}

	require.Equal(t, 3, persisted)

	resume := &mockRecognizer{}
	report, err = dispatcher.New(resume).Run(context.Background(), newJob(10), c)
	require.NoError(t, err)

	require.Equal(t, int64(10-persisted), resume.calls.Load())
	require.Equal(t, persisted, report.Cached)
	require.True(t, c.AllTerminal(10))
}
