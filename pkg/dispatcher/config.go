package dispatcher

import (
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type Option func(*Dispatcher)

// WithConcurrency caps the number of recognition calls in flight.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithMaxAttempts bounds the attempts per page, the first one included.
func WithMaxAttempts(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

func WithBackoff(fn func() backoff.BackOff) Option {
	return func(d *Dispatcher) {
		d.backoff = fn
	}
}

// WithRetryFailed controls whether pages cached as failed are submitted again.
func WithRetryFailed(retry bool) Option {
	return func(d *Dispatcher) {
		d.retryFailed = retry
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func defaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 30 * time.Second

	return b
}
