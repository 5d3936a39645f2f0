package recognizer

import (
	"context"
	"errors"
	"time"

	"github.com/adrianliechti/docscan/pkg/job"
)

type Provider interface {
	Recognize(ctx context.Context, input File, options *RecognizeOptions) (*Result, error)
}

var (
	ErrUnsupported = errors.New("unsupported type")
	ErrEmptyResult = errors.New("empty recognition result")
)

type File struct {
	Name string

	Content     []byte
	ContentType string
}

type RecognizeOptions struct {
	// Label identifies the page in logs and error messages.
	Label string
}

type Result struct {
	Model string
	Text  string

	Usage *job.Usage
}

// TransientError marks a failure worth retrying: timeouts, rate limits and
// server-side errors.
type TransientError struct {
	Err error

	// RetryAfter is the server supplied delay, zero when absent.
	RetryAfter time.Duration
}

func (e *TransientError) Error() string {
	return "transient: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func Transient(err error, retryAfter time.Duration) error {
	if err == nil {
		return nil
	}

	return &TransientError{
		Err:        err,
		RetryAfter: retryAfter,
	}
}

func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// RetryAfter reports the delay requested by the server for a transient error.
func RetryAfter(err error) time.Duration {
	var t *TransientError

	if errors.As(err, &t) {
		return t.RetryAfter
	}

	return 0
}
